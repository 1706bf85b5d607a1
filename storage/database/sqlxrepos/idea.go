package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/idea"
)

const ideaColumns = `id, user_id, project_id, title, description, industry, target_market, problem, solution,
	is_favorite, created_at, updated_at`

type ideaRow struct {
	ID           string      `db:"id"`
	UserID       string      `db:"user_id"`
	ProjectID    null.String `db:"project_id"`
	Title        string      `db:"title"`
	Description  string      `db:"description"`
	Industry     string      `db:"industry"`
	TargetMarket string      `db:"target_market"`
	Problem      string      `db:"problem"`
	Solution     string      `db:"solution"`
	IsFavorite   bool        `db:"is_favorite"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

type ideaRepository struct {
	repository
}

var _ idea.Repository = (*ideaRepository)(nil) // interface compliance check

func NewIdeaRepository(db core.DBExecutor) *ideaRepository {
	return &ideaRepository{repository{db: db}}
}

func (repo ideaRepository) toRow(i idea.Idea) ideaRow {
	return ideaRow{
		ID:           i.ID,
		UserID:       i.UserID,
		ProjectID:    null.NewString(i.ProjectID, i.ProjectID != ""),
		Title:        i.Title,
		Description:  i.Description,
		Industry:     i.Industry,
		TargetMarket: i.TargetMarket,
		Problem:      i.Problem,
		Solution:     i.Solution,
		IsFavorite:   i.IsFavorite,
		CreatedAt:    i.CreatedAt.UTC(),
		UpdatedAt:    i.UpdatedAt.UTC(),
	}
}

func (repo ideaRepository) fromRow(row ideaRow) idea.Idea {
	return idea.Idea{
		ID:           row.ID,
		UserID:       row.UserID,
		ProjectID:    row.ProjectID.String,
		Title:        row.Title,
		Description:  row.Description,
		Industry:     row.Industry,
		TargetMarket: row.TargetMarket,
		Problem:      row.Problem,
		Solution:     row.Solution,
		IsFavorite:   row.IsFavorite,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func (repo ideaRepository) CreateIdea(ctx context.Context, i idea.Idea, exec ...core.DBExecutor) (idea.Idea, error) {
	i.ID = uuid.NewString()
	_, err := namedExec(ctx, repo.getExec(exec), `
		INSERT INTO ideas (`+ideaColumns+`)
		VALUES (:id, :user_id, :project_id, :title, :description, :industry, :target_market, :problem, :solution,
			:is_favorite, :created_at, :updated_at)`, repo.toRow(i))
	if err != nil {
		return idea.Idea{}, errors.Wrap(err, "inserting idea")
	}
	return i, nil
}

var ideaOrderings = map[string]string{
	"title":      "title",
	"industry":   "industry",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

func (repo ideaRepository) QueryIdeas(ctx context.Context, userID string, filter *idea.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]idea.Idea, error) {
	conds := []string{"user_id = ?"}
	args := []interface{}{userID}

	if filter != nil {
		if filter.ProjectID != "" {
			conds = append(conds, "project_id = ?")
			args = append(args, filter.ProjectID)
		}
		if filter.Industry != "" {
			conds = append(conds, "lower(industry) = lower(?)")
			args = append(args, filter.Industry)
		}
		if filter.Favorite != nil {
			conds = append(conds, "is_favorite = ?")
			args = append(args, *filter.Favorite)
		}
		if filter.Search != "" {
			conds = append(conds, "(lower(title) LIKE ? OR lower(description) LIKE ?)")
			args = append(args, likeArg(filter.Search), likeArg(filter.Search))
		}
	}

	var rows []ideaRow
	query := "SELECT " + ideaColumns + " FROM ideas" + where(conds) +
		" ORDER BY " + core.OrderByClause(ordering, ideaOrderings, "is_favorite DESC, created_at DESC")
	if err := repo.getExec(exec).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying ideas")
	}

	ideas := make([]idea.Idea, 0, len(rows))
	for _, row := range rows {
		ideas = append(ideas, repo.fromRow(row))
	}
	return ideas, nil
}

func (repo ideaRepository) GetIdea(ctx context.Context, id string, exec ...core.DBExecutor) (idea.Idea, error) {
	var row ideaRow
	if err := repo.getExec(exec).GetContext(ctx, &row, "SELECT "+ideaColumns+" FROM ideas WHERE id = ?", id); err != nil {
		return idea.Idea{}, trapNoRowsErr(err, idea.ErrNotFound, "finding idea")
	}
	return repo.fromRow(row), nil
}

func (repo ideaRepository) CountIdeas(ctx context.Context, userID string, exec ...core.DBExecutor) (int, error) {
	return count(ctx, repo.getExec(exec), "SELECT COUNT(*) FROM ideas WHERE user_id = ?", userID)
}

func (repo ideaRepository) UpdateIdea(ctx context.Context, i idea.Idea, exec ...core.DBExecutor) (idea.Idea, error) {
	res, err := namedExec(ctx, repo.getExec(exec), `
		UPDATE ideas SET
			project_id = :project_id, title = :title, description = :description, industry = :industry,
			target_market = :target_market, problem = :problem, solution = :solution,
			is_favorite = :is_favorite, updated_at = :updated_at
		WHERE id = :id`, repo.toRow(i))
	if err != nil {
		return idea.Idea{}, errors.Wrap(err, "updating idea")
	}
	if err = mustAffect(res, idea.ErrNotFound); err != nil {
		return idea.Idea{}, err
	}
	return i, nil
}

func (repo ideaRepository) DeleteIdea(ctx context.Context, id string, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx, "DELETE FROM ideas WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "deleting idea")
	}
	return mustAffect(res, idea.ErrNotFound)
}
