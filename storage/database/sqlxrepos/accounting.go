package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/accounting"
)

const entryColumns = "id, user_id, project_id, kind, category, label, amount, occurred_on, created_at"

type entryRow struct {
	ID         string      `db:"id"`
	UserID     string      `db:"user_id"`
	ProjectID  null.String `db:"project_id"`
	Kind       string      `db:"kind"`
	Category   string      `db:"category"`
	Label      string      `db:"label"`
	Amount     int64       `db:"amount"`
	OccurredOn time.Time   `db:"occurred_on"`
	CreatedAt  time.Time   `db:"created_at"`
}

type accountingRepository struct {
	repository
}

var _ accounting.Repository = (*accountingRepository)(nil) // interface compliance check

func NewAccountingRepository(db core.DBExecutor) *accountingRepository {
	return &accountingRepository{repository{db: db}}
}

func (repo accountingRepository) fromRow(row entryRow) accounting.Entry {
	return accounting.Entry{
		ID:         row.ID,
		UserID:     row.UserID,
		ProjectID:  row.ProjectID.String,
		Kind:       row.Kind,
		Category:   row.Category,
		Label:      row.Label,
		Amount:     row.Amount,
		OccurredOn: row.OccurredOn,
		CreatedAt:  row.CreatedAt,
	}
}

func (repo accountingRepository) CreateEntry(ctx context.Context, e accounting.Entry, exec ...core.DBExecutor) (accounting.Entry, error) {
	e.ID = uuid.NewString()
	_, err := namedExec(ctx, repo.getExec(exec), `
		INSERT INTO ledger_entries (`+entryColumns+`)
		VALUES (:id, :user_id, :project_id, :kind, :category, :label, :amount, :occurred_on, :created_at)`, entryRow{
		ID:         e.ID,
		UserID:     e.UserID,
		ProjectID:  null.NewString(e.ProjectID, e.ProjectID != ""),
		Kind:       e.Kind,
		Category:   e.Category,
		Label:      e.Label,
		Amount:     e.Amount,
		OccurredOn: e.OccurredOn.UTC(),
		CreatedAt:  e.CreatedAt.UTC(),
	})
	if err != nil {
		return accounting.Entry{}, errors.Wrap(err, "inserting ledger entry")
	}
	return e, nil
}

func (repo accountingRepository) QueryEntries(ctx context.Context, userID string, filter *accounting.QueryFilter, exec ...core.DBExecutor) ([]accounting.Entry, error) {
	conds := []string{"user_id = ?"}
	args := []interface{}{userID}
	if filter != nil {
		if filter.ProjectID != "" {
			conds = append(conds, "project_id = ?")
			args = append(args, filter.ProjectID)
		}
		if filter.Kind != "" {
			conds = append(conds, "kind = ?")
			args = append(args, filter.Kind)
		}
		if filter.Year > 0 {
			start := time.Date(filter.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
			conds = append(conds, "occurred_on >= ? AND occurred_on < ?")
			args = append(args, start, start.AddDate(1, 0, 0))
		}
	}

	var rows []entryRow
	query := "SELECT " + entryColumns + " FROM ledger_entries" + where(conds) + " ORDER BY occurred_on DESC, created_at DESC"
	if err := repo.getExec(exec).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying ledger entries")
	}

	entries := make([]accounting.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, repo.fromRow(row))
	}
	return entries, nil
}

func (repo accountingRepository) GetEntry(ctx context.Context, id string, exec ...core.DBExecutor) (accounting.Entry, error) {
	var row entryRow
	if err := repo.getExec(exec).GetContext(ctx, &row, "SELECT "+entryColumns+" FROM ledger_entries WHERE id = ?", id); err != nil {
		return accounting.Entry{}, trapNoRowsErr(err, accounting.ErrNotFound, "finding ledger entry")
	}
	return repo.fromRow(row), nil
}

func (repo accountingRepository) DeleteEntry(ctx context.Context, id string, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx, "DELETE FROM ledger_entries WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "deleting ledger entry")
	}
	return mustAffect(res, accounting.ErrNotFound)
}
