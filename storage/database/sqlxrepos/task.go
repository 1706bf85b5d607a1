package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/task"
)

const taskColumns = `id, project_id, title, description, status, priority, assignee_id, due_date, position,
	created_by, created_at, updated_at`

type taskRow struct {
	ID          string      `db:"id"`
	ProjectID   string      `db:"project_id"`
	Title       string      `db:"title"`
	Description string      `db:"description"`
	Status      string      `db:"status"`
	Priority    string      `db:"priority"`
	AssigneeID  null.String `db:"assignee_id"`
	DueDate     null.Time   `db:"due_date"`
	Position    int         `db:"position"`
	CreatedBy   null.String `db:"created_by"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

type taskRepository struct {
	repository
}

var _ task.Repository = (*taskRepository)(nil) // interface compliance check

func NewTaskRepository(db core.DBExecutor) *taskRepository {
	return &taskRepository{repository{db: db}}
}

func (repo taskRepository) toRow(t task.Task) taskRow {
	row := taskRow{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		AssigneeID:  null.NewString(t.AssigneeID, t.AssigneeID != ""),
		Position:    t.Position,
		CreatedBy:   null.NewString(t.CreatedBy, t.CreatedBy != ""),
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
	if t.DueDate != nil {
		row.DueDate = null.TimeFrom(t.DueDate.UTC())
	}
	return row
}

func (repo taskRepository) fromRow(row taskRow) task.Task {
	return task.Task{
		ID:          row.ID,
		ProjectID:   row.ProjectID,
		Title:       row.Title,
		Description: row.Description,
		Status:      row.Status,
		Priority:    row.Priority,
		AssigneeID:  row.AssigneeID.String,
		DueDate:     row.DueDate.Ptr(),
		Position:    row.Position,
		CreatedBy:   row.CreatedBy.String,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func (repo taskRepository) CreateTask(ctx context.Context, t task.Task, exec ...core.DBExecutor) (task.Task, error) {
	t.ID = uuid.NewString()
	_, err := namedExec(ctx, repo.getExec(exec), `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (:id, :project_id, :title, :description, :status, :priority, :assignee_id, :due_date, :position,
			:created_by, :created_at, :updated_at)`, repo.toRow(t))
	if err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	return t, nil
}

func (repo taskRepository) QueryTasks(ctx context.Context, projectID string, exec ...core.DBExecutor) ([]task.Task, error) {
	var rows []taskRow
	err := repo.getExec(exec).SelectContext(ctx, &rows,
		"SELECT "+taskColumns+" FROM tasks WHERE project_id = ? ORDER BY status, position, created_at", projectID)
	if err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}

	tasks := make([]task.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, repo.fromRow(row))
	}
	return tasks, nil
}

func (repo taskRepository) GetTask(ctx context.Context, id string, exec ...core.DBExecutor) (task.Task, error) {
	var row taskRow
	if err := repo.getExec(exec).GetContext(ctx, &row, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id); err != nil {
		return task.Task{}, trapNoRowsErr(err, task.ErrNotFound, "finding task")
	}
	return repo.fromRow(row), nil
}

func (repo taskRepository) UpdateTask(ctx context.Context, t task.Task, exec ...core.DBExecutor) (task.Task, error) {
	res, err := namedExec(ctx, repo.getExec(exec), `
		UPDATE tasks SET
			title = :title, description = :description, status = :status, priority = :priority,
			assignee_id = :assignee_id, due_date = :due_date, position = :position, updated_at = :updated_at
		WHERE id = :id`, repo.toRow(t))
	if err != nil {
		return task.Task{}, errors.Wrap(err, "updating task")
	}
	if err = mustAffect(res, task.ErrNotFound); err != nil {
		return task.Task{}, err
	}
	return t, nil
}

func (repo taskRepository) DeleteTask(ctx context.Context, id string, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return mustAffect(res, task.ErrNotFound)
}

func (repo taskRepository) MaxPosition(ctx context.Context, projectID, status string, exec ...core.DBExecutor) (int, error) {
	return count(ctx, repo.getExec(exec),
		"SELECT COALESCE(MAX(position), -1) FROM tasks WHERE project_id = ? AND status = ?", projectID, status)
}
