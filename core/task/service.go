package task

import (
	"context"

	"github.com/pkg/errors"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/user"
)

var (
	ErrNotFound        = core.NewNotFoundError("tâche introuvable")
	ErrInvalidAssignee = core.NewValidationError(nil, core.FieldError{
		Field: "assignee_id",
		Error: "la personne assignée doit faire partie du projet",
	})
)

type (
	Repository interface {
		CreateTask(ctx context.Context, t Task, exec ...core.DBExecutor) (Task, error)
		QueryTasks(ctx context.Context, projectID string, exec ...core.DBExecutor) ([]Task, error)
		GetTask(ctx context.Context, id string, exec ...core.DBExecutor) (Task, error)
		UpdateTask(ctx context.Context, t Task, exec ...core.DBExecutor) (Task, error)
		DeleteTask(ctx context.Context, id string, exec ...core.DBExecutor) error
		// MaxPosition returns the highest position in the column, -1 if it is empty.
		MaxPosition(ctx context.Context, projectID, status string, exec ...core.DBExecutor) (int, error)
	}

	// ParticipantChecker tells whether a user owns or is an active member of a project.
	ParticipantChecker interface {
		IsParticipant(ctx context.Context, projectID, userID string) (bool, error)
	}

	Service struct {
		repo         Repository
		participants ParticipantChecker
	}
)

func NewService(repo Repository, participants ParticipantChecker) *Service {
	return &Service{repo: repo, participants: participants}
}

func (svc *Service) checkAssignee(ctx context.Context, projectID, assigneeID string) error {
	if assigneeID == "" {
		return nil
	}
	ok, err := svc.participants.IsParticipant(ctx, projectID, assigneeID)
	if err != nil {
		return errors.Wrap(err, "checking assignee")
	}
	if !ok {
		return ErrInvalidAssignee
	}
	return nil
}

func (svc *Service) nextPosition(ctx context.Context, projectID, status string) (int, error) {
	pos, err := svc.repo.MaxPosition(ctx, projectID, status)
	if err != nil {
		return 0, errors.Wrap(err, "getting column position")
	}
	return pos + 1, nil
}

// Board returns the tasks of the project grouped by Kanban column.
func (svc *Service) Board(ctx context.Context, projectID string) (Board, error) {
	tasks, err := svc.repo.QueryTasks(ctx, projectID)
	if err != nil {
		return Board{}, err
	}
	return GroupByStatus(tasks), nil
}

// Create appends a task at the end of its column.
func (svc *Service) Create(ctx context.Context, usr user.User, projectID string, nt NewTask) (Task, error) {
	if err := svc.checkAssignee(ctx, projectID, nt.AssigneeID); err != nil {
		return Task{}, err
	}
	pos, err := svc.nextPosition(ctx, projectID, nt.Status)
	if err != nil {
		return Task{}, err
	}

	now := core.Now()
	return svc.repo.CreateTask(ctx, Task{
		ProjectID:   projectID,
		Title:       nt.Title,
		Description: nt.Description,
		Status:      nt.Status,
		Priority:    nt.Priority,
		AssigneeID:  nt.AssigneeID,
		DueDate:     nt.DueDate,
		Position:    pos,
		CreatedBy:   usr.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// Get returns the task id if it belongs to the project.
func (svc *Service) Get(ctx context.Context, projectID, id string) (Task, error) {
	t, err := svc.repo.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if t.ProjectID != projectID {
		return Task{}, ErrNotFound
	}
	return t, nil
}

func (svc *Service) Update(ctx context.Context, t Task, ut UpdateTask) (Task, error) {
	if ut.AssigneeID != t.AssigneeID {
		if err := svc.checkAssignee(ctx, t.ProjectID, ut.AssigneeID); err != nil {
			return Task{}, err
		}
	}
	if ut.Status != t.Status {
		pos, err := svc.nextPosition(ctx, t.ProjectID, ut.Status)
		if err != nil {
			return Task{}, err
		}
		t.Position = pos
	}

	t.Title = ut.Title
	t.Description = ut.Description
	t.Status = ut.Status
	t.Priority = ut.Priority
	t.AssigneeID = ut.AssigneeID
	t.DueDate = ut.DueDate
	t.UpdatedAt = core.Now()
	return svc.repo.UpdateTask(ctx, t)
}

// UpdateStatus moves the task to the column su.Status.
func (svc *Service) UpdateStatus(ctx context.Context, t Task, su StatusUpdate) (Task, error) {
	switch {
	case su.Position != nil:
		t.Position = *su.Position
	case su.Status != t.Status:
		pos, err := svc.nextPosition(ctx, t.ProjectID, su.Status)
		if err != nil {
			return Task{}, err
		}
		t.Position = pos
	}
	t.Status = su.Status
	t.UpdatedAt = core.Now()
	return svc.repo.UpdateTask(ctx, t)
}

func (svc *Service) Delete(ctx context.Context, t Task) error {
	return svc.repo.DeleteTask(ctx, t.ID)
}
