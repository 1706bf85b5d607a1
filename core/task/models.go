package task

import (
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/startuplab/backend/core"
)

const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

var (
	Statuses   = []string{StatusTodo, StatusInProgress, StatusDone}
	Priorities = []string{PriorityLow, PriorityMedium, PriorityHigh}
)

type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	AssigneeID  string     `json:"assignee_id,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Position    int        `json:"position"`
	CreatedBy   string     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type NewTask struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	Status      string     `json:"status" validate:"taskstatus"`
	Priority    string     `json:"priority" validate:"taskpriority"`
	AssigneeID  string     `json:"assignee_id" validate:"omitempty,uuid"`
	DueDate     *time.Time `json:"due_date"`
}

func (nt *NewTask) Validate(validate *validator.Validate) error {
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	nt.Status = core.CleanString(nt.Status, true /* lower */)
	if nt.Status == "" {
		nt.Status = StatusTodo
	}
	nt.Priority = core.CleanString(nt.Priority, true /* lower */)
	if nt.Priority == "" {
		nt.Priority = PriorityMedium
	}
	nt.AssigneeID = core.CleanString(nt.AssigneeID)
	return validate.Struct(nt)
}

// UpdateTask replaces the editable fields of a Task; an empty AssigneeID unassigns it.
type UpdateTask NewTask

func (u *UpdateTask) Validate(validate *validator.Validate) error {
	return (*NewTask)(u).Validate(validate)
}

// StatusUpdate moves a task to another column.
// Without a position, the task goes to the end of the column.
type StatusUpdate struct {
	Status   string `json:"status" validate:"required,taskstatus"`
	Position *int   `json:"position" validate:"omitempty,gte=0"`
}

func (su *StatusUpdate) Validate(validate *validator.Validate) error {
	su.Status = core.CleanString(su.Status, true /* lower */)
	return validate.Struct(su)
}

// Board is the Kanban view of the tasks of a project.
type Board struct {
	Todo       []Task `json:"todo"`
	InProgress []Task `json:"in_progress"`
	Done       []Task `json:"done"`
}

func (b Board) Len() int {
	return len(b.Todo) + len(b.InProgress) + len(b.Done)
}

// GroupByStatus partitions tasks into the Kanban columns, each ordered by position then creation date.
// Tasks with an unknown status are dropped.
func GroupByStatus(tasks []Task) Board {
	b := Board{Todo: []Task{}, InProgress: []Task{}, Done: []Task{}}
	for _, t := range tasks {
		switch t.Status {
		case StatusTodo:
			b.Todo = append(b.Todo, t)
		case StatusInProgress:
			b.InProgress = append(b.InProgress, t)
		case StatusDone:
			b.Done = append(b.Done, t)
		}
	}
	for _, col := range [][]Task{b.Todo, b.InProgress, b.Done} {
		sortColumn(col)
	}
	return b
}

func sortColumn(col []Task) {
	sort.SliceStable(col, func(i, j int) bool {
		if col[i].Position != col[j].Position {
			return col[i].Position < col[j].Position
		}
		return col[i].CreatedAt.Before(col[j].CreatedAt)
	})
}
