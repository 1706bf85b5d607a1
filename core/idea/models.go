package idea

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/startuplab/backend/core"
)

type Idea struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ProjectID    string    `json:"project_id,omitempty"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Industry     string    `json:"industry"`
	TargetMarket string    `json:"target_market"`
	Problem      string    `json:"problem"`
	Solution     string    `json:"solution"`
	IsFavorite   bool      `json:"is_favorite"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type NewIdea struct {
	ProjectID    string `json:"project_id" validate:"omitempty,uuid"`
	Title        string `json:"title" validate:"required,max=200"`
	Description  string `json:"description" validate:"max=5000"`
	Industry     string `json:"industry" validate:"max=120"`
	TargetMarket string `json:"target_market" validate:"max=500"`
	Problem      string `json:"problem" validate:"max=2000"`
	Solution     string `json:"solution" validate:"max=2000"`
	IsFavorite   bool   `json:"is_favorite"`
}

func (ni *NewIdea) Validate(validate *validator.Validate) error {
	ni.ProjectID = core.CleanString(ni.ProjectID)
	ni.Title = core.CleanString(ni.Title)
	ni.Description = core.CleanString(ni.Description)
	ni.Industry = core.CleanString(ni.Industry)
	ni.TargetMarket = core.CleanString(ni.TargetMarket)
	ni.Problem = core.CleanString(ni.Problem)
	ni.Solution = core.CleanString(ni.Solution)
	return validate.Struct(ni)
}

// UpdateIdea replaces the editable fields of an Idea; an empty ProjectID detaches it from its project.
type UpdateIdea NewIdea

func (ui *UpdateIdea) Validate(validate *validator.Validate) error {
	return (*NewIdea)(ui).Validate(validate)
}

type QueryFilter struct {
	ProjectID string `query:"project_id"`
	Industry  string `query:"industry"`
	Favorite  *bool  `query:"favorite"`
	Search    string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.ProjectID = core.CleanString(qf.ProjectID)
	qf.Industry = core.CleanString(qf.Industry)
	qf.Search = core.CleanString(qf.Search)
}

type GenerateRequest struct {
	Industry string `json:"industry" validate:"max=120"`
	Count    int    `json:"count" validate:"gte=0,lte=10"`
}

// Suggestion is a generated idea, not persisted until the user saves it.
type Suggestion struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Industry     string `json:"industry"`
	TargetMarket string `json:"target_market"`
	Problem      string `json:"problem"`
	Solution     string `json:"solution"`
}
