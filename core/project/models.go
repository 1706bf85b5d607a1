package project

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/startuplab/backend/core"
)

// Stages
const (
	StageIdea       = "idea"
	StageValidation = "validation"
	StageMVP        = "mvp"
	StageLaunch     = "launch"
	StageGrowth     = "growth"
)

// Team roles. The owner is never stored as a TeamMember.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
	RoleViewer = "viewer"
)

// Team member statuses
const (
	StatusPending = "pending"
	StatusActive  = "active"
)

var (
	Stages = []string{StageIdea, StageValidation, StageMVP, StageLaunch, StageGrowth}

	// role allow-lists; an empty list lets any participant through
	ReadRoles   []string
	WriteRoles  = []string{RoleOwner, RoleAdmin, RoleMember}
	ManageRoles = []string{RoleOwner, RoleAdmin}
	DeleteRoles = []string{RoleOwner}
)

type Project struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Industry    string    `json:"industry"`
	Stage       string    `json:"stage"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Role is the role of the requesting user, set when listing projects.
	Role string `json:"role,omitempty"`
	// OwnerPlan is the plan of the owner; project-wide quotas and features follow it.
	OwnerPlan  string `json:"-"`
	OwnerEmail string `json:"-"`
}

type TeamMember struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	InvitedBy string    `json:"invited_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Invitation is a pending TeamMember as seen by the invited user.
type Invitation struct {
	TeamMember
	ProjectName string `json:"project_name"`
	InviterName string `json:"inviter_name"`
}

// Access is the outcome of resolving a user's rights on a project.
type Access struct {
	Project Project
	Role    string
}

func (a Access) IsOwner() bool { return a.Role == RoleOwner }

// Can reports whether the resolved role is in roles; an empty list allows any role.
func (a Access) Can(roles ...string) bool {
	return a.Role == RoleOwner || len(roles) == 0 || core.StringInSlice(a.Role, roles)
}

type NewProject struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=5000"`
	Industry    string `json:"industry" validate:"max=120"`
	Stage       string `json:"stage" validate:"omitempty,stage"`
}

func (np *NewProject) Validate(validate *validator.Validate) error {
	np.Name = core.CleanString(np.Name)
	np.Description = core.CleanString(np.Description)
	np.Industry = core.CleanString(np.Industry)
	if np.Stage == "" {
		np.Stage = StageIdea
	}
	return validate.Struct(np)
}

type UpdateProject struct {
	Name        string  `json:"name" validate:"max=120"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Industry    *string `json:"industry" validate:"omitempty,max=120"`
	Stage       string  `json:"stage" validate:"omitempty,stage"`
}

func (up *UpdateProject) Validate(validate *validator.Validate) error {
	up.Name = core.CleanString(up.Name)
	return validate.Struct(up)
}

func (up UpdateProject) apply(p Project) Project {
	if up.Name != "" {
		p.Name = up.Name
	}
	if up.Description != nil {
		p.Description = core.CleanString(*up.Description)
	}
	if up.Industry != nil {
		p.Industry = core.CleanString(*up.Industry)
	}
	if up.Stage != "" {
		p.Stage = up.Stage
	}
	return p
}

type NewTeamMember struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,teamrole"`
}

func (nm *NewTeamMember) Validate(validate *validator.Validate) error {
	nm.Email = core.CleanString(nm.Email, true /* lower */)
	if nm.Role == "" {
		nm.Role = RoleMember
	}
	return validate.Struct(nm)
}

type UpdateTeamMember struct {
	Role string `json:"role" validate:"required,teamrole"`
}

func (um *UpdateTeamMember) Validate(validate *validator.Validate) error {
	return validate.Struct(um)
}
