package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/plan"
)

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var AllRoles = []string{RoleUser, RoleAdmin}

type User struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Role           string     `json:"role"`
	Plan           string     `json:"plan"`
	IsActive       bool       `json:"is_active"`
	GoogleID       string     `json:"-"`
	FaceDescriptor Descriptor `json:"-"`
	HasFaceLogin   bool       `json:"has_face_login"`
	PasswordHash   []byte     `json:"-"`
	CreatedAt      time.Time  `json:"created_at"`           // UTC
	UpdatedAt      time.Time  `json:"updated_at"`           // UTC
	LastLogin      time.Time  `json:"last_login,omitempty"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	if len(u.PasswordHash) == 0 {
		return bcrypt.ErrMismatchedHashAndPassword
	}
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            string `json:"-"`
	Plan            string `json:"-"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc Service) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	if nu.Role == "" {
		nu.Role = RoleUser
	}
	if nu.Plan == "" {
		nu.Plan = plan.Free
	}

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Email)
}

// UpdateProfile defines what a User may change on their own account.
type UpdateProfile struct {
	Name            string `json:"name" validate:"max=100"`
	Email           string `json:"email" validate:"omitempty,email"`
	CurrentPassword string `json:"current_password" validate:"required_with=Password"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (up *UpdateProfile) Validate(origUsr User, validate *validator.Validate, svc Service) error {
	name := core.CleanString(up.Name)
	if name != "" {
		up.Name = name
	} else {
		up.Name = origUsr.Name
	}

	email := core.CleanString(up.Email, true /* lower */)
	if email != "" {
		up.Email = email
	} else {
		up.Email = origUsr.Email
	}

	if err := validate.Struct(up); err != nil {
		return err
	}
	if up.Password != "" && len(origUsr.PasswordHash) > 0 {
		if err := origUsr.CheckPassword(up.CurrentPassword); err != nil {
			return core.NewValidationError(nil, core.FieldError{Field: "current_password", Error: "mot de passe actuel incorrect"})
		}
	}
	return svc.CheckUniqueness(up.Email, origUsr)
}

// AdminUpdateUser defines what an admin may change on any account.
type AdminUpdateUser struct {
	Name     string `json:"name" validate:"max=100"`
	Email    string `json:"email" validate:"omitempty,email"`
	Role     string `json:"role" validate:"omitempty,oneof=user admin"`
	Plan     string `json:"plan" validate:"omitempty,plan"`
	IsActive *bool  `json:"is_active"`
}

func (au *AdminUpdateUser) Validate(origUsr User, validate *validator.Validate, svc Service) error {
	if name := core.CleanString(au.Name); name != "" {
		au.Name = name
	} else {
		au.Name = origUsr.Name
	}
	if email := core.CleanString(au.Email, true /* lower */); email != "" {
		au.Email = email
	} else {
		au.Email = origUsr.Email
	}
	if au.Role == "" {
		au.Role = origUsr.Role
	}
	if au.Plan == "" {
		au.Plan = origUsr.Plan
	}

	if err := validate.Struct(au); err != nil {
		return err
	}
	return svc.CheckUniqueness(au.Email, origUsr)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

// FaceEnrollment carries the descriptor computed by the client's face-recognition library.
type FaceEnrollment struct {
	Descriptor Descriptor `json:"descriptor" validate:"required,len=128"`
}

type QueryFilter struct {
	Search   string   `query:"search"`
	Roles    []string `query:"role"`
	Plans    []string `query:"plan"`
	IsActive *bool    `query:"is_active"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.Plans == nil && qf.IsActive == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// GetFilter selects a single user; the first non-empty field wins.
type GetFilter struct {
	ID       string
	Email    string
	GoogleID string
}
