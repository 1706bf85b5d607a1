package product

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/startuplab/backend/core"
)

const (
	// CodeAccounting unlocks the accounting module.
	CodeAccounting = "accounting"

	StatusPending  = "pending"
	StatusActive   = "active"
	StatusRejected = "rejected"
)

type Product struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"` // cents
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type NewProduct struct {
	Code        string `json:"code" validate:"required,max=40,slug"`
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Price       int64  `json:"price" validate:"gte=0"`
	IsActive    *bool  `json:"is_active"`
}

func (np *NewProduct) Validate(validate *validator.Validate) error {
	np.Code = core.CleanString(np.Code, true /* lower */)
	np.Name = core.CleanString(np.Name)
	np.Description = core.CleanString(np.Description)
	return validate.Struct(np)
}

type UpdateProduct struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	Price       int64  `json:"price" validate:"gte=0"`
	IsActive    *bool  `json:"is_active"`
}

func (up *UpdateProduct) Validate(validate *validator.Validate) error {
	up.Name = core.CleanString(up.Name)
	up.Description = core.CleanString(up.Description)
	return validate.Struct(up)
}

// UserProduct is the request of a user to activate a product.
type UserProduct struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	UserName    string     `json:"user_name,omitempty"`
	UserEmail   string     `json:"user_email,omitempty"`
	ProductID   string     `json:"product_id"`
	ProductCode string     `json:"product_code"`
	ProductName string     `json:"product_name"`
	Status      string     `json:"status"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type QueryFilter struct {
	UserID string `query:"user_id"`
	Status string `query:"status"`
}

func (qf *QueryFilter) Clean() {
	qf.UserID = core.CleanString(qf.UserID)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
