package billing

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/startuplab/backend/core"
)

const (
	MethodBankTransfer = "bank_transfer"
	MethodMobileMoney  = "mobile_money"
	MethodCard         = "card"

	PaymentPending  = "pending"
	PaymentApproved = "approved"
	PaymentRejected = "rejected"

	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
	SubscriptionExpired   = "expired"

	// SubscriptionPeriod is the duration bought by an approved payment.
	SubscriptionPeriod = 30 * 24 * time.Hour
)

var (
	Methods         = []string{MethodBankTransfer, MethodMobileMoney, MethodCard}
	PaymentStatuses = []string{PaymentPending, PaymentApproved, PaymentRejected}
)

type Payment struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	UserName        string     `json:"user_name,omitempty"`
	UserEmail       string     `json:"user_email,omitempty"`
	Plan            string     `json:"plan"`
	Amount          int64      `json:"amount"`
	Currency        string     `json:"currency"`
	Method          string     `json:"method"`
	Reference       string     `json:"reference"`
	Status          string     `json:"status"`
	StripeSessionID string     `json:"-"`
	CheckoutURL     string     `json:"checkout_url,omitempty"`
	Note            string     `json:"note"`
	ReviewedBy      string     `json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// NewPayment is a request to upgrade to a paid plan.
// Manual methods need the reference of the transfer; card payments go through a checkout session.
type NewPayment struct {
	Plan      string `json:"plan" validate:"required,plan,ne=free"`
	Method    string `json:"method" validate:"required,oneof=bank_transfer mobile_money card"`
	Reference string `json:"reference" validate:"required_unless=Method card,max=120"`
}

func (np *NewPayment) Validate(validate *validator.Validate) error {
	np.Plan = core.CleanString(np.Plan, true /* lower */)
	np.Method = core.CleanString(np.Method, true /* lower */)
	np.Reference = core.CleanString(np.Reference)
	return validate.Struct(np)
}

type Review struct {
	Note string `json:"note" validate:"max=500"`
}

func (r *Review) Validate(validate *validator.Validate) error {
	r.Note = core.CleanString(r.Note)
	return validate.Struct(r)
}

type QueryFilter struct {
	UserID string `query:"user_id"`
	Status string `query:"status"`
}

func (qf *QueryFilter) Clean() {
	qf.UserID = core.CleanString(qf.UserID)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}

type Subscription struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Plan        string     `json:"plan"`
	Status      string     `json:"status"`
	PaymentID   string     `json:"payment_id,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// Expired reports whether an active subscription went past its expiry date.
func (s Subscription) Expired(now time.Time) bool {
	return s.Status == SubscriptionActive && s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// CheckoutEvent is a verified card payment notification.
type CheckoutEvent struct {
	SessionID string
	Paid      bool
}

// Stats summarises billing activity for the admin dashboard.
type Stats struct {
	PendingPayments int   `json:"pending_payments"`
	Revenue         int64 `json:"revenue"`
}
