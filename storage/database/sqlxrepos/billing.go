package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/billing"
)

const (
	paymentColumns = `id, user_id, plan, amount, currency, method, reference, status, stripe_session_id, note,
	reviewed_by, reviewed_at, created_at`
	paymentSelect = `SELECT p.id, p.user_id, p.plan, p.amount, p.currency, p.method, p.reference, p.status,
		p.stripe_session_id, p.note, p.reviewed_by, p.reviewed_at, p.created_at, u.name AS user_name, u.email AS user_email
	FROM payments p JOIN users u ON u.id = p.user_id`

	subscriptionColumns = "id, user_id, plan, status, payment_id, started_at, expires_at, cancelled_at"
)

type paymentRow struct {
	ID              string      `db:"id"`
	UserID          string      `db:"user_id"`
	Plan            string      `db:"plan"`
	Amount          int64       `db:"amount"`
	Currency        string      `db:"currency"`
	Method          string      `db:"method"`
	Reference       string      `db:"reference"`
	Status          string      `db:"status"`
	StripeSessionID null.String `db:"stripe_session_id"`
	Note            string      `db:"note"`
	ReviewedBy      null.String `db:"reviewed_by"`
	ReviewedAt      null.Time   `db:"reviewed_at"`
	CreatedAt       time.Time   `db:"created_at"`
	UserName        string      `db:"user_name"`
	UserEmail       string      `db:"user_email"`
}

type subscriptionRow struct {
	ID          string      `db:"id"`
	UserID      string      `db:"user_id"`
	Plan        string      `db:"plan"`
	Status      string      `db:"status"`
	PaymentID   null.String `db:"payment_id"`
	StartedAt   time.Time   `db:"started_at"`
	ExpiresAt   null.Time   `db:"expires_at"`
	CancelledAt null.Time   `db:"cancelled_at"`
}

type billingRepository struct {
	repository
}

var _ billing.Repository = (*billingRepository)(nil) // interface compliance check

func NewBillingRepository(db core.DBExecutor) *billingRepository {
	return &billingRepository{repository{db: db}}
}

func nullTimePtr(t *time.Time) null.Time {
	if t == nil {
		return null.Time{}
	}
	return null.TimeFrom(t.UTC())
}

func (repo billingRepository) paymentToRow(p billing.Payment) paymentRow {
	return paymentRow{
		ID:              p.ID,
		UserID:          p.UserID,
		Plan:            p.Plan,
		Amount:          p.Amount,
		Currency:        p.Currency,
		Method:          p.Method,
		Reference:       p.Reference,
		Status:          p.Status,
		StripeSessionID: null.NewString(p.StripeSessionID, p.StripeSessionID != ""),
		Note:            p.Note,
		ReviewedBy:      null.NewString(p.ReviewedBy, p.ReviewedBy != ""),
		ReviewedAt:      nullTimePtr(p.ReviewedAt),
		CreatedAt:       p.CreatedAt.UTC(),
	}
}

func (repo billingRepository) paymentFromRow(row paymentRow) billing.Payment {
	return billing.Payment{
		ID:              row.ID,
		UserID:          row.UserID,
		UserName:        row.UserName,
		UserEmail:       row.UserEmail,
		Plan:            row.Plan,
		Amount:          row.Amount,
		Currency:        row.Currency,
		Method:          row.Method,
		Reference:       row.Reference,
		Status:          row.Status,
		StripeSessionID: row.StripeSessionID.String,
		Note:            row.Note,
		ReviewedBy:      row.ReviewedBy.String,
		ReviewedAt:      row.ReviewedAt.Ptr(),
		CreatedAt:       row.CreatedAt,
	}
}

func (repo billingRepository) CreatePayment(ctx context.Context, p billing.Payment, exec ...core.DBExecutor) (billing.Payment, error) {
	p.ID = uuid.NewString()
	_, err := namedExec(ctx, repo.getExec(exec), `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES (:id, :user_id, :plan, :amount, :currency, :method, :reference, :status, :stripe_session_id, :note,
			:reviewed_by, :reviewed_at, :created_at)`, repo.paymentToRow(p))
	if err != nil {
		return billing.Payment{}, errors.Wrap(err, "inserting payment")
	}
	return p, nil
}

func (repo billingRepository) GetPayment(ctx context.Context, id string, exec ...core.DBExecutor) (billing.Payment, error) {
	var row paymentRow
	if err := repo.getExec(exec).GetContext(ctx, &row, paymentSelect+" WHERE p.id = ?", id); err != nil {
		return billing.Payment{}, trapNoRowsErr(err, billing.ErrNotFound, "finding payment")
	}
	return repo.paymentFromRow(row), nil
}

func (repo billingRepository) GetPaymentBySession(ctx context.Context, sessionID string, exec ...core.DBExecutor) (billing.Payment, error) {
	var row paymentRow
	if err := repo.getExec(exec).GetContext(ctx, &row, paymentSelect+" WHERE p.stripe_session_id = ?", sessionID); err != nil {
		return billing.Payment{}, trapNoRowsErr(err, billing.ErrNotFound, "finding payment by session")
	}
	return repo.paymentFromRow(row), nil
}

func (repo billingRepository) QueryPayments(ctx context.Context, filter *billing.QueryFilter, exec ...core.DBExecutor) ([]billing.Payment, error) {
	var conds []string
	var args []interface{}
	if filter != nil {
		if filter.UserID != "" {
			conds = append(conds, "p.user_id = ?")
			args = append(args, filter.UserID)
		}
		if filter.Status != "" {
			conds = append(conds, "p.status = ?")
			args = append(args, filter.Status)
		}
	}

	var rows []paymentRow
	query := paymentSelect + where(conds) + " ORDER BY p.created_at DESC"
	if err := repo.getExec(exec).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}

	payments := make([]billing.Payment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, repo.paymentFromRow(row))
	}
	return payments, nil
}

func (repo billingRepository) UpdatePayment(ctx context.Context, p billing.Payment, exec ...core.DBExecutor) (billing.Payment, error) {
	res, err := namedExec(ctx, repo.getExec(exec), `
		UPDATE payments SET
			reference = :reference, status = :status, stripe_session_id = :stripe_session_id, note = :note,
			reviewed_by = :reviewed_by, reviewed_at = :reviewed_at
		WHERE id = :id`, repo.paymentToRow(p))
	if err != nil {
		return billing.Payment{}, errors.Wrap(err, "updating payment")
	}
	if err = mustAffect(res, billing.ErrNotFound); err != nil {
		return billing.Payment{}, err
	}
	return p, nil
}

func (repo billingRepository) ReviewPayment(ctx context.Context, p billing.Payment, exec ...core.DBExecutor) (billing.Payment, error) {
	exe := repo.getExec(exec)
	res, err := namedExec(ctx, exe, `
		UPDATE payments SET status = :status, note = :note, reviewed_by = :reviewed_by, reviewed_at = :reviewed_at
		WHERE id = :id AND status = '`+billing.PaymentPending+`'`, repo.paymentToRow(p))
	if err != nil {
		return billing.Payment{}, errors.Wrap(err, "reviewing payment")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return billing.Payment{}, errors.Wrap(err, "reviewing payment")
	}
	if n == 0 {
		// either gone or reviewed in the meantime
		if _, err = repo.GetPayment(ctx, p.ID, exe); err != nil {
			return billing.Payment{}, err
		}
		return billing.Payment{}, billing.ErrAlreadyReviewed
	}
	return p, nil
}

func (repo billingRepository) CountPayments(ctx context.Context, status string, exec ...core.DBExecutor) (int, error) {
	if status == "" {
		return count(ctx, repo.getExec(exec), "SELECT COUNT(*) FROM payments")
	}
	return count(ctx, repo.getExec(exec), "SELECT COUNT(*) FROM payments WHERE status = ?", status)
}

func (repo billingRepository) Revenue(ctx context.Context, exec ...core.DBExecutor) (int64, error) {
	var total int64
	err := repo.getExec(exec).GetContext(ctx, &total,
		"SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = ?", billing.PaymentApproved)
	if err != nil {
		return 0, errors.Wrap(err, "summing payments")
	}
	return total, nil
}

func (repo billingRepository) subscriptionToRow(s billing.Subscription) subscriptionRow {
	return subscriptionRow{
		ID:          s.ID,
		UserID:      s.UserID,
		Plan:        s.Plan,
		Status:      s.Status,
		PaymentID:   null.NewString(s.PaymentID, s.PaymentID != ""),
		StartedAt:   s.StartedAt.UTC(),
		ExpiresAt:   nullTimePtr(s.ExpiresAt),
		CancelledAt: nullTimePtr(s.CancelledAt),
	}
}

func (repo billingRepository) subscriptionFromRow(row subscriptionRow) billing.Subscription {
	return billing.Subscription{
		ID:          row.ID,
		UserID:      row.UserID,
		Plan:        row.Plan,
		Status:      row.Status,
		PaymentID:   row.PaymentID.String,
		StartedAt:   row.StartedAt,
		ExpiresAt:   row.ExpiresAt.Ptr(),
		CancelledAt: row.CancelledAt.Ptr(),
	}
}

func (repo billingRepository) CreateSubscription(ctx context.Context, s billing.Subscription, exec ...core.DBExecutor) (billing.Subscription, error) {
	s.ID = uuid.NewString()
	_, err := namedExec(ctx, repo.getExec(exec), `
		INSERT INTO subscriptions (`+subscriptionColumns+`)
		VALUES (:id, :user_id, :plan, :status, :payment_id, :started_at, :expires_at, :cancelled_at)`,
		repo.subscriptionToRow(s))
	if err != nil {
		return billing.Subscription{}, errors.Wrap(err, "inserting subscription")
	}
	return s, nil
}

func (repo billingRepository) GetActiveSubscription(ctx context.Context, userID string, exec ...core.DBExecutor) (billing.Subscription, error) {
	var row subscriptionRow
	err := repo.getExec(exec).GetContext(ctx, &row, `
		SELECT `+subscriptionColumns+` FROM subscriptions
		WHERE user_id = ? AND status = ?
		ORDER BY started_at DESC LIMIT 1`, userID, billing.SubscriptionActive)
	if err != nil {
		return billing.Subscription{}, trapNoRowsErr(err, billing.ErrNoSubscription, "finding active subscription")
	}
	return repo.subscriptionFromRow(row), nil
}

func (repo billingRepository) UpdateSubscription(ctx context.Context, s billing.Subscription, exec ...core.DBExecutor) (billing.Subscription, error) {
	res, err := namedExec(ctx, repo.getExec(exec), `
		UPDATE subscriptions SET status = :status, expires_at = :expires_at, cancelled_at = :cancelled_at
		WHERE id = :id`, repo.subscriptionToRow(s))
	if err != nil {
		return billing.Subscription{}, errors.Wrap(err, "updating subscription")
	}
	if err = mustAffect(res, billing.ErrNoSubscription); err != nil {
		return billing.Subscription{}, err
	}
	return s, nil
}
