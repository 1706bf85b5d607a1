package billing

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/plan"
	"github.com/startuplab/backend/core/user"
)

var (
	// errors
	ErrNotFound             = core.NewNotFoundError("paiement introuvable")
	ErrNoSubscription       = core.NewNotFoundError("aucun abonnement actif")
	ErrCardUnavailable      = errors.New("le paiement par carte n'est pas disponible")
	ErrUnknownCheckout      = core.NewNotFoundError("session de paiement inconnue")
	ErrInvalidWebhook       = errors.New("notification de paiement invalide")
	ErrAlreadyReviewed      = core.NewValidationError(nil, core.FieldError{Field: "status", Error: "ce paiement a déjà été traité"})
	checkoutApprovedMessage = "Paiement par carte confirmé."
)

type (
	Repository interface {
		CreatePayment(ctx context.Context, p Payment, exec ...core.DBExecutor) (Payment, error)
		// GetPayment returns the payment along with the name and email of its user.
		GetPayment(ctx context.Context, id string, exec ...core.DBExecutor) (Payment, error)
		GetPaymentBySession(ctx context.Context, sessionID string, exec ...core.DBExecutor) (Payment, error)
		QueryPayments(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]Payment, error)
		UpdatePayment(ctx context.Context, p Payment, exec ...core.DBExecutor) (Payment, error)
		// ReviewPayment saves the review of p only if the stored payment is still pending;
		// it returns ErrAlreadyReviewed otherwise.
		ReviewPayment(ctx context.Context, p Payment, exec ...core.DBExecutor) (Payment, error)
		CountPayments(ctx context.Context, status string, exec ...core.DBExecutor) (int, error)
		// Revenue returns the sum of the approved payments, in cents.
		Revenue(ctx context.Context, exec ...core.DBExecutor) (int64, error)

		CreateSubscription(ctx context.Context, s Subscription, exec ...core.DBExecutor) (Subscription, error)
		// GetActiveSubscription returns the latest active subscription of the user.
		GetActiveSubscription(ctx context.Context, userID string, exec ...core.DBExecutor) (Subscription, error)
		UpdateSubscription(ctx context.Context, s Subscription, exec ...core.DBExecutor) (Subscription, error)
	}

	// PlanWriter changes the plan of a user.
	PlanWriter interface {
		SetUserPlan(ctx context.Context, id, planID string, exec ...core.DBExecutor) error
	}

	// CheckoutProvider creates card payment sessions and verifies their notifications.
	CheckoutProvider interface {
		CreateCheckout(ctx context.Context, p Payment, email string) (sessionID, url string, err error)
		ParseWebhook(payload []byte, signature string) (CheckoutEvent, error)
	}

	Service struct {
		db       core.DB
		repo     Repository
		users    PlanWriter
		checkout CheckoutProvider
		mailSvc  core.EmailService
	}
)

// NewService returns the billing service; checkout may be nil when card payments are not configured.
func NewService(db core.DB, repo Repository, users PlanWriter, checkout CheckoutProvider, mailSvc core.EmailService) *Service {
	return &Service{db: db, repo: repo, users: users, checkout: checkout, mailSvc: mailSvc}
}

// Create records a pending payment for a plan upgrade.
// Card payments get a checkout session the user is redirected to.
func (svc *Service) Create(ctx context.Context, usr user.User, np NewPayment) (Payment, error) {
	if np.Method == MethodCard && svc.checkout == nil {
		return Payment{}, ErrCardUnavailable
	}

	pl := plan.Get(np.Plan)
	p, err := svc.repo.CreatePayment(ctx, Payment{
		UserID:    usr.ID,
		Plan:      pl.ID,
		Amount:    int64(pl.Price),
		Currency:  pl.Currency,
		Method:    np.Method,
		Reference: np.Reference,
		Status:    PaymentPending,
		CreatedAt: core.Now(),
	})
	if err != nil {
		return Payment{}, err
	}
	if np.Method != MethodCard {
		return p, nil
	}

	sessionID, url, err := svc.checkout.CreateCheckout(ctx, p, usr.Email)
	if err != nil {
		return Payment{}, errors.Wrap(err, "creating checkout session")
	}
	p.StripeSessionID = sessionID
	p.Reference = sessionID
	if p, err = svc.repo.UpdatePayment(ctx, p); err != nil {
		return Payment{}, err
	}
	p.CheckoutURL = url
	return p, nil
}

func (svc *Service) List(ctx context.Context, usr user.User) ([]Payment, error) {
	return svc.repo.QueryPayments(ctx, &QueryFilter{UserID: usr.ID})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Payment, error) {
	return svc.repo.QueryPayments(ctx, filter)
}

func (svc *Service) Get(ctx context.Context, id string) (Payment, error) {
	return svc.repo.GetPayment(ctx, id)
}

// Approve marks the payment approved, starts a subscription to its plan and upgrades the user, atomically.
func (svc *Service) Approve(ctx context.Context, admin user.User, p Payment, r Review) (Payment, error) {
	p, err := svc.approve(ctx, p, admin.ID, r.Note)
	if err != nil {
		return Payment{}, err
	}
	svc.sendReviewMail(p)
	return p, nil
}

func (svc *Service) approve(ctx context.Context, p Payment, reviewerID, note string) (Payment, error) {
	if p.Status != PaymentPending {
		return Payment{}, ErrAlreadyReviewed
	}

	now := core.Now()
	err := core.Transact(ctx, svc.db, func(tx core.DBExecutor) error {
		p.Status = PaymentApproved
		p.Note = note
		p.ReviewedBy = reviewerID
		p.ReviewedAt = &now
		var err error
		if p, err = svc.repo.ReviewPayment(ctx, p, tx); err != nil {
			return err
		}

		if err = svc.endActiveSubscription(ctx, p.UserID, SubscriptionCancelled, now, tx); err != nil {
			return err
		}
		expires := now.Add(SubscriptionPeriod)
		if _, err = svc.repo.CreateSubscription(ctx, Subscription{
			UserID:    p.UserID,
			Plan:      p.Plan,
			Status:    SubscriptionActive,
			PaymentID: p.ID,
			StartedAt: now,
			ExpiresAt: &expires,
		}, tx); err != nil {
			return errors.Wrap(err, "creating subscription")
		}
		return errors.Wrap(svc.users.SetUserPlan(ctx, p.UserID, p.Plan, tx), "setting user plan")
	})
	if err != nil {
		return Payment{}, err
	}
	return p, nil
}

func (svc *Service) Reject(ctx context.Context, admin user.User, p Payment, r Review) (Payment, error) {
	if p.Status != PaymentPending {
		return Payment{}, ErrAlreadyReviewed
	}

	now := core.Now()
	p.Status = PaymentRejected
	p.Note = r.Note
	p.ReviewedBy = admin.ID
	p.ReviewedAt = &now
	p, err := svc.repo.ReviewPayment(ctx, p)
	if err != nil {
		return Payment{}, err
	}
	svc.sendReviewMail(p)
	return p, nil
}

func (svc *Service) sendReviewMail(p Payment) {
	if p.UserEmail == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: p.UserName, Address: p.UserEmail}},
		Subject:      "Votre paiement a été examiné",
		TemplateName: "payment_reviewed",
		TemplateData: map[string]interface{}{
			"Name":      p.UserName,
			"Approved":  p.Status == PaymentApproved,
			"PlanName":  plan.Get(p.Plan).Name,
			"Note":      p.Note,
			"Reference": p.Reference,
		},
	})
}

// CompleteCheckout approves the payment of a paid checkout session.
// Notifications for sessions already handled are ignored.
func (svc *Service) CompleteCheckout(ctx context.Context, payload []byte, signature string) error {
	if svc.checkout == nil {
		return ErrCardUnavailable
	}
	ev, err := svc.checkout.ParseWebhook(payload, signature)
	if err != nil {
		return err
	}
	if !ev.Paid {
		return nil
	}

	p, err := svc.repo.GetPaymentBySession(ctx, ev.SessionID)
	if err != nil {
		if core.IsNotFound(err) {
			return ErrUnknownCheckout
		}
		return err
	}
	if p.Status != PaymentPending {
		return nil
	}
	if p, err = svc.approve(ctx, p, "", checkoutApprovedMessage); err != nil {
		// a concurrent delivery of the same notification won
		if errors.Cause(err) == ErrAlreadyReviewed {
			return nil
		}
		return err
	}
	svc.sendReviewMail(p)
	return nil
}

// endActiveSubscription closes the active subscription of the user, if any, with status.
func (svc *Service) endActiveSubscription(ctx context.Context, userID, status string, at time.Time, exec core.DBExecutor) error {
	s, err := svc.repo.GetActiveSubscription(ctx, userID, exec)
	if err != nil {
		if core.IsNotFound(err) {
			return nil
		}
		return err
	}
	s.Status = status
	if status == SubscriptionCancelled {
		s.CancelledAt = &at
	}
	_, err = svc.repo.UpdateSubscription(ctx, s, exec)
	return errors.Wrap(err, "ending subscription")
}

// Current returns the active subscription of the user.
// An expired subscription is closed and the user is moved back to the free plan.
func (svc *Service) Current(ctx context.Context, usr user.User) (Subscription, error) {
	s, err := svc.repo.GetActiveSubscription(ctx, usr.ID)
	if err != nil {
		if core.IsNotFound(err) {
			return Subscription{}, ErrNoSubscription
		}
		return Subscription{}, err
	}
	if s.Expired(core.Now()) {
		if err = svc.expire(ctx, usr.ID); err != nil {
			return Subscription{}, err
		}
		return Subscription{}, ErrNoSubscription
	}
	return s, nil
}

func (svc *Service) expire(ctx context.Context, userID string) error {
	err := core.Transact(ctx, svc.db, func(tx core.DBExecutor) error {
		if err := svc.endActiveSubscription(ctx, userID, SubscriptionExpired, core.Now(), tx); err != nil {
			return err
		}
		return svc.users.SetUserPlan(ctx, userID, plan.Free, tx)
	})
	return errors.Wrap(err, "expiring subscription")
}

// Refresh returns usr with its plan reset to free if its subscription has expired.
// Plans granted without a subscription are left untouched.
func (svc *Service) Refresh(ctx context.Context, usr user.User) (user.User, error) {
	if usr.Plan == plan.Free {
		return usr, nil
	}
	s, err := svc.repo.GetActiveSubscription(ctx, usr.ID)
	if err != nil {
		if core.IsNotFound(err) {
			return usr, nil
		}
		return usr, err
	}
	if s.Expired(core.Now()) {
		if err = svc.expire(ctx, usr.ID); err != nil {
			return usr, err
		}
		usr.Plan = plan.Free
	}
	return usr, nil
}

// Revoke closes the active subscription of the user and leaves their plan as is.
// It is used when an admin sets the plan, so that the expiry of the old subscription does not override it.
func (svc *Service) Revoke(ctx context.Context, userID string) error {
	return svc.endActiveSubscription(ctx, userID, SubscriptionCancelled, core.Now(), svc.db)
}

// Cancel ends the active subscription of the user and moves them back to the free plan.
func (svc *Service) Cancel(ctx context.Context, usr user.User) error {
	if _, err := svc.Current(ctx, usr); err != nil {
		return err
	}
	return core.Transact(ctx, svc.db, func(tx core.DBExecutor) error {
		if err := svc.endActiveSubscription(ctx, usr.ID, SubscriptionCancelled, core.Now(), tx); err != nil {
			return err
		}
		return errors.Wrap(svc.users.SetUserPlan(ctx, usr.ID, plan.Free, tx), "setting user plan")
	})
}

func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	pending, err := svc.repo.CountPayments(ctx, PaymentPending)
	if err != nil {
		return Stats{}, errors.Wrap(err, "counting pending payments")
	}
	revenue, err := svc.repo.Revenue(ctx)
	if err != nil {
		return Stats{}, errors.Wrap(err, "computing revenue")
	}
	return Stats{PendingPayments: pending, Revenue: revenue}, nil
}
