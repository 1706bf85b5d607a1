// Package accounting is the ledger add-on: income and expense entries and their monthly summary.
package accounting

import (
	"context"

	"github.com/pkg/errors"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/plan"
	"github.com/startuplab/backend/core/product"
	"github.com/startuplab/backend/core/user"
)

var ErrNotFound = core.NewNotFoundError("écriture introuvable")

type (
	Repository interface {
		CreateEntry(ctx context.Context, e Entry, exec ...core.DBExecutor) (Entry, error)
		// QueryEntries returns the entries of the user, most recent first.
		QueryEntries(ctx context.Context, userID string, filter *QueryFilter, exec ...core.DBExecutor) ([]Entry, error)
		GetEntry(ctx context.Context, id string, exec ...core.DBExecutor) (Entry, error)
		DeleteEntry(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	// ProductChecker tells whether a user activated a product.
	ProductChecker interface {
		HasActiveProduct(ctx context.Context, usr user.User, code string) (bool, error)
	}

	// ProjectWriter checks that a user may book entries on a project.
	ProjectWriter interface {
		CanWrite(ctx context.Context, usr user.User, projectID string) error
	}

	Service struct {
		repo     Repository
		products ProductChecker
		projects ProjectWriter
	}
)

func NewService(repo Repository, products ProductChecker, projects ProjectWriter) *Service {
	return &Service{repo: repo, products: products, projects: projects}
}

// CheckAccess allows users whose plan includes accounting or who activated the accounting product.
func (svc *Service) CheckAccess(ctx context.Context, usr user.User) error {
	if plan.HasFeature(usr.Plan, plan.FeatureAccounting) {
		return nil
	}
	ok, err := svc.products.HasActiveProduct(ctx, usr, product.CodeAccounting)
	if err != nil {
		return errors.Wrap(err, "checking accounting product")
	}
	if !ok {
		return plan.RequireFeature(usr.Plan, plan.FeatureAccounting)
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, usr user.User, ne NewEntry) (Entry, error) {
	if ne.ProjectID != "" {
		if err := svc.projects.CanWrite(ctx, usr, ne.ProjectID); err != nil {
			return Entry{}, err
		}
	}

	now := core.Now()
	occurred := now
	if ne.OccurredOn != nil {
		occurred = ne.OccurredOn.UTC()
	}
	return svc.repo.CreateEntry(ctx, Entry{
		UserID:     usr.ID,
		ProjectID:  ne.ProjectID,
		Kind:       ne.Kind,
		Category:   ne.Category,
		Label:      ne.Label,
		Amount:     ne.Amount,
		OccurredOn: occurred,
		CreatedAt:  now,
	})
}

func (svc *Service) List(ctx context.Context, usr user.User, filter *QueryFilter) ([]Entry, error) {
	return svc.repo.QueryEntries(ctx, usr.ID, filter)
}

// Get returns the entry id if it belongs to usr.
func (svc *Service) Get(ctx context.Context, usr user.User, id string) (Entry, error) {
	e, err := svc.repo.GetEntry(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if e.UserID != usr.ID {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (svc *Service) Delete(ctx context.Context, e Entry) error {
	return svc.repo.DeleteEntry(ctx, e.ID)
}

// Summary returns the monthly totals of the user for filter.Year, the current year by default.
func (svc *Service) Summary(ctx context.Context, usr user.User, filter QueryFilter) (Summary, error) {
	if filter.Year == 0 {
		filter.Year = core.Now().Year()
	}
	entries, err := svc.repo.QueryEntries(ctx, usr.ID, &filter)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(entries, filter.Year), nil
}
