package idea

import (
	"context"

	"github.com/pkg/errors"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/plan"
	"github.com/startuplab/backend/core/user"
)

var ErrNotFound = core.NewNotFoundError("idée introuvable")

type (
	Repository interface {
		CreateIdea(ctx context.Context, i Idea, exec ...core.DBExecutor) (Idea, error)
		QueryIdeas(ctx context.Context, userID string, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Idea, error)
		GetIdea(ctx context.Context, id string, exec ...core.DBExecutor) (Idea, error)
		CountIdeas(ctx context.Context, userID string, exec ...core.DBExecutor) (int, error)
		UpdateIdea(ctx context.Context, i Idea, exec ...core.DBExecutor) (Idea, error)
		DeleteIdea(ctx context.Context, id string, exec ...core.DBExecutor) error
	}

	// ProjectWriter checks that a user may attach ideas to a project.
	ProjectWriter interface {
		CanWrite(ctx context.Context, usr user.User, projectID string) error
	}

	Service struct {
		repo     Repository
		projects ProjectWriter
		gen      *Generator
	}
)

func NewService(repo Repository, projects ProjectWriter, gen *Generator) *Service {
	return &Service{repo: repo, projects: projects, gen: gen}
}

func (svc *Service) checkProject(ctx context.Context, usr user.User, projectID string) error {
	if projectID == "" || svc.projects == nil {
		return nil
	}
	return svc.projects.CanWrite(ctx, usr, projectID)
}

func (svc *Service) Create(ctx context.Context, usr user.User, ni NewIdea) (Idea, error) {
	count, err := svc.repo.CountIdeas(ctx, usr.ID)
	if err != nil {
		return Idea{}, errors.Wrap(err, "counting ideas")
	}
	if err = plan.CheckIdeaLimit(usr.Plan, count); err != nil {
		return Idea{}, err
	}
	if err = svc.checkProject(ctx, usr, ni.ProjectID); err != nil {
		return Idea{}, err
	}

	now := core.Now()
	return svc.repo.CreateIdea(ctx, Idea{
		UserID:       usr.ID,
		ProjectID:    ni.ProjectID,
		Title:        ni.Title,
		Description:  ni.Description,
		Industry:     ni.Industry,
		TargetMarket: ni.TargetMarket,
		Problem:      ni.Problem,
		Solution:     ni.Solution,
		IsFavorite:   ni.IsFavorite,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (svc *Service) List(ctx context.Context, usr user.User, filter *QueryFilter, ordering []core.DBOrdering) ([]Idea, error) {
	return svc.repo.QueryIdeas(ctx, usr.ID, filter, ordering)
}

// Get returns the idea id if it belongs to usr.
func (svc *Service) Get(ctx context.Context, usr user.User, id string) (Idea, error) {
	i, err := svc.repo.GetIdea(ctx, id)
	if err != nil {
		return Idea{}, err
	}
	if i.UserID != usr.ID {
		return Idea{}, ErrNotFound
	}
	return i, nil
}

func (svc *Service) Update(ctx context.Context, usr user.User, i Idea, ui UpdateIdea) (Idea, error) {
	if ui.ProjectID != i.ProjectID {
		if err := svc.checkProject(ctx, usr, ui.ProjectID); err != nil {
			return Idea{}, err
		}
	}
	i.ProjectID = ui.ProjectID
	i.Title = ui.Title
	i.Description = ui.Description
	i.Industry = ui.Industry
	i.TargetMarket = ui.TargetMarket
	i.Problem = ui.Problem
	i.Solution = ui.Solution
	i.IsFavorite = ui.IsFavorite
	i.UpdatedAt = core.Now()
	return svc.repo.UpdateIdea(ctx, i)
}

func (svc *Service) ToggleFavorite(ctx context.Context, i Idea) (Idea, error) {
	i.IsFavorite = !i.IsFavorite
	i.UpdatedAt = core.Now()
	return svc.repo.UpdateIdea(ctx, i)
}

func (svc *Service) Delete(ctx context.Context, i Idea) error {
	return svc.repo.DeleteIdea(ctx, i.ID)
}

func (svc *Service) Generate(req GenerateRequest) []Suggestion {
	return svc.gen.Generate(req.Industry, req.Count)
}
