package branding

import (
	"context"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/plan"
)

var (
	ErrNotFound = core.NewNotFoundError("identité de marque introuvable")

	logoStyleTag  = "logostyle"
	logoStyleText = "style de logo inconnu"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(logoStyleTag, func(fl validator.FieldLevel) bool {
		_, ok := logoStyleLevel(fl.Field().String())
		return ok
	})
	core.RegisterCustomTranslation(validate, translator, logoStyleTag, logoStyleText)
}

type (
	Repository interface {
		// GetBranding returns a not found error if the project has no branding yet.
		GetBranding(ctx context.Context, projectID string, exec ...core.DBExecutor) (Branding, error)
		SaveBranding(ctx context.Context, b Branding, exec ...core.DBExecutor) (Branding, error)
	}

	Service struct {
		repo Repository
		gen  *Generator
	}
)

func NewService(repo Repository, gen *Generator) *Service {
	return &Service{repo: repo, gen: gen}
}

// Get returns the branding of the project, empty if it was never saved.
func (svc *Service) Get(ctx context.Context, projectID string) (Branding, error) {
	b, err := svc.repo.GetBranding(ctx, projectID)
	if err != nil {
		if core.IsNotFound(err) {
			return Branding{ProjectID: projectID}, nil
		}
		return Branding{}, err
	}
	return b, nil
}

// Save stores the branding of the project.
// A secondary color and a custom font need the advanced branding level; logo styles have their own level.
func (svc *Service) Save(ctx context.Context, projectID, ownerPlan string, b Branding) (Branding, error) {
	if b.SecondaryColor != "" || b.Font != "" {
		if err := plan.RequireBranding(ownerPlan, plan.BrandingAdvanced); err != nil {
			return Branding{}, err
		}
	}
	if err := requireLogoStyle(ownerPlan, b.LogoStyle); err != nil {
		return Branding{}, err
	}

	b.ProjectID = projectID
	b.UpdatedAt = core.Now()
	return svc.repo.SaveBranding(ctx, b)
}

func requireLogoStyle(planID, style string) error {
	if style == "" {
		return nil
	}
	level, _ := logoStyleLevel(style)
	return plan.RequireBranding(planID, level)
}

func (svc *Service) SuggestNames(planID string, req NameRequest) []string {
	return svc.gen.Names(req, suggestionCount(planID))
}

func (svc *Service) SuggestSlogans(planID string, req SloganRequest) []string {
	return svc.gen.Slogans(req, suggestionCount(planID))
}

func (svc *Service) SuggestLogos(planID, industry string, req LogoRequest) ([]LogoSuggestion, error) {
	if err := requireLogoStyle(planID, req.Style); err != nil {
		return nil, err
	}
	return svc.gen.Logos(req, industry, LogoStyles(planID), suggestionCount(planID)), nil
}
