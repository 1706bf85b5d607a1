// Package canvas manages the business model canvas of a project.
package canvas

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/startuplab/backend/core"
)

var ErrNotFound = core.NewNotFoundError("business model introuvable")

// BusinessModel holds the nine blocks of the canvas.
type BusinessModel struct {
	ProjectID             string    `json:"project_id"`
	KeyPartners           string    `json:"key_partners" validate:"max=5000"`
	KeyActivities         string    `json:"key_activities" validate:"max=5000"`
	KeyResources          string    `json:"key_resources" validate:"max=5000"`
	ValuePropositions     string    `json:"value_propositions" validate:"max=5000"`
	CustomerRelationships string    `json:"customer_relationships" validate:"max=5000"`
	Channels              string    `json:"channels" validate:"max=5000"`
	CustomerSegments      string    `json:"customer_segments" validate:"max=5000"`
	CostStructure         string    `json:"cost_structure" validate:"max=5000"`
	RevenueStreams        string    `json:"revenue_streams" validate:"max=5000"`
	UpdatedAt             time.Time `json:"updated_at"`
}

func (bm *BusinessModel) Validate(validate *validator.Validate) error {
	for _, f := range bm.blocks() {
		*f = core.CleanString(*f)
	}
	return validate.Struct(bm)
}

func (bm *BusinessModel) blocks() []*string {
	return []*string{
		&bm.KeyPartners, &bm.KeyActivities, &bm.KeyResources, &bm.ValuePropositions,
		&bm.CustomerRelationships, &bm.Channels, &bm.CustomerSegments, &bm.CostStructure, &bm.RevenueStreams,
	}
}

// Completion returns the number of non-empty blocks.
func (bm BusinessModel) Completion() int {
	n := 0
	for _, f := range bm.blocks() {
		if *f != "" {
			n++
		}
	}
	return n
}

type (
	Repository interface {
		// GetBusinessModel returns a not found error if the project has no canvas yet.
		GetBusinessModel(ctx context.Context, projectID string, exec ...core.DBExecutor) (BusinessModel, error)
		SaveBusinessModel(ctx context.Context, bm BusinessModel, exec ...core.DBExecutor) (BusinessModel, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the canvas of the project, empty if it was never saved.
func (svc *Service) Get(ctx context.Context, projectID string) (BusinessModel, error) {
	bm, err := svc.repo.GetBusinessModel(ctx, projectID)
	if err != nil {
		if core.IsNotFound(err) {
			return BusinessModel{ProjectID: projectID}, nil
		}
		return BusinessModel{}, err
	}
	return bm, nil
}

func (svc *Service) Save(ctx context.Context, projectID string, bm BusinessModel) (BusinessModel, error) {
	bm.ProjectID = projectID
	bm.UpdatedAt = core.Now()
	return svc.repo.SaveBusinessModel(ctx, bm)
}
