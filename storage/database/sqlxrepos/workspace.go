package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/bizplan"
	"github.com/startuplab/backend/core/branding"
	"github.com/startuplab/backend/core/canvas"
	"github.com/startuplab/backend/core/pitch"
)

// workspaceRepository stores the one-per-project documents: canvas, branding, business plan and pitch deck.
type workspaceRepository struct {
	repository
}

var (
	_ canvas.Repository   = (*workspaceRepository)(nil) // interface compliance check
	_ branding.Repository = (*workspaceRepository)(nil)
	_ bizplan.Repository  = (*workspaceRepository)(nil)
	_ pitch.Repository    = (*workspaceRepository)(nil)
)

func NewWorkspaceRepository(db core.DBExecutor) *workspaceRepository {
	return &workspaceRepository{repository{db: db}}
}

// business model canvas

const businessModelColumns = `project_id, key_partners, key_activities, key_resources, value_propositions,
	customer_relationships, channels, customer_segments, cost_structure, revenue_streams, updated_at`

type businessModelRow struct {
	ProjectID             string    `db:"project_id"`
	KeyPartners           string    `db:"key_partners"`
	KeyActivities         string    `db:"key_activities"`
	KeyResources          string    `db:"key_resources"`
	ValuePropositions     string    `db:"value_propositions"`
	CustomerRelationships string    `db:"customer_relationships"`
	Channels              string    `db:"channels"`
	CustomerSegments      string    `db:"customer_segments"`
	CostStructure         string    `db:"cost_structure"`
	RevenueStreams        string    `db:"revenue_streams"`
	UpdatedAt             time.Time `db:"updated_at"`
}

func (repo workspaceRepository) GetBusinessModel(ctx context.Context, projectID string, exec ...core.DBExecutor) (canvas.BusinessModel, error) {
	var row businessModelRow
	err := repo.getExec(exec).GetContext(ctx, &row,
		"SELECT "+businessModelColumns+" FROM business_models WHERE project_id = ?", projectID)
	if err != nil {
		return canvas.BusinessModel{}, trapNoRowsErr(err, canvas.ErrNotFound, "finding business model")
	}
	return canvas.BusinessModel(row), nil
}

func (repo workspaceRepository) SaveBusinessModel(ctx context.Context, bm canvas.BusinessModel, exec ...core.DBExecutor) (canvas.BusinessModel, error) {
	bm.UpdatedAt = bm.UpdatedAt.UTC()
	_, err := namedExec(ctx, repo.getExec(exec), `
		INSERT INTO business_models (`+businessModelColumns+`)
		VALUES (:project_id, :key_partners, :key_activities, :key_resources, :value_propositions,
			:customer_relationships, :channels, :customer_segments, :cost_structure, :revenue_streams, :updated_at)
		ON CONFLICT (project_id) DO UPDATE SET
			key_partners = excluded.key_partners,
			key_activities = excluded.key_activities,
			key_resources = excluded.key_resources,
			value_propositions = excluded.value_propositions,
			customer_relationships = excluded.customer_relationships,
			channels = excluded.channels,
			customer_segments = excluded.customer_segments,
			cost_structure = excluded.cost_structure,
			revenue_streams = excluded.revenue_streams,
			updated_at = excluded.updated_at`, businessModelRow(bm))
	if err != nil {
		return canvas.BusinessModel{}, errors.Wrap(err, "saving business model")
	}
	return bm, nil
}

// branding

const brandingColumns = `project_id, brand_name, slogan, primary_color, secondary_color, font, logo_style,
	logo_text, brand_values, updated_at`

type brandingRow struct {
	ProjectID      string    `db:"project_id"`
	BrandName      string    `db:"brand_name"`
	Slogan         string    `db:"slogan"`
	PrimaryColor   string    `db:"primary_color"`
	SecondaryColor string    `db:"secondary_color"`
	Font           string    `db:"font"`
	LogoStyle      string    `db:"logo_style"`
	LogoText       string    `db:"logo_text"`
	BrandValues    string    `db:"brand_values"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (repo workspaceRepository) GetBranding(ctx context.Context, projectID string, exec ...core.DBExecutor) (branding.Branding, error) {
	var row brandingRow
	err := repo.getExec(exec).GetContext(ctx, &row, "SELECT "+brandingColumns+" FROM brandings WHERE project_id = ?", projectID)
	if err != nil {
		return branding.Branding{}, trapNoRowsErr(err, branding.ErrNotFound, "finding branding")
	}
	return branding.Branding(row), nil
}

func (repo workspaceRepository) SaveBranding(ctx context.Context, b branding.Branding, exec ...core.DBExecutor) (branding.Branding, error) {
	b.UpdatedAt = b.UpdatedAt.UTC()
	_, err := namedExec(ctx, repo.getExec(exec), `
		INSERT INTO brandings (`+brandingColumns+`)
		VALUES (:project_id, :brand_name, :slogan, :primary_color, :secondary_color, :font, :logo_style,
			:logo_text, :brand_values, :updated_at)
		ON CONFLICT (project_id) DO UPDATE SET
			brand_name = excluded.brand_name,
			slogan = excluded.slogan,
			primary_color = excluded.primary_color,
			secondary_color = excluded.secondary_color,
			font = excluded.font,
			logo_style = excluded.logo_style,
			logo_text = excluded.logo_text,
			brand_values = excluded.brand_values,
			updated_at = excluded.updated_at`, brandingRow(b))
	if err != nil {
		return branding.Branding{}, errors.Wrap(err, "saving branding")
	}
	return b, nil
}

// business plan

const businessPlanColumns = `project_id, executive_summary, company_description, market_analysis, organization,
	products_services, marketing_strategy, financial_projections, funding_request, pdf_path, updated_at`

type businessPlanRow struct {
	ProjectID            string      `db:"project_id"`
	ExecutiveSummary     string      `db:"executive_summary"`
	CompanyDescription   string      `db:"company_description"`
	MarketAnalysis       string      `db:"market_analysis"`
	Organization         string      `db:"organization"`
	ProductsServices     string      `db:"products_services"`
	MarketingStrategy    string      `db:"marketing_strategy"`
	FinancialProjections string      `db:"financial_projections"`
	FundingRequest       string      `db:"funding_request"`
	PDFPath              null.String `db:"pdf_path"`
	UpdatedAt            time.Time   `db:"updated_at"`
}

func (repo workspaceRepository) GetBusinessPlan(ctx context.Context, projectID string, exec ...core.DBExecutor) (bizplan.BusinessPlan, error) {
	var row businessPlanRow
	err := repo.getExec(exec).GetContext(ctx, &row,
		"SELECT "+businessPlanColumns+" FROM business_plans WHERE project_id = ?", projectID)
	if err != nil {
		return bizplan.BusinessPlan{}, trapNoRowsErr(err, bizplan.ErrNotFound, "finding business plan")
	}
	return bizplan.BusinessPlan{
		ProjectID:            row.ProjectID,
		ExecutiveSummary:     row.ExecutiveSummary,
		CompanyDescription:   row.CompanyDescription,
		MarketAnalysis:       row.MarketAnalysis,
		Organization:         row.Organization,
		ProductsServices:     row.ProductsServices,
		MarketingStrategy:    row.MarketingStrategy,
		FinancialProjections: row.FinancialProjections,
		FundingRequest:       row.FundingRequest,
		PDFPath:              row.PDFPath.String,
		UpdatedAt:            row.UpdatedAt,
	}, nil
}

func (repo workspaceRepository) SaveBusinessPlan(ctx context.Context, bp bizplan.BusinessPlan, exec ...core.DBExecutor) (bizplan.BusinessPlan, error) {
	exe := repo.getExec(exec)
	_, err := namedExec(ctx, exe, `
		INSERT INTO business_plans (`+businessPlanColumns+`)
		VALUES (:project_id, :executive_summary, :company_description, :market_analysis, :organization,
			:products_services, :marketing_strategy, :financial_projections, :funding_request, NULL, :updated_at)
		ON CONFLICT (project_id) DO UPDATE SET
			executive_summary = excluded.executive_summary,
			company_description = excluded.company_description,
			market_analysis = excluded.market_analysis,
			organization = excluded.organization,
			products_services = excluded.products_services,
			marketing_strategy = excluded.marketing_strategy,
			financial_projections = excluded.financial_projections,
			funding_request = excluded.funding_request,
			updated_at = excluded.updated_at`, businessPlanRow{
		ProjectID:            bp.ProjectID,
		ExecutiveSummary:     bp.ExecutiveSummary,
		CompanyDescription:   bp.CompanyDescription,
		MarketAnalysis:       bp.MarketAnalysis,
		Organization:         bp.Organization,
		ProductsServices:     bp.ProductsServices,
		MarketingStrategy:    bp.MarketingStrategy,
		FinancialProjections: bp.FinancialProjections,
		FundingRequest:       bp.FundingRequest,
		UpdatedAt:            bp.UpdatedAt.UTC(),
	})
	if err != nil {
		return bizplan.BusinessPlan{}, errors.Wrap(err, "saving business plan")
	}
	return repo.GetBusinessPlan(ctx, bp.ProjectID, exe)
}

func (repo workspaceRepository) SetBusinessPlanPDF(ctx context.Context, projectID, pdfPath string, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx, "UPDATE business_plans SET pdf_path = ? WHERE project_id = ?", pdfPath, projectID)
	if err != nil {
		return errors.Wrap(err, "setting business plan pdf")
	}
	return mustAffect(res, bizplan.ErrNotFound)
}

// pitch deck

const pitchDeckColumns = "project_id, title, theme, slides, pdf_path, updated_at"

type pitchDeckRow struct {
	ProjectID string       `db:"project_id"`
	Title     string       `db:"title"`
	Theme     string       `db:"theme"`
	Slides    pitch.Slides `db:"slides"`
	PDFPath   null.String  `db:"pdf_path"`
	UpdatedAt time.Time    `db:"updated_at"`
}

func (repo workspaceRepository) GetPitchDeck(ctx context.Context, projectID string, exec ...core.DBExecutor) (pitch.Deck, error) {
	var row pitchDeckRow
	err := repo.getExec(exec).GetContext(ctx, &row, "SELECT "+pitchDeckColumns+" FROM pitch_decks WHERE project_id = ?", projectID)
	if err != nil {
		return pitch.Deck{}, trapNoRowsErr(err, pitch.ErrNotFound, "finding pitch deck")
	}
	return pitch.Deck{
		ProjectID: row.ProjectID,
		Title:     row.Title,
		Theme:     row.Theme,
		Slides:    row.Slides,
		PDFPath:   row.PDFPath.String,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func (repo workspaceRepository) SavePitchDeck(ctx context.Context, d pitch.Deck, exec ...core.DBExecutor) (pitch.Deck, error) {
	exe := repo.getExec(exec)
	_, err := namedExec(ctx, exe, `
		INSERT INTO pitch_decks (`+pitchDeckColumns+`)
		VALUES (:project_id, :title, :theme, :slides, NULL, :updated_at)
		ON CONFLICT (project_id) DO UPDATE SET
			title = excluded.title,
			theme = excluded.theme,
			slides = excluded.slides,
			updated_at = excluded.updated_at`, pitchDeckRow{
		ProjectID: d.ProjectID,
		Title:     d.Title,
		Theme:     d.Theme,
		Slides:    d.Slides,
		UpdatedAt: d.UpdatedAt.UTC(),
	})
	if err != nil {
		return pitch.Deck{}, errors.Wrap(err, "saving pitch deck")
	}
	return repo.GetPitchDeck(ctx, d.ProjectID, exe)
}

func (repo workspaceRepository) SetPitchDeckPDF(ctx context.Context, projectID, pdfPath string, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx, "UPDATE pitch_decks SET pdf_path = ? WHERE project_id = ?", pdfPath, projectID)
	if err != nil {
		return errors.Wrap(err, "setting pitch deck pdf")
	}
	return mustAffect(res, pitch.ErrNotFound)
}
