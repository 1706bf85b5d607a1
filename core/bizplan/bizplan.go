// Package bizplan manages the business plan of a project and its PDF export.
package bizplan

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/plan"
	"github.com/startuplab/backend/core/project"
	"github.com/startuplab/backend/core/user"
)

const documentTitle = "Business plan"

var ErrNotFound = core.NewNotFoundError("business plan introuvable")

type BusinessPlan struct {
	ProjectID            string    `json:"project_id"`
	ExecutiveSummary     string    `json:"executive_summary" validate:"max=10000"`
	CompanyDescription   string    `json:"company_description" validate:"max=10000"`
	MarketAnalysis       string    `json:"market_analysis" validate:"max=10000"`
	Organization         string    `json:"organization" validate:"max=10000"`
	ProductsServices     string    `json:"products_services" validate:"max=10000"`
	MarketingStrategy    string    `json:"marketing_strategy" validate:"max=10000"`
	FinancialProjections string    `json:"financial_projections" validate:"max=10000"`
	FundingRequest       string    `json:"funding_request" validate:"max=10000"`
	PDFPath              string    `json:"-"`
	PDFURL               string    `json:"pdf_url,omitempty"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (bp *BusinessPlan) Validate(validate *validator.Validate) error {
	for _, s := range bp.sections() {
		*s.body = core.CleanString(*s.body)
	}
	return validate.Struct(bp)
}

type section struct {
	heading string
	body    *string
}

func (bp *BusinessPlan) sections() []section {
	return []section{
		{"Résumé opérationnel", &bp.ExecutiveSummary},
		{"Présentation de l'entreprise", &bp.CompanyDescription},
		{"Étude de marché", &bp.MarketAnalysis},
		{"Organisation et équipe", &bp.Organization},
		{"Produits et services", &bp.ProductsServices},
		{"Stratégie marketing", &bp.MarketingStrategy},
		{"Prévisions financières", &bp.FinancialProjections},
		{"Besoin de financement", &bp.FundingRequest},
	}
}

// Document returns the PDF document of the plan; empty sections are left out.
func (bp *BusinessPlan) Document(p project.Project) core.Document {
	doc := core.Document{
		Title:    p.Name,
		Subtitle: documentTitle,
		Author:   p.OwnerEmail,
	}
	for _, s := range bp.sections() {
		if *s.body == "" {
			continue
		}
		doc.Sections = append(doc.Sections, core.DocumentSection{Heading: s.heading, Body: *s.body})
	}
	return doc
}

type ExportRequest struct {
	SendEmail bool `json:"send_email"`
}

type (
	Repository interface {
		// GetBusinessPlan returns a not found error if the project has no business plan yet.
		GetBusinessPlan(ctx context.Context, projectID string, exec ...core.DBExecutor) (BusinessPlan, error)
		// SaveBusinessPlan inserts or updates the sections of the plan, leaving its PDF path untouched.
		SaveBusinessPlan(ctx context.Context, bp BusinessPlan, exec ...core.DBExecutor) (BusinessPlan, error)
		SetBusinessPlanPDF(ctx context.Context, projectID, pdfPath string, exec ...core.DBExecutor) error
	}

	Service struct {
		repo     Repository
		renderer core.PDFRenderer
		mailSvc  core.EmailService
		conf     *core.Config
	}
)

func NewService(repo Repository, renderer core.PDFRenderer, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{repo: repo, renderer: renderer, mailSvc: mailSvc, conf: conf}
}

// Get returns the business plan of the project, empty if it was never saved.
func (svc *Service) Get(ctx context.Context, projectID string) (BusinessPlan, error) {
	bp, err := svc.repo.GetBusinessPlan(ctx, projectID)
	if err != nil {
		if core.IsNotFound(err) {
			return BusinessPlan{ProjectID: projectID}, nil
		}
		return BusinessPlan{}, err
	}
	bp.PDFURL = svc.conf.MediaURLFor(bp.PDFPath)
	return bp, nil
}

func (svc *Service) Save(ctx context.Context, projectID string, bp BusinessPlan) (BusinessPlan, error) {
	bp.ProjectID = projectID
	bp.UpdatedAt = core.Now()
	bp, err := svc.repo.SaveBusinessPlan(ctx, bp)
	if err != nil {
		return BusinessPlan{}, err
	}
	bp.PDFURL = svc.conf.MediaURLFor(bp.PDFPath)
	return bp, nil
}

// Export renders the business plan of p as a PDF, available with the PDF export feature of the owner's plan.
// The file is emailed to usr if req.SendEmail is set.
func (svc *Service) Export(ctx context.Context, usr user.User, p project.Project, req ExportRequest) (BusinessPlan, error) {
	if err := plan.RequireFeature(p.OwnerPlan, plan.FeaturePDFExport); err != nil {
		return BusinessPlan{}, err
	}

	bp, err := svc.Get(ctx, p.ID)
	if err != nil {
		return BusinessPlan{}, err
	}
	if bp.UpdatedAt.IsZero() {
		if bp, err = svc.Save(ctx, p.ID, bp); err != nil {
			return BusinessPlan{}, err
		}
	}

	relPath, err := core.SavePDF(svc.conf, svc.renderer, bp.Document(p), p.Name+"-business-plan")
	if err != nil {
		return BusinessPlan{}, err
	}
	if err = svc.repo.SetBusinessPlanPDF(ctx, p.ID, relPath); err != nil {
		return BusinessPlan{}, errors.Wrap(err, "saving pdf path")
	}
	bp.PDFPath = relPath
	bp.PDFURL = svc.conf.MediaURLFor(relPath)

	if req.SendEmail {
		msg, err := core.NewDocumentMessage(svc.conf, mail.Address{Name: usr.Name, Address: usr.Email}, documentTitle, p.Name, relPath)
		if err != nil {
			return BusinessPlan{}, err
		}
		svc.mailSvc.SendMessages(msg)
	}
	return bp, nil
}
