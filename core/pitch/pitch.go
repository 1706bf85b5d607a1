// Package pitch manages the pitch deck of a project and its PDF export.
package pitch

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/startuplab/backend/core"
	"github.com/startuplab/backend/core/plan"
	"github.com/startuplab/backend/core/project"
	"github.com/startuplab/backend/core/user"
)

const (
	ThemeClassic = "classic"
	ThemeModern  = "modern"
	ThemeDark    = "dark"
	ThemeMinimal = "minimal"

	documentTitle = "Pitch deck"
)

var ErrNotFound = core.NewNotFoundError("pitch deck introuvable")

var Themes = []string{ThemeClassic, ThemeModern, ThemeDark, ThemeMinimal}

// DefaultSlides is the outline of a new deck.
var DefaultSlides = Slides{
	{Title: "Le problème", Content: "Quel problème rencontrent vos clients ?"},
	{Title: "La solution", Content: "Comment votre produit le résout-il ?"},
	{Title: "Le marché", Content: "Quelle est la taille de votre marché cible ?"},
	{Title: "Le produit", Content: "Présentez votre produit et ses fonctionnalités clés."},
	{Title: "Le modèle économique", Content: "Comment gagnez-vous de l'argent ?"},
	{Title: "La concurrence", Content: "Qui sont vos concurrents et en quoi êtes-vous différent ?"},
	{Title: "L'équipe", Content: "Qui porte le projet ?"},
	{Title: "Les finances", Content: "Vos prévisions sur trois ans."},
	{Title: "La demande", Content: "De combien avez-vous besoin et pour quoi faire ?"},
}

type Slide struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"max=5000"`
}

// Slides is stored as a JSON array.
type Slides []Slide

func (s Slides) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *Slides) Scan(src interface{}) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return errors.Errorf("pitch: cannot scan %T into Slides", src)
	}
	return json.Unmarshal(b, s)
}

type Deck struct {
	ProjectID string    `json:"project_id"`
	Title     string    `json:"title" validate:"max=200"`
	Theme     string    `json:"theme" validate:"omitempty,oneof=classic modern dark minimal"`
	Slides    Slides    `json:"slides" validate:"max=30,dive"`
	PDFPath   string    `json:"-"`
	PDFURL    string    `json:"pdf_url,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Deck) Validate(validate *validator.Validate) error {
	d.Title = core.CleanString(d.Title)
	d.Theme = core.CleanString(d.Theme, true /* lower */)
	if d.Theme == "" {
		d.Theme = ThemeClassic
	}
	for i := range d.Slides {
		d.Slides[i].Title = core.CleanString(d.Slides[i].Title)
		d.Slides[i].Content = core.CleanString(d.Slides[i].Content)
	}
	return validate.Struct(d)
}

func (d *Deck) Document(p project.Project) core.Document {
	title := d.Title
	if title == "" {
		title = p.Name
	}
	doc := core.Document{
		Title:    title,
		Subtitle: p.Description,
		Author:   p.OwnerEmail,
		Theme:    d.Theme,
		Slides:   true,
		Sections: make([]core.DocumentSection, 0, len(d.Slides)),
	}
	for _, s := range d.Slides {
		doc.Sections = append(doc.Sections, core.DocumentSection{Heading: s.Title, Body: s.Content})
	}
	return doc
}

type ExportRequest struct {
	SendEmail bool `json:"send_email"`
}

type (
	Repository interface {
		// GetPitchDeck returns a not found error if the project has no deck yet.
		GetPitchDeck(ctx context.Context, projectID string, exec ...core.DBExecutor) (Deck, error)
		// SavePitchDeck inserts or updates the deck, leaving its PDF path untouched.
		SavePitchDeck(ctx context.Context, d Deck, exec ...core.DBExecutor) (Deck, error)
		SetPitchDeckPDF(ctx context.Context, projectID, pdfPath string, exec ...core.DBExecutor) error
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

func newDeck(p project.Project) Deck {
	slides := make(Slides, len(DefaultSlides))
	copy(slides, DefaultSlides)
	return Deck{ProjectID: p.ID, Title: p.Name, Theme: ThemeClassic, Slides: slides}
}

// Get returns the deck of the project, or the default outline if it was never saved.
func (svc *Service) Get(ctx context.Context, p project.Project) (Deck, error) {
	d, err := svc.repo.GetPitchDeck(ctx, p.ID)
	if err != nil {
		if core.IsNotFound(err) {
			return newDeck(p), nil
		}
		return Deck{}, err
	}
	d.PDFURL = svc.conf.MediaURLFor(d.PDFPath)
	return d, nil
}

// Save stores the deck; building a deck needs the pitch deck feature of the owner's plan.
func (svc *Service) Save(ctx context.Context, p project.Project, d Deck) (Deck, error) {
	if err := plan.RequireFeature(p.OwnerPlan, plan.FeaturePitchDeck); err != nil {
		return Deck{}, err
	}
	d.ProjectID = p.ID
	d.UpdatedAt = core.Now()
	d, err := svc.repo.SavePitchDeck(ctx, d)
	if err != nil {
		return Deck{}, err
	}
	d.PDFURL = svc.conf.MediaURLFor(d.PDFPath)
	return d, nil
}

// Export renders the deck as a PDF, one slide per page.
func (svc *Service) Export(ctx context.Context, usr user.User, p project.Project, req ExportRequest) (Deck, error) {
	if err := plan.RequireFeature(p.OwnerPlan, plan.FeaturePitchDeck); err != nil {
		return Deck{}, err
	}

	d, err := svc.Get(ctx, p)
	if err != nil {
		return Deck{}, err
	}
	if d.UpdatedAt.IsZero() {
		if d, err = svc.Save(ctx, p, d); err != nil {
			return Deck{}, err
		}
	}

	relPath, err := core.SavePDF(svc.conf, svc.renderer, d.Document(p), p.Name+"-pitch-deck")
	if err != nil {
		return Deck{}, err
	}
	if err = svc.repo.SetPitchDeckPDF(ctx, p.ID, relPath); err != nil {
		return Deck{}, errors.Wrap(err, "saving pdf path")
	}
	d.PDFPath = relPath
	d.PDFURL = svc.conf.MediaURLFor(relPath)

	if req.SendEmail {
		msg, err := core.NewDocumentMessage(svc.conf, mail.Address{Name: usr.Name, Address: usr.Email}, documentTitle, p.Name, relPath)
		if err != nil {
			return Deck{}, err
		}
		svc.mailSvc.SendMessages(msg)
	}
	return d, nil
}
