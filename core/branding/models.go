package branding

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/startuplab/backend/core"
)

type Branding struct {
	ProjectID      string    `json:"project_id"`
	BrandName      string    `json:"brand_name" validate:"max=120"`
	Slogan         string    `json:"slogan" validate:"max=200"`
	PrimaryColor   string    `json:"primary_color" validate:"hexcolor_"`
	SecondaryColor string    `json:"secondary_color" validate:"hexcolor_"`
	Font           string    `json:"font" validate:"max=80"`
	LogoStyle      string    `json:"logo_style" validate:"omitempty,logostyle"`
	LogoText       string    `json:"logo_text" validate:"max=40"`
	BrandValues    string    `json:"brand_values" validate:"max=2000"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (b *Branding) Validate(validate *validator.Validate) error {
	b.BrandName = core.CleanString(b.BrandName)
	b.Slogan = core.CleanString(b.Slogan)
	b.PrimaryColor = core.CleanString(b.PrimaryColor, true /* lower */)
	b.SecondaryColor = core.CleanString(b.SecondaryColor, true /* lower */)
	b.Font = core.CleanString(b.Font)
	b.LogoStyle = core.CleanString(b.LogoStyle, true /* lower */)
	b.LogoText = core.CleanString(b.LogoText)
	b.BrandValues = core.CleanString(b.BrandValues)
	return validate.Struct(b)
}

// NameRequest asks for brand name suggestions built from keywords.
type NameRequest struct {
	Keywords []string `json:"keywords" validate:"max=10,dive,max=40"`
	Industry string   `json:"industry" validate:"max=120"`
}

type SloganRequest struct {
	BrandName string `json:"brand_name" validate:"required,max=120"`
	Industry  string `json:"industry" validate:"max=120"`
	Values    string `json:"values" validate:"max=500"`
}

type LogoRequest struct {
	BrandName string `json:"brand_name" validate:"required,max=120"`
	Style     string `json:"style" validate:"omitempty,logostyle"`
}

// LogoSuggestion describes a logo concept the client renders.
type LogoSuggestion struct {
	Style          string `json:"style"`
	Text           string `json:"text"`
	Icon           string `json:"icon"`
	Font           string `json:"font"`
	PrimaryColor   string `json:"primary_color"`
	SecondaryColor string `json:"secondary_color"`
}
