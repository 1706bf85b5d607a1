package branding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/startuplab/backend/core/plan"
)

func TestGenerator_Names(t *testing.T) {
	gen := NewGenerator(1)

	names := gen.Names(NameRequest{Keywords: []string{"café", " vert "}}, 6)
	assert.Len(t, names, 6)
	seen := make(map[string]bool)
	for _, n := range names {
		assert.False(t, seen[n])
		seen[n] = true
		assert.Regexp(t, `(?i)(café|vert)`, n)
	}

	for _, n := range gen.Names(NameRequest{Industry: "Finance"}, 3) {
		assert.Regexp(t, `(?i)(fin|cash|capital|pay)`, n)
	}
}

func TestGenerator_Slogans(t *testing.T) {
	gen := NewGenerator(1)
	slogans := gen.Slogans(SloganRequest{BrandName: "Verdi", Industry: "Environnement", Values: "Audace, respect"}, 10)
	assert.Len(t, slogans, 10)
	for _, s := range slogans {
		assert.Contains(t, s, "Verdi")
		assert.NotContains(t, s, "%!")
	}
}

func TestGenerator_Logos(t *testing.T) {
	gen := NewGenerator(1)

	logos := gen.Logos(LogoRequest{BrandName: "Green Food Lab"}, "alimentation", LogoStyles(plan.Free), 3)
	require.Len(t, logos, 3)
	for _, l := range logos {
		assert.Contains(t, []string{"minimal", "wordmark"}, l.Style)
		assert.Contains(t, icons["alimentation"], l.Icon)
		if l.Style == "minimal" {
			assert.Equal(t, "GFL", l.Text)
		}
	}

	logos = gen.Logos(LogoRequest{BrandName: "Verdi", Style: "emblem"}, "", nil, 2)
	require.Len(t, logos, 2)
	assert.Equal(t, "emblem", logos[0].Style)
	assert.Equal(t, "VE", logos[0].Text)
}

func TestLogoStyles(t *testing.T) {
	assert.Equal(t, []string{"minimal", "wordmark"}, LogoStyles(plan.Free))
	assert.Len(t, LogoStyles(plan.Pro), 4)
	assert.Len(t, LogoStyles(plan.Enterprise), 6)
}

func TestService_gating(t *testing.T) {
	svc := NewService(nil, NewGenerator(3))

	assert.Len(t, svc.SuggestNames(plan.Free, NameRequest{}), 3)
	assert.Len(t, svc.SuggestSlogans(plan.Starter, SloganRequest{BrandName: "X"}), 6)

	_, err := svc.SuggestLogos(plan.Free, "", LogoRequest{BrandName: "X", Style: "geometric"})
	assert.True(t, plan.IsGateError(err))

	logos, err := svc.SuggestLogos(plan.Pro, "", LogoRequest{BrandName: "X", Style: "geometric"})
	require.NoError(t, err)
	assert.Len(t, logos, 6)

	_, err = svc.Save(context.Background(), "p", plan.Free, Branding{BrandName: "X", Font: "Lato"})
	assert.True(t, plan.IsGateError(err))
}
