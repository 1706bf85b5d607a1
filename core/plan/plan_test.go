package plan

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestGet(t *testing.T) {
	assert.Equal(t, Pro, Get(Pro).ID)
	assert.Equal(t, Free, Get("gold").ID, "unknown plans fall back to free")
	assert.True(t, Valid(Enterprise))
	assert.False(t, Valid("gold"))
	assert.Len(t, All(), 4)
}

func TestLimits(t *testing.T) {
	tests := []struct {
		name  string
		check func(string, int) bool
		plan  string
		count int
		want  bool
	}{
		{name: "free first project", check: CanCreateProject, plan: Free, count: 0, want: true},
		{name: "free second project", check: CanCreateProject, plan: Free, count: 1, want: false},
		{name: "starter third project", check: CanCreateProject, plan: Starter, count: 2, want: true},
		{name: "starter fourth project", check: CanCreateProject, plan: Starter, count: 3, want: false},
		{name: "enterprise projects", check: CanCreateProject, plan: Enterprise, count: 10000, want: true},
		{name: "free ideas", check: CanCreateIdea, plan: Free, count: 10, want: false},
		{name: "pro ideas", check: CanCreateIdea, plan: Pro, count: 10000, want: true},
		{name: "free team", check: CanAddTeamMember, plan: Free, count: 0, want: false},
		{name: "starter team", check: CanAddTeamMember, plan: Starter, count: 1, want: true},
		{name: "starter team full", check: CanAddTeamMember, plan: Starter, count: 2, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.plan, tt.count))
		})
	}
}

func TestFeatures(t *testing.T) {
	assert.False(t, HasFeature(Free, FeaturePDFExport))
	assert.True(t, HasFeature(Starter, FeaturePDFExport))
	assert.False(t, HasFeature(Starter, FeaturePitchDeck))
	assert.True(t, HasFeature(Pro, FeaturePitchDeck))
	assert.True(t, HasFeature(Pro, FeatureAccounting))
	assert.False(t, HasFeature(Starter, FeatureAccounting))

	assert.True(t, BrandingAllows(Free, BrandingBasic))
	assert.False(t, BrandingAllows(Free, BrandingAdvanced))
	assert.True(t, BrandingAllows(Pro, BrandingAdvanced))
	assert.False(t, BrandingAllows(Pro, BrandingPremium))
	assert.True(t, BrandingAllows(Enterprise, BrandingPremium))
	assert.False(t, BrandingAllows(Enterprise, "gold"))
	assert.False(t, BrandingAllows(Free, ""))
}

func TestCompare(t *testing.T) {
	assert.Equal(t, -1, Compare(Free, Pro))
	assert.Equal(t, 1, Compare(Enterprise, Starter))
	assert.Equal(t, 0, Compare(Pro, Pro))
}

func TestGateErrors(t *testing.T) {
	err := CheckProjectLimit(Free, 1)
	assert.Error(t, err)
	assert.True(t, IsGateError(errors.Wrap(err, "creating project")))
	assert.Contains(t, err.Error(), "1 projet(s)")

	err = RequireFeature(Free, FeaturePDFExport)
	assert.True(t, IsGateError(err))
	assert.Equal(t, "L'export PDF n'est pas inclus dans votre offre Gratuit.", err.Error())

	assert.NoError(t, RequireFeature(Pro, FeaturePitchDeck))
	assert.NoError(t, CheckTeamLimit(Enterprise, 500))
	assert.False(t, IsGateError(errors.New("boom")))
}
