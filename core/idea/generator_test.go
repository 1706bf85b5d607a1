package idea

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerator_Generate(t *testing.T) {
	gen := NewGenerator(42)

	t.Run("known industry", func(t *testing.T) {
		got := gen.Generate("Santé", 5)
		assert.Len(t, got, 5)
		titles := make(map[string]bool)
		for _, s := range got {
			assert.Equal(t, "santé", s.Industry)
			assert.NotEmpty(t, s.Problem)
			assert.NotEmpty(t, s.Solution)
			assert.False(t, titles[s.Title], "duplicate title %q", s.Title)
			titles[s.Title] = true
		}
	})

	t.Run("default count", func(t *testing.T) {
		assert.Len(t, gen.Generate("tech", 0), defaultSuggestions)
	})

	t.Run("count is capped", func(t *testing.T) {
		assert.Len(t, gen.Generate("", 50), maxSuggestions)
	})

	t.Run("unknown industry picks among all", func(t *testing.T) {
		for _, s := range gen.Generate("astrologie", 4) {
			assert.Contains(t, Industries(), s.Industry)
		}
	})

	t.Run("seeded generators are deterministic", func(t *testing.T) {
		assert.Equal(t, NewGenerator(7).Generate("finance", 3), NewGenerator(7).Generate("finance", 3))
	})
}
