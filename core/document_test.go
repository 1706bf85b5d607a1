package core

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type textRenderer struct{}

func (textRenderer) Render(w io.Writer, doc Document) error {
	_, err := fmt.Fprintf(w, "%s (%d)", doc.Title, len(doc.Sections))
	return err
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "plan-d-affaires-cafe-eco", Slugify("  Plan d'affaires : Café Éco "))
	assert.Equal(t, "", Slugify("!!!"))
}

func TestSavePDF(t *testing.T) {
	conf := &Config{MediaDir: t.TempDir(), MediaURL: "/files"}
	doc := Document{Title: "Hello", Sections: []DocumentSection{{Heading: "A", Body: "a"}}}

	relPath, err := SavePDF(conf, textRenderer{}, doc, "Business Plan")
	require.NoError(t, err)
	assert.Regexp(t, `^pdf/business-plan-\d+\.pdf$`, relPath)

	data, err := os.ReadFile(conf.MediaPath(relPath))
	require.NoError(t, err)
	assert.Equal(t, "Hello (1)", string(data))
	assert.Equal(t, "/files/"+relPath, conf.MediaURLFor(relPath))
	assert.Equal(t, "", conf.MediaURLFor(""))
	assert.DirExists(t, filepath.Join(conf.MediaDir, "pdf"))
}
