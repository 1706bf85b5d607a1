package core

import (
	"fmt"
	"io"
	"net/mail"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

type (
	DocumentSection struct {
		Heading string
		Body    string
	}

	// Document is a titled list of sections rendered as a PDF.
	// Slides renders one section per page.
	Document struct {
		Title    string
		Subtitle string
		Author   string
		Theme    string
		Slides   bool
		Sections []DocumentSection
	}

	PDFRenderer interface {
		Render(w io.Writer, doc Document) error
	}
)

var unsafeFilenameChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowers s and replaces any run of non alphanumeric characters by a dash.
func Slugify(s string) string {
	s = strings.ToLower(s)
	replacer := strings.NewReplacer(
		"à", "a", "â", "a", "ä", "a", "ç", "c", "é", "e", "è", "e", "ê", "e", "ë", "e",
		"î", "i", "ï", "i", "ô", "o", "ö", "o", "ù", "u", "û", "u", "ü", "u", "œ", "oe",
	)
	s = unsafeFilenameChars.ReplaceAllString(replacer.Replace(s), "-")
	return strings.Trim(s, "-")
}

// SavePDF renders doc into `<MediaDir>/pdf/<name>-<timestamp>.pdf`.
// It returns the path of the file relative to MediaDir, using forward slashes.
func SavePDF(conf *Config, renderer PDFRenderer, doc Document, name string) (string, error) {
	dir := filepath.Join(conf.MediaDir, "pdf")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, "creating pdf dir")
	}

	fname := fmt.Sprintf("%s-%d.pdf", Slugify(name), Now().UnixNano())
	f, err := os.Create(filepath.Join(dir, fname))
	if err != nil {
		return "", errors.Wrap(err, "creating pdf file")
	}
	if err = renderer.Render(f, doc); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", errors.Wrap(err, "rendering pdf")
	}
	if err = f.Close(); err != nil {
		return "", errors.Wrap(err, "closing pdf file")
	}
	return path.Join("pdf", fname), nil
}

// MediaPath returns the file system path of a media file saved under MediaDir.
func (c *Config) MediaPath(relPath string) string {
	return filepath.Join(c.MediaDir, filepath.FromSlash(relPath))
}

// MediaURLFor returns the public URL of a media file saved under MediaDir.
func (c *Config) MediaURLFor(relPath string) string {
	if relPath == "" {
		return ""
	}
	return c.MediaURL + "/" + relPath
}

// NewDocumentMessage builds the email sending the exported PDF at relPath to the user.
func NewDocumentMessage(conf *Config, to mail.Address, title, projectName, relPath string) (*EmailMessage, error) {
	msg := &EmailMessage{
		To:           []mail.Address{to},
		Subject:      fmt.Sprintf("%s - %s", projectName, title),
		TemplateName: "document_export",
		TemplateData: map[string]interface{}{
			"Name":        to.Name,
			"Title":       title,
			"ProjectName": projectName,
		},
	}
	if err := msg.AttachFile(conf.MediaPath(relPath), "application/pdf"); err != nil {
		return nil, errors.Wrap(err, "attaching pdf")
	}
	return msg, nil
}
