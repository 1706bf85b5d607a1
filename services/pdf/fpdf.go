// Package pdfsvc renders documents as PDF files with fpdf.
package pdfsvc

import (
	"io"
	"strconv"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/startuplab/backend/core"
)

const (
	fontFamily = "Helvetica"
	margin     = 20.0
)

type rgb struct{ r, g, b int }

type theme struct {
	background rgb
	text       rgb
	accent     rgb
}

var themes = map[string]theme{
	"classic": {background: rgb{255, 255, 255}, text: rgb{33, 37, 41}, accent: rgb{13, 71, 161}},
	"modern":  {background: rgb{245, 247, 250}, text: rgb{30, 41, 59}, accent: rgb{124, 58, 237}},
	"dark":    {background: rgb{17, 24, 39}, text: rgb{229, 231, 235}, accent: rgb{56, 189, 248}},
	"minimal": {background: rgb{255, 255, 255}, text: rgb{55, 65, 81}, accent: rgb{55, 65, 81}},
}

// Renderer implements core.PDFRenderer.
// Documents are A4 portrait; slides are A4 landscape, one section per page.
type Renderer struct{}

var _ core.PDFRenderer = (*Renderer)(nil)

func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) Render(w io.Writer, doc core.Document) error {
	th, ok := themes[doc.Theme]
	if !ok {
		th = themes["classic"]
	}

	orientation := "P"
	if doc.Slides {
		orientation = "L"
	}
	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle(doc.Title, true)
	pdf.SetAuthor(doc.Author, true)
	pdf.SetCreator("StartUpLab", true)

	// core fonts are cp1252
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()
	contentW := pageW - 2*margin

	pdf.SetHeaderFunc(func() {
		pdf.SetFillColor(th.background.r, th.background.g, th.background.b)
		pdf.Rect(0, 0, pageW, pageH, "F")
	})
	pdf.SetFooterFunc(func() {
		if pdf.PageNo() == 1 {
			return
		}
		pdf.SetY(-margin + 5)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.SetTextColor(th.text.r, th.text.g, th.text.b)
		pdf.CellFormat(0, 10, tr(doc.Title), "", 0, "L", false, 0, "")
		pdf.SetX(margin)
		pdf.CellFormat(0, 10, strconv.Itoa(pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	// cover
	pdf.AddPage()
	pdf.SetY(pageH / 3)
	pdf.SetTextColor(th.accent.r, th.accent.g, th.accent.b)
	pdf.SetFont(fontFamily, "B", 28)
	pdf.MultiCell(contentW, 12, tr(doc.Title), "", "C", false)
	if doc.Subtitle != "" {
		pdf.Ln(4)
		pdf.SetTextColor(th.text.r, th.text.g, th.text.b)
		pdf.SetFont(fontFamily, "", 14)
		pdf.MultiCell(contentW, 7, tr(doc.Subtitle), "", "C", false)
	}
	if doc.Author != "" {
		pdf.Ln(8)
		pdf.SetFont(fontFamily, "I", 11)
		pdf.MultiCell(contentW, 6, tr(doc.Author), "", "C", false)
	}

	for i, s := range doc.Sections {
		if doc.Slides || i == 0 {
			pdf.AddPage()
		} else {
			pdf.Ln(6)
		}
		if doc.Slides {
			pdf.SetY(pageH / 5)
		}

		pdf.SetTextColor(th.accent.r, th.accent.g, th.accent.b)
		pdf.SetFont(fontFamily, "B", headingSize(doc.Slides))
		pdf.MultiCell(contentW, 9, tr(s.Heading), "", "L", false)
		pdf.SetDrawColor(th.accent.r, th.accent.g, th.accent.b)
		pdf.Line(margin, pdf.GetY()+1, margin+contentW, pdf.GetY()+1)
		pdf.Ln(4)

		pdf.SetTextColor(th.text.r, th.text.g, th.text.b)
		pdf.SetFont(fontFamily, "", bodySize(doc.Slides))
		for _, para := range paragraphs(s.Body) {
			pdf.MultiCell(contentW, 6, tr(para), "", "L", false)
			pdf.Ln(2)
		}
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func headingSize(slides bool) float64 {
	if slides {
		return 26
	}
	return 16
}

func bodySize(slides bool) float64 {
	if slides {
		return 16
	}
	return 11
}

// paragraphs splits body on blank lines, keeping single line breaks.
func paragraphs(body string) []string {
	body = strings.ReplaceAll(body, "\r\n", "\n")
	var paras []string
	for _, p := range strings.Split(body, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paras = append(paras, p)
		}
	}
	return paras
}
