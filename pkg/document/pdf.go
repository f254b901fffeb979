package document

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

const (
	maxImageWidthMM  = 120.0
	maxImageHeightMM = 80.0
)

// PDFOption customises a PDFRenderer.
type PDFOption func(*PDFRenderer)

// WithTitle sets the document heading and metadata title.
func WithTitle(title string) PDFOption {
	return func(r *PDFRenderer) {
		if trimmed := strings.TrimSpace(title); trimmed != "" {
			r.title = trimmed
		}
	}
}

// WithCompression toggles stream compression.
func WithCompression(enabled bool) PDFOption {
	return func(r *PDFRenderer) {
		r.compress = enabled
	}
}

// WithClock injects the time source used for document metadata.
func WithClock(now func() time.Time) PDFOption {
	return func(r *PDFRenderer) {
		if now != nil {
			r.now = now
		}
	}
}

// PDFRenderer renders sections into an A4 PDF.
type PDFRenderer struct {
	title    string
	compress bool
	now      func() time.Time
}

var _ Renderer = (*PDFRenderer)(nil)

// NewPDFRenderer constructs a PDFRenderer.
func NewPDFRenderer(options ...PDFOption) *PDFRenderer {
	r := &PDFRenderer{
		title:    "Form Submission",
		compress: true,
		now:      time.Now,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// RenderDocument lays out every section. Images that cannot be decoded are
// replaced by a placeholder line; the rest of the document is unaffected.
func (r *PDFRenderer) RenderDocument(ctx context.Context, sections []Section) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.compress)
	pdf.SetTitle(r.title, true)
	pdf.SetCreationDate(r.now())
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	contentWidth := pageWidth - left - right

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(contentWidth, 10, tr(r.title), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	for i, section := range sections {
		if strings.TrimSpace(section.Title) != "" {
			pdf.SetFont("Helvetica", "B", 13)
			pdf.CellFormat(contentWidth, 8, tr(section.Title), "B", 1, "L", false, 0, "")
			pdf.Ln(2)
		}
		for _, line := range section.Lines {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(contentWidth, 6, tr(line.Label+":"), "", 1, "L", false, 0, "")
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(contentWidth, 5, tr(line.Value), "", "L", false)
			pdf.Ln(1)
		}
		for j, img := range section.Images {
			r.embedImage(pdf, tr, fmt.Sprintf("s%d-i%d", i, j), img, contentWidth)
		}
		pdf.Ln(4)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("document: render pdf: %w", err)
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("document: write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *PDFRenderer) embedImage(pdf *fpdf.Fpdf, tr func(string) string, name string, img Image, contentWidth float64) {
	label := img.Label
	if label == "" {
		label = img.Name
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(contentWidth, 6, tr(label+":"), "", 1, "L", false, 0, "")

	imageType := imageTypeFor(img)
	if imageType == "" || len(img.Data) == 0 {
		placeholder(pdf, tr, img, contentWidth)
		return
	}

	opts := fpdf.ImageOptions{ImageType: imageType, ReadDpi: true}
	info := pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.Data))
	if !pdf.Ok() || info == nil {
		pdf.ClearError()
		placeholder(pdf, tr, img, contentWidth)
		return
	}

	w, h := fit(info.Width(), info.Height(), minFloat(contentWidth, maxImageWidthMM), maxImageHeightMM)
	pdf.ImageOptions(name, pdf.GetX(), pdf.GetY(), w, h, true, opts, 0, "")
	pdf.Ln(2)
}

func placeholder(pdf *fpdf.Fpdf, tr func(string) string, img Image, contentWidth float64) {
	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(contentWidth, 5, tr("Image could not be embedded: "+img.Name), "", "L", false)
	pdf.Ln(1)
}

func imageTypeFor(img Image) string {
	contentType := strings.ToLower(strings.TrimSpace(img.ContentType))
	if contentType == "" && len(img.Data) > 0 {
		contentType = http.DetectContentType(img.Data)
	}
	switch {
	case strings.HasPrefix(contentType, "image/jpeg"):
		return "JPG"
	case strings.HasPrefix(contentType, "image/png"):
		return "PNG"
	case strings.HasPrefix(contentType, "image/gif"):
		return "GIF"
	default:
		return ""
	}
}

func fit(width, height, maxWidth, maxHeight float64) (float64, float64) {
	if width <= 0 || height <= 0 {
		return maxWidth, 0
	}
	scale := minFloat(maxWidth/width, maxHeight/height)
	if scale > 1 {
		scale = 1
	}
	return width * scale, height * scale
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
