// Package export renders course text into a paginated PDF document.
package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/spherical-ai/course-creator/internal/config"
	"github.com/spherical-ai/course-creator/internal/domain"
)

// Layout controls page geometry and typography. Units are millimetres and points.
type Layout struct {
	PageSize     string
	FontFamily   string
	FontSize     float64
	LineHeight   float64
	BottomMargin float64
}

// DefaultLayout is A4, Arial 12, 10 mm per line, page break 15 mm above the bottom edge.
func DefaultLayout() Layout {
	return Layout{
		PageSize:     "A4",
		FontFamily:   "Arial",
		FontSize:     12,
		LineHeight:   10,
		BottomMargin: 15,
	}
}

// LayoutFromConfig maps export settings onto a Layout.
func LayoutFromConfig(cfg config.ExportConfig) Layout {
	l := DefaultLayout()
	if cfg.PageSize != "" {
		l.PageSize = cfg.PageSize
	}
	if cfg.FontFamily != "" {
		l.FontFamily = cfg.FontFamily
	}
	if cfg.FontSize > 0 {
		l.FontSize = cfg.FontSize
	}
	if cfg.LineHeight > 0 {
		l.LineHeight = cfg.LineHeight
	}
	if cfg.BottomMargin > 0 {
		l.BottomMargin = cfg.BottomMargin
	}
	return l
}

// PDFExporter writes text one multi-cell per input line using a core PDF font.
// Markdown is not interpreted; headings and emphasis markers print as-is.
type PDFExporter struct {
	layout Layout
}

// NewPDFExporter creates an exporter with the given layout.
func NewPDFExporter(layout Layout) *PDFExporter {
	return &PDFExporter{layout: layout}
}

// Export renders text and returns the PDF bytes. Core fonts only cover
// Windows-1252, so any line outside it fails the whole export.
func (e *PDFExporter) Export(text string) ([]byte, error) {
	lines, err := encodeLines(text)
	if err != nil {
		return nil, err
	}

	doc := fpdf.New("P", "mm", e.layout.PageSize, "")
	doc.SetTitle("Course Content", true)
	doc.SetAutoPageBreak(true, e.layout.BottomMargin)
	doc.AddPage()
	doc.SetFont(e.layout.FontFamily, "", e.layout.FontSize)

	for _, line := range lines {
		doc.MultiCell(0, e.layout.LineHeight, line, "", "", false)
	}

	if doc.Err() {
		return nil, domain.ExportError("render document", doc.Error())
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, domain.ExportError("write document", err)
	}
	return buf.Bytes(), nil
}

// Check validates that every line of text is encodable in the document font.
func (e *PDFExporter) Check(text string) error {
	_, err := encodeLines(text)
	return err
}

// encodeLines splits text on newlines and converts each line to Windows-1252.
func encodeLines(text string) ([]string, error) {
	enc := charmap.Windows1252.NewEncoder()
	raw := strings.Split(text, "\n")
	out := make([]string, 0, len(raw))

	for i, line := range raw {
		line = strings.TrimSuffix(line, "\r")
		encoded, err := enc.String(line)
		if err != nil {
			return nil, domain.ExportError(fmt.Sprintf("line %d contains characters the document font cannot encode", i+1), err)
		}
		out = append(out, encoded)
	}
	return out, nil
}

var _ domain.Exporter = (*PDFExporter)(nil)
