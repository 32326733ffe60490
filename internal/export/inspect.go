package export

import (
	"fmt"
	"strings"

	"github.com/gen2brain/go-fitz"

	"github.com/spherical-ai/course-creator/internal/domain"
)

// Summary describes a rendered document as read back by MuPDF.
type Summary struct {
	Pages int
	Text  []string // extracted text, one entry per page
}

// Inspect opens PDF bytes and extracts page count and per-page text.
func Inspect(data []byte) (*Summary, error) {
	if len(data) == 0 {
		return nil, domain.ValidationError("document is empty", nil)
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, domain.ExportError("open document", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, domain.ExportError("document has no pages", nil)
	}

	summary := &Summary{
		Pages: pageCount,
		Text:  make([]string, 0, pageCount),
	}

	for pageNum := 0; pageNum < pageCount; pageNum++ {
		text, err := doc.Text(pageNum)
		if err != nil {
			return nil, domain.ExportError(fmt.Sprintf("extract text from page %d", pageNum+1), err)
		}
		summary.Text = append(summary.Text, text)
	}

	return summary, nil
}

// Lines returns the non-blank text lines of every page, in reading order.
func (s *Summary) Lines() []string {
	var lines []string
	for _, page := range s.Text {
		for _, line := range strings.Split(page, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				lines = append(lines, trimmed)
			}
		}
	}
	return lines
}
