package source

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"papercast/internal/models"
	"papercast/internal/util"

	"github.com/ledongthuc/pdf"
)

// ErrNoOutline is returned for PDFs without a table of contents; a paper
// without an outline cannot be sectioned for summarization.
var ErrNoOutline = errors.New("document has no outline")

// Document gives section-scoped access to a downloaded paper PDF.
type Document struct {
	file   *os.File
	reader *pdf.Reader
	pages  []string
}

func OpenDocument(path string) (*Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	return &Document{file: f, reader: r}, nil
}

func (d *Document) Close() error {
	return d.file.Close()
}

// Sections derives ordered sections from the PDF outline. Each outline entry
// is bounded by the next entry: the last outline item only closes the one
// before it, matching pairwise iteration over the table of contents.
func (d *Document) Sections() ([]models.Section, error) {
	outline := d.reader.Outline()
	titles := flattenOutline(outline.Child)
	if len(titles) < 2 {
		return nil, ErrNoOutline
	}
	if err := d.loadPages(); err != nil {
		return nil, err
	}

	starts := make([]int, len(titles))
	page := 0
	for i, t := range titles {
		starts[i] = d.findPage(t, page)
		page = starts[i]
	}

	sections := make([]models.Section, 0, len(titles)-1)
	for i := 0; i+1 < len(titles); i++ {
		sections = append(sections, models.Section{
			Title:     titles[i],
			Level:     1,
			LevelName: fmt.Sprintf("section.%d", i+1),
			StartPage: starts[i],
			EndPage:   starts[i+1],
			NextTitle: titles[i+1],
		})
	}
	return sections, nil
}

// SectionText returns the text between the section's own heading and the
// next section's heading, scanning only the section's page range.
func (d *Document) SectionText(sec models.Section) (string, error) {
	if err := d.loadPages(); err != nil {
		return "", err
	}
	start, end := sec.StartPage, sec.EndPage
	if start < 0 {
		start = 0
	}
	if end >= len(d.pages) {
		end = len(d.pages) - 1
	}
	text := strings.Join(d.pages[start:end+1], "\n")
	text = linesAfter(text, sec.Title)
	text = linesBefore(text, sec.NextTitle)
	// Extracted PDF text carries NUL and control bytes that Postgres and the
	// prompt templates both choke on.
	return util.SanitizeText(text), nil
}

func (d *Document) loadPages() error {
	if d.pages != nil {
		return nil
	}
	n := d.reader.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		p := d.reader.Page(i)
		if p.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return fmt.Errorf("extract page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	d.pages = pages
	return nil
}

// findPage locates the first page at or after from whose text contains the
// title; a heading not found in the text pins to the search start.
func (d *Document) findPage(title string, from int) int {
	needle := normalizeHeading(title)
	for i := from; i < len(d.pages); i++ {
		if strings.Contains(normalizeHeading(d.pages[i]), needle) {
			return i
		}
	}
	return from
}

func flattenOutline(items []pdf.Outline) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		title := strings.TrimSpace(item.Title)
		if title != "" {
			out = append(out, title)
		}
	}
	return out
}

func normalizeHeading(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func linesAfter(text, marker string) string {
	if marker == "" {
		return text
	}
	needle := normalizeHeading(marker)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.Contains(normalizeHeading(line), needle) {
			return strings.Join(lines[i+1:], "\n")
		}
	}
	return text
}

func linesBefore(text, marker string) string {
	if marker == "" {
		return text
	}
	needle := normalizeHeading(marker)
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if strings.Contains(normalizeHeading(line), needle) {
			return strings.Join(lines[:i], "\n")
		}
	}
	return text
}
