package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"papercast/internal/models"
	"papercast/internal/util"

	"golang.org/x/net/html"
)

const dailyPapersBase = "https://huggingface.co/papers/date/"

var arxivIDPattern = regexp.MustCompile(`\b(\d{4}\.\d{5})\b`)

// Scraper fetches the daily paper listing and per-paper metadata.
type Scraper struct {
	client *http.Client
}

func NewScraper() *Scraper {
	return &Scraper{client: &http.Client{Timeout: 30 * time.Second}}
}

// DailyPaperIDs returns the distinct arXiv ids linked from the Hugging Face
// daily-papers page for targetDate (YYYY-MM-DD), in page order.
func (s *Scraper) DailyPaperIDs(ctx context.Context, targetDate string) ([]string, error) {
	doc, err := s.get(ctx, dailyPapersBase+targetDate)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0)
	seen := make(map[string]struct{})
	for _, href := range collectHrefs(doc) {
		if !strings.HasPrefix(href, "/papers/") {
			continue
		}
		m := arxivIDPattern.FindStringSubmatch(href)
		if m == nil {
			continue
		}
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		ids = append(ids, m[1])
	}
	return ids, nil
}

// ScrapePaper parses an arXiv abstract page into paper metadata. Sections
// stay empty until the PDF outline is extracted.
func (s *Scraper) ScrapePaper(ctx context.Context, arxivURL string) (models.Paper, error) {
	doc, err := s.get(ctx, arxivURL)
	if err != nil {
		return models.Paper{}, err
	}

	title := strings.TrimPrefix(textOfClass(doc, "h1", "title"), "Title:")
	abstract := strings.TrimPrefix(textOfClass(doc, "blockquote", "abstract"), "Abstract:")
	authors := make([]string, 0)
	if authorsDiv := findByClass(doc, "div", "authors"); authorsDiv != nil {
		for _, a := range findAll(authorsDiv, "a") {
			if name := strings.TrimSpace(nodeText(a)); name != "" {
				authors = append(authors, name)
			}
		}
	}

	parts := strings.Split(arxivURL, "/")
	return models.Paper{
		Title:    strings.TrimSpace(title),
		Abstract: strings.TrimSpace(abstract),
		Authors:  authors,
		URL:      arxivURL,
		PaperID:  parts[len(parts)-1],
		Status:   models.StatusInitialized,
	}, nil
}

// DownloadPDF fetches the paper's PDF to dest.
func (s *Scraper) DownloadPDF(ctx context.Context, paperID, dest string) error {
	url := "https://arxiv.org/pdf/" + paperID
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build pdf request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("download pdf %s: %w", paperID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("download pdf %s: status %d", paperID, resp.StatusCode)
	}

	if err := util.EnsureDir(filepath.Dir(dest)); err != nil {
		return err
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("create pdf file: %w", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		return fmt.Errorf("write pdf file: %w", err)
	}
	return f.Close()
}

func (s *Scraper) get(ctx context.Context, url string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return doc, nil
}

func collectHrefs(n *html.Node) []string {
	out := make([]string, 0)
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == "a" {
			for _, attr := range node.Attr {
				if attr.Key == "href" {
					out = append(out, attr.Val)
				}
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func findByClass(n *html.Node, tag, class string) *html.Node {
	var found *html.Node
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if found != nil {
			return
		}
		if node.Type == html.ElementNode && node.Data == tag && hasClass(node, class) {
			found = node
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return found
}

func findAll(n *html.Node, tag string) []*html.Node {
	out := make([]*html.Node, 0)
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode && node.Data == tag {
			out = append(out, node)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key == "class" {
			for _, c := range strings.Fields(attr.Val) {
				if c == class {
					return true
				}
			}
		}
	}
	return false
}

func textOfClass(n *html.Node, tag, class string) string {
	node := findByClass(n, tag, class)
	if node == nil {
		return ""
	}
	return strings.TrimSpace(nodeText(node))
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
