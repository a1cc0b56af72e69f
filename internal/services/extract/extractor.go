package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"
	"github.com/yuin/goldmark"
)

var (
	spaceRegex   = regexp.MustCompile(`[ \t]+`)
	newlineRegex = regexp.MustCompile(`\n{3,}`)
)

// Extractor converts uploaded files and fetched pages into indexable text.
type Extractor struct {
	logger  arbor.ILogger
	tempDir string
}

// NewExtractor creates a text extractor. PDF processing goes through a temp
// directory because pdfcpu works on files.
func NewExtractor(logger arbor.ILogger) *Extractor {
	tempDir := filepath.Join(os.TempDir(), "curator-extract")
	os.MkdirAll(tempDir, 0755)

	return &Extractor{
		logger:  logger,
		tempDir: tempDir,
	}
}

// FromFile extracts text from a local file, dispatching on extension.
func (e *Extractor) FromFile(ctx context.Context, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return e.FromPDF(ctx, content)
	case ".html", ".htm":
		_, markdown, err := e.FromHTML("", string(content))
		return markdown, err
	case ".md", ".markdown":
		return e.FromMarkdown(string(content))
	case ".txt":
		return string(content), nil
	default:
		return "", fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

// FromPDF extracts text from PDF bytes via pdfcpu content extraction.
// Extractions can overlap (a reindex during a sync), so every call gets
// its own scratch file and page directory.
func (e *Extractor) FromPDF(ctx context.Context, content []byte) (string, error) {
	tempFile, outDir, cleanup, err := e.newPDFScratch()
	if err != nil {
		return "", err
	}
	defer cleanup()

	if err := os.WriteFile(tempFile, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write temp PDF file: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadContextFile(tempFile)
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	if err := api.ExtractContentFile(tempFile, outDir, nil, conf); err != nil {
		return "", fmt.Errorf("failed to extract PDF content: %w", err)
	}

	pageTexts := make(map[int]string)
	files, _ := os.ReadDir(outDir)
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		var pageNum int
		if _, err := fmt.Sscanf(file.Name(), "Content_page_%d", &pageNum); err != nil {
			continue
		}
		if data, err := os.ReadFile(filepath.Join(outDir, file.Name())); err == nil {
			pageTexts[pageNum] = string(data)
		}
	}

	var builder strings.Builder
	for pageNum := 1; pageNum <= pdfCtx.PageCount; pageNum++ {
		text, ok := pageTexts[pageNum]
		if !ok || strings.TrimSpace(text) == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(text)
	}

	return cleanWhitespace(builder.String()), nil
}

// newPDFScratch allocates a unique scratch PDF path and page directory.
func (e *Extractor) newPDFScratch() (string, string, func(), error) {
	file, err := os.CreateTemp(e.tempDir, "extract_*.pdf")
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to create temp PDF file: %w", err)
	}
	tempFile := file.Name()
	file.Close()

	outDir, err := os.MkdirTemp(e.tempDir, "pages_")
	if err != nil {
		os.Remove(tempFile)
		return "", "", nil, fmt.Errorf("failed to create page directory: %w", err)
	}

	cleanup := func() {
		os.Remove(tempFile)
		os.RemoveAll(outDir)
	}
	return tempFile, outDir, cleanup, nil
}

// FromHTML strips boilerplate from an HTML page and converts the main
// content to markdown. Returns the page title alongside the markdown.
func (e *Extractor) FromHTML(baseURL, htmlContent string) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	doc.Find("script, style, noscript").Remove()
	doc.Find("nav, header, footer, aside").Remove()

	content := doc.Find("main, article, [role=main]").First()
	if content.Length() == 0 {
		content = doc.Find("body").First()
	}
	if content.Length() == 0 {
		content = doc.Selection
	}

	cleanedHTML, err := content.Html()
	if err != nil {
		return "", "", fmt.Errorf("failed to serialize HTML content: %w", err)
	}

	converter := md.NewConverter(baseURL, true, nil)
	markdown, err := converter.ConvertString(cleanedHTML)
	if err != nil {
		return "", "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}

	return title, cleanWhitespace(markdown), nil
}

// FromMarkdown renders markdown to HTML and extracts the plain text, so
// heading markers and link syntax stay out of the index.
func (e *Extractor) FromMarkdown(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(&buf)
	if err != nil {
		return "", fmt.Errorf("failed to parse rendered markdown: %w", err)
	}

	var builder strings.Builder
	doc.Find("body").Children().Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}
		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		builder.WriteString(text)
	})

	return builder.String(), nil
}

func cleanWhitespace(text string) string {
	text = spaceRegex.ReplaceAllString(text, " ")
	text = newlineRegex.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
