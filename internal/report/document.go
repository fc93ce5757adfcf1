package report

import (
	"fmt"
	"strings"

	ledongthuc "github.com/ledongthuc/pdf"
	pdfplumber "github.com/pyhub-apps/pdfplumber-golang"
)

// Table is one extracted table: ordered rows of cells. A cell may carry
// embedded newlines when the instrument packs several sub-values into it.
type Table struct {
	Rows [][]string
}

// Document is the decoded content of one biometry report PDF. The underlying
// file handle is released before Open returns; a Document is plain data and
// is only valid for the duration of one extraction pass.
type Document struct {
	Path   string
	Pages  int
	Text   string
	Tables []Table
}

// Loader reads biometry report PDFs into Documents.
type Loader struct {
	maxFileSize int64
	maxTextSize int
	validator   *Validator
}

// NewLoader creates a loader with the given file size constraint.
func NewLoader(maxFileSize int64) *Loader {
	return &Loader{
		maxFileSize: maxFileSize,
		maxTextSize: 10 * 1024 * 1024, // 10MB text limit
		validator:   NewValidator(maxFileSize),
	}
}

// Open validates the file at path and extracts its full text and all tables.
func (l *Loader) Open(path string) (*Document, error) {
	if err := l.validator.validateReportFile(path); err != nil {
		return nil, err
	}

	doc, err := pdfplumber.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	result := &Document{
		Path:  path,
		Pages: doc.PageCount(),
	}

	var text strings.Builder
	for _, page := range doc.GetPages() {
		pageText := page.ExtractText()
		if text.Len()+len(pageText) > l.maxTextSize {
			remaining := l.maxTextSize - text.Len()
			if remaining > 0 {
				text.WriteString(pageText[:remaining])
			}
		} else {
			text.WriteString(pageText)
			text.WriteString("\n")
		}

		for _, table := range page.ExtractTables() {
			if len(table.Rows) == 0 {
				continue
			}
			result.Tables = append(result.Tables, Table{Rows: table.Rows})
		}
	}
	result.Text = text.String()

	// Some report variants defeat the layout-aware extractor; fall back to
	// plain text so the regex paths still have something to work with.
	if strings.TrimSpace(result.Text) == "" {
		plain, err := extractPlainText(path, l.maxTextSize)
		if err == nil {
			result.Text = plain
		}
	}

	return result, nil
}

// extractPlainText pulls concatenated page text straight out of the PDF.
func extractPlainText(path string, maxTextSize int) (string, error) {
	f, reader, err := ledongthuc.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var builder strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			// Continue with other pages even if one fails
			continue
		}

		if builder.Len()+len(content) > maxTextSize {
			remaining := maxTextSize - builder.Len()
			if remaining > 0 {
				builder.WriteString(content[:remaining])
			}
			break
		}

		builder.WriteString(content)
		builder.WriteString("\n")
	}

	return builder.String(), nil
}
