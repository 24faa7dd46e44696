package attachment

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// PDFReader extracts text from supporting documents attached to change
// requests. The text feeds the AI impact assessor.
type PDFReader struct {
	maxPages int
	logger   *zap.Logger
}

// NewPDFReader creates a new PDF reader. maxPages caps how much of a
// document is extracted; zero means all pages.
func NewPDFReader(maxPages int, logger *zap.Logger) *PDFReader {
	return &PDFReader{
		maxPages: maxPages,
		logger:   logger,
	}
}

// ExtractText extracts plain text from a PDF file using mupdf
func (r *PDFReader) ExtractText(pdfPath string) (string, error) {
	if _, err := os.Stat(pdfPath); os.IsNotExist(err) {
		return "", fmt.Errorf("PDF file not found: %s", pdfPath)
	}

	if ext := strings.ToLower(filepath.Ext(pdfPath)); ext != ".pdf" {
		return "", fmt.Errorf("unsupported file type: %s", ext)
	}

	doc, err := fitz.New(pdfPath)
	if err != nil {
		r.logger.Error("Failed to open PDF", zap.String("path", pdfPath), zap.Error(err))
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if r.maxPages > 0 && pages > r.maxPages {
		pages = r.maxPages
	}

	var sb strings.Builder
	for page := 0; page < pages; page++ {
		text, err := doc.Text(page)
		if err != nil {
			r.logger.Warn("Failed to extract page text",
				zap.String("path", pdfPath),
				zap.Int("page", page),
				zap.Error(err))
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	extracted := strings.TrimSpace(sb.String())
	if extracted == "" {
		return "", fmt.Errorf("no text extracted from %s", pdfPath)
	}

	r.logger.Info("Extracted PDF text",
		zap.String("path", pdfPath),
		zap.Int("pages", pages),
		zap.Int("chars", len(extracted)))

	return extracted, nil
}

// ExtractAll extracts text from every PDF in a directory, concatenated with
// file name headers. Non-PDF files are skipped.
func (r *PDFReader) ExtractAll(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read attachment directory: %w", err)
	}

	var sb strings.Builder
	for _, entry := range entries {
		if entry.IsDir() || strings.ToLower(filepath.Ext(entry.Name())) != ".pdf" {
			continue
		}

		text, err := r.ExtractText(filepath.Join(dir, entry.Name()))
		if err != nil {
			r.logger.Warn("Skipping attachment", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}

		sb.WriteString(fmt.Sprintf("--- %s ---\n%s\n", entry.Name(), text))
	}

	return strings.TrimSpace(sb.String()), nil
}
