package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/poiesic/docqa/core"
)

var pdfMagic = []byte("%PDF-")

// Extractor converts raw uploads to text.
type Extractor struct {
	logger *slog.Logger
	// maxBytes bounds the accepted input size. Zero means unlimited.
	maxBytes int64
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// WithMaxBytes rejects inputs larger than n bytes.
func WithMaxBytes(n int64) Option {
	return func(e *Extractor) {
		e.maxBytes = n
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		logger: slog.Default().With("component", "extract"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the trimmed text content of data.
// All failures, including documents with no text, wrap core.ErrExtraction.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty document", core.ErrExtraction)
	}
	if e.maxBytes > 0 && int64(len(data)) > e.maxBytes {
		return "", fmt.Errorf("%w: document is %d bytes, limit is %d", core.ErrExtraction, len(data), e.maxBytes)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		text string
		err  error
	)
	if IsPDF(filename, data) {
		text, err = e.extractPDF(data)
	} else {
		text, err = extractText(data)
	}
	if err != nil {
		e.logger.Debug("extraction failed", "filename", filename, "err", err)
		return "", fmt.Errorf("%w: %w", core.ErrExtraction, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: document contains no text", core.ErrExtraction)
	}
	e.logger.Debug("extracted document", "filename", filename, "bytes", len(data), "chars", len(text))
	return text, nil
}

// IsPDF reports whether data looks like a PDF.
func IsPDF(filename string, data []byte) bool {
	if bytes.HasPrefix(data, pdfMagic) {
		return true
	}
	return strings.EqualFold(filepath.Ext(filename), ".pdf")
}

// extractPDF reads the plain text of every page.
// The pdf package panics on some malformed inputs, so panics become errors.
func (e *Extractor) extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

func extractText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", fmt.Errorf("unsupported binary document")
	}
	return string(data), nil
}
