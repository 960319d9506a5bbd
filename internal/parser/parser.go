package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/dgallion1/researchmate/internal/document"
)

// PageSource is an opened PDF seen page by page.
type PageSource interface {
	NumPage() int
	// PageText returns the page's plain text (1-based page number).
	PageText(n int) (string, error)
	// PageBlocks returns the page's contiguous text regions in reading order.
	PageBlocks(n int) ([]string, error)
	Close() error
}

// Opener opens a PDF file as a PageSource.
type Opener func(path string) (PageSource, error)

// ParseError means the file could not be opened or read as a PDF.
// No partial document accompanies it.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse pdf %s: %v", filepath.Base(e.Path), e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsParseError reports whether err is (or wraps) a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// Options configures an Extractor.
type Options struct {
	Validate          bool // Pre-flight structural validation with pdfcpu
	FallbackPdftotext bool // Use pdftotext when the Go reader fails
}

// Extractor turns a PDF file into a Document: page text, figure captions,
// then any detected tables.
type Extractor struct {
	Open     Opener
	Fallback Opener
	Tables   TableDetector
	Validate func(path string) error
	log      *slog.Logger
}

// NewExtractor wires the ledongthuc/pdf reader, the layout table detector
// and, optionally, pdfcpu validation and the pdftotext fallback.
func NewExtractor(opts Options, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	e := &Extractor{
		Open:   OpenPDF,
		Tables: &LayoutTableDetector{},
		log:    log,
	}
	if opts.Validate {
		e.Validate = ValidatePDF
	}
	if opts.FallbackPdftotext {
		e.Fallback = OpenPdftotext
	}
	return e
}

// Extract parses the PDF at path. Text and caption failures are returned as
// *ParseError; table detection failures are logged and ignored.
func (e *Extractor) Extract(path string) (*document.Document, error) {
	log := e.logger().With("file", filepath.Base(path))

	if e.Validate != nil {
		if err := e.Validate(path); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
	}

	doc, err := e.readPages(e.Open, path)
	if err != nil && e.Fallback != nil {
		log.Warn("pdf reader failed, falling back to pdftotext", "error", err)
		doc, err = e.readPages(e.Fallback, path)
	}
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	doc.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	doc.Tables = e.detectTables(path, log)
	doc.Seal()

	log.Info("extracted document",
		"pages", len(doc.Pages),
		"tables", len(doc.Tables),
		"chars", doc.Len(),
	)
	return doc, nil
}

func (e *Extractor) readPages(open Opener, path string) (*document.Document, error) {
	src, err := open(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	doc := &document.Document{}
	for n := 1; n <= src.NumPage(); n++ {
		text, err := src.PageText(n)
		if err != nil {
			return nil, fmt.Errorf("page %d text: %w", n, err)
		}
		blocks, err := src.PageBlocks(n)
		if err != nil {
			return nil, fmt.Errorf("page %d blocks: %w", n, err)
		}
		doc.Pages = append(doc.Pages, document.Page{
			Number:   n,
			Text:     text,
			Captions: Captions(blocks),
		})
	}
	return doc, nil
}

// detectTables never fails: a detector error means zero tables.
func (e *Extractor) detectTables(path string, log *slog.Logger) []document.Table {
	if e.Tables == nil {
		return nil
	}
	tables, err := e.Tables.DetectTables(path)
	if err != nil {
		log.Debug("no tables detected or error", "error", err)
		return nil
	}
	return tables
}

func (e *Extractor) logger() *slog.Logger {
	if e.log == nil {
		return slog.Default()
	}
	return e.log
}

// Captions keeps the blocks that read as figure captions, trimmed.
func Captions(blocks []string) []string {
	var out []string
	for _, b := range blocks {
		t := strings.TrimSpace(b)
		if IsCaption(t) {
			out = append(out, t)
		}
	}
	return out
}

// IsCaption reports whether a block starts with "figure" or "fig.", ignoring case.
func IsCaption(block string) bool {
	lower := strings.ToLower(strings.TrimSpace(block))
	return strings.HasPrefix(lower, "figure") || strings.HasPrefix(lower, "fig.")
}
