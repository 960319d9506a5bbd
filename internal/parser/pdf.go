package parser

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// pdfSource reads pages with ledongthuc/pdf.
type pdfSource struct {
	f      *os.File
	reader *pdflib.Reader
}

var newPDFReader = pdflib.NewReader

// OpenPDF opens path with the pure-Go PDF reader. The file is closed on any
// failure, including a reader panic.
func OpenPDF(path string) (src PageSource, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		// The reader panics on some malformed xref tables.
		if r := recover(); r != nil {
			src, err = nil, fmt.Errorf("open pdf: %v", r)
		}
		if err != nil {
			f.Close()
		}
	}()

	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	reader, err := newPDFReader(f, fi.Size())
	if err != nil {
		return nil, err
	}
	return &pdfSource{f: f, reader: reader}, nil
}

func (s *pdfSource) NumPage() int { return s.reader.NumPage() }

func (s *pdfSource) PageText(n int) (text string, err error) {
	defer recoverPage(n, &err)

	page := s.reader.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}

func (s *pdfSource) PageBlocks(n int) (blocks []string, err error) {
	lines, err := s.pageLines(n)
	if err != nil {
		return nil, err
	}
	return groupBlocks(lines), nil
}

func (s *pdfSource) pageLines(n int) (lines []line, err error) {
	defer recoverPage(n, &err)

	page := s.reader.Page(n)
	if page.V.IsNull() {
		return nil, nil
	}
	rows, err := page.GetTextByRow()
	if err != nil {
		return nil, err
	}
	return linesFromRows(rows), nil
}

func (s *pdfSource) Close() error { return s.f.Close() }

func recoverPage(n int, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("page %d: %v", n, r)
	}
}

func linesFromRows(rows pdflib.Rows) []line {
	out := make([]line, 0, len(rows))
	for _, row := range rows {
		if row == nil || len(row.Content) == 0 {
			continue
		}
		l := line{Y: float64(row.Position)}
		for _, t := range row.Content {
			l.Spans = append(l.Spans, span{X: t.X, W: t.W, Size: t.FontSize, S: t.S})
		}
		out = append(out, l)
	}
	return out
}

// ValidatePDF runs pdfcpu's relaxed validation over the file.
func ValidatePDF(path string) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, conf); err != nil {
		return fmt.Errorf("validate pdf: %w", err)
	}
	return nil
}

// pdftotextSource holds the pages produced by poppler's pdftotext.
type pdftotextSource struct {
	pages []string
}

// OpenPdftotext runs pdftotext once and splits its output on form feeds.
func OpenPdftotext(path string) (PageSource, error) {
	cmd := exec.Command("pdftotext", "-layout", path, "-")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w", err)
	}
	pages := splitPages(string(out))
	// pdftotext terminates every page with a form feed.
	if len(pages) > 0 && strings.TrimSpace(pages[len(pages)-1]) == "" {
		pages = pages[:len(pages)-1]
	}
	return &pdftotextSource{pages: pages}, nil
}

func (s *pdftotextSource) NumPage() int { return len(s.pages) }

func (s *pdftotextSource) PageText(n int) (string, error) {
	if n < 1 || n > len(s.pages) {
		return "", fmt.Errorf("page %d out of range", n)
	}
	return s.pages[n-1], nil
}

func (s *pdftotextSource) PageBlocks(n int) ([]string, error) {
	text, err := s.PageText(n)
	if err != nil {
		return nil, err
	}
	return splitParagraphs(text), nil
}

func (s *pdftotextSource) Close() error { return nil }

func splitPages(text string) []string {
	return strings.Split(text, "\f")
}
