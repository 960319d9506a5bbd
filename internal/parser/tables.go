package parser

import (
	"fmt"
	"math"

	"github.com/dgallion1/researchmate/internal/document"
)

// TableDetector finds tabular regions in a PDF.
type TableDetector interface {
	DetectTables(path string) ([]document.Table, error)
}

// minTableRows counts the header line.
const minTableRows = 2

// alignFactor is how far, in font sizes, a cell may sit from its header
// cell and still belong to the same column.
const alignFactor = 1.0

// LayoutTableDetector reads text positions and treats runs of consecutive
// lines whose gap-separated cells line up column by column as tables.
type LayoutTableDetector struct{}

// DetectTables scans every page of the file.
func (d *LayoutTableDetector) DetectTables(path string) ([]document.Table, error) {
	src, err := OpenPDF(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	ps, ok := src.(*pdfSource)
	if !ok {
		return nil, fmt.Errorf("unexpected page source %T", src)
	}

	pages := make([][]line, 0, ps.NumPage())
	for n := 1; n <= ps.NumPage(); n++ {
		lines, err := ps.pageLines(n)
		if err != nil {
			return nil, err
		}
		pages = append(pages, lines)
	}
	return detectTables(pages), nil
}

// detectTables works on pre-read lines; pages[i] holds page i+1. Each
// column of a two-column page is scanned on its own, so the gutter never
// reads as a cell boundary.
func detectTables(pages [][]line) []document.Table {
	var tables []document.Table
	for i, lines := range pages {
		for _, seg := range columnSegments(lines) {
			var run [][]cell
			flush := func() {
				if len(run) >= minTableRows {
					tables = append(tables, document.Table{
						Page:    i + 1,
						Headers: cellTexts(run[0]),
						Rows:    rowTexts(run[1:]),
					})
				}
				run = nil
			}

			for _, l := range seg {
				cells := l.cellSpans()
				if len(cells) < 2 {
					flush()
					continue
				}
				if len(run) > 0 && !aligned(run[0], cells, l.size()) {
					flush()
				}
				run = append(run, cells)
			}
			flush()
		}
	}
	return tables
}

// aligned reports whether row has the header's column count and every cell
// lines up with its header cell on the left edge, right edge or center.
func aligned(header, row []cell, size float64) bool {
	if len(header) != len(row) {
		return false
	}
	tol := alignFactor * size
	for k := range header {
		h, r := header[k], row[k]
		switch {
		case math.Abs(h.X-r.X) <= tol:
		case math.Abs(h.End-r.End) <= tol:
		case math.Abs((h.X+h.End)-(r.X+r.End))/2 <= tol:
		default:
			return false
		}
	}
	return true
}

func cellTexts(cells []cell) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.Text
	}
	return out
}

func rowTexts(rows [][]cell) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = cellTexts(r)
	}
	return out
}
