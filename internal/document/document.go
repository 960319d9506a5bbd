package document

import (
	"fmt"
	"strings"
)

// Document is the normalized text representation of a parsed paper.
// It is built once by the extractor and only read afterwards.
type Document struct {
	Title  string  // Source filename without extension
	Pages  []Page  // Physical page order
	Tables []Table // Detection order
	text   string  // Rendered form, computed by Seal
	sealed bool
}

// Page is one physical page of the source PDF.
type Page struct {
	Number   int      // 1-based
	Text     string   // Plain text exactly as the parser produced it
	Captions []string // Trimmed figure caption blocks
}

// Table is a detected tabular region. Headers label the columns of every row.
type Table struct {
	Page    int
	Headers []string
	Rows    [][]string
}

// Label names a table by its first column header.
func (t Table) Label() string {
	if len(t.Headers) == 0 {
		return ""
	}
	return t.Headers[0]
}

// RowLine describes one table row as "- header: value, header: value".
// Extra cells without a header (or headers without a cell) are dropped.
func (t Table) RowLine(row []string) string {
	n := min(len(t.Headers), len(row))
	parts := make([]string, 0, n)
	for i := range n {
		parts = append(parts, t.Headers[i]+": "+row[i])
	}
	return "- " + strings.Join(parts, ", ")
}

// Seal renders the document text and freezes it. Calling Seal twice is a no-op.
func (d *Document) Seal() *Document {
	if d.sealed {
		return d
	}
	d.text = render(d.Pages, d.Tables)
	d.sealed = true
	return d
}

// String returns the assembled text. An unsealed document is rendered on the fly.
func (d *Document) String() string {
	if d == nil {
		return ""
	}
	if d.sealed {
		return d.text
	}
	return render(d.Pages, d.Tables)
}

// Len is the document length in characters (runes).
func (d *Document) Len() int {
	return len([]rune(d.String()))
}

func render(pages []Page, tables []Table) string {
	var sb strings.Builder
	for _, p := range pages {
		fmt.Fprintf(&sb, "\n[Page %d]\n%s\n", p.Number, p.Text)
		for _, c := range p.Captions {
			fmt.Fprintf(&sb, "[Page %d] Caption: %s\n", p.Number, c)
		}
	}
	for i, t := range tables {
		fmt.Fprintf(&sb, "[Table %d: %s]\n", i+1, t.Label())
		for _, row := range t.Rows {
			sb.WriteString(t.RowLine(row))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
