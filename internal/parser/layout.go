package parser

import (
	"bufio"
	"math"
	"sort"
	"strings"
)

// span is a run of glyphs placed at X with width W (PDF user space).
type span struct {
	X, W float64
	Size float64
	S    string
}

// line is one visual row of text at baseline Y. Larger Y is higher on the page.
type line struct {
	Y     float64
	Spans []span
}

const (
	// Gap between two spans, in font sizes, that counts as a word break.
	wordGapFactor = 0.15
	// Gap between two spans, in font sizes, that separates table cells.
	cellGapFactor = 1.5
	// Vertical distance, in font sizes, beyond which a new block starts.
	blockGapFactor = 1.6
	defaultSize    = 10.0
)

// Column detection.
const (
	gutterBins = 100
	// The gutter is searched for between these fractions of the text width.
	gutterBandLo = 0.3
	gutterBandHi = 0.7
	// Share of lines allowed to cross the gutter (titles, wide figures).
	gutterMaxCrossing = 0.2
	minColumnLines    = 4
	// Average column width as a share of the text width.
	minColumnWidth = 0.3
)

func (l line) sorted() []span {
	spans := make([]span, len(l.Spans))
	copy(spans, l.Spans)
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].X < spans[j].X })
	return spans
}

func (l line) size() float64 {
	var maxSize float64
	for _, s := range l.Spans {
		maxSize = math.Max(maxSize, s.Size)
	}
	if maxSize <= 0 {
		return defaultSize
	}
	return maxSize
}

// text joins the spans left to right, inserting a space at visible gaps.
func (l line) text() string {
	return joinSpans(l.sorted())
}

// cell is a gap-separated run of spans within a line.
type cell struct {
	X, End float64
	Text   string
}

// cellSpans splits the line on wide horizontal gaps.
func (l line) cellSpans() []cell {
	spans := l.sorted()
	var cells []cell
	emit := func(group []span) {
		text := joinSpans(group)
		if text == "" {
			return
		}
		c := cell{X: group[0].X, End: group[0].X + group[0].W, Text: text}
		for _, s := range group[1:] {
			c.End = math.Max(c.End, s.X+s.W)
		}
		cells = append(cells, c)
	}
	start := 0
	for i := 1; i < len(spans); i++ {
		if gap(spans[i-1], spans[i]) > cellGapFactor*sizeOf(spans[i-1]) {
			emit(spans[start:i])
			start = i
		}
	}
	if len(spans) > 0 {
		emit(spans[start:])
	}
	return cells
}

// cells returns the text of each cell.
func (l line) cells() []string {
	cs := l.cellSpans()
	if len(cs) == 0 {
		return nil
	}
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Text
	}
	return out
}

// bounds returns the leftmost start and rightmost end of the line's spans.
func (l line) bounds() (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range l.Spans {
		lo = math.Min(lo, s.X)
		hi = math.Max(hi, s.X+s.W)
	}
	return lo, hi
}

// splitAt divides the line at x. It fails for full-width lines: a span
// crosses x, or the two sides sit no further apart than a cell gap.
func (l line) splitAt(x float64) (left, right line, ok bool) {
	left.Y, right.Y = l.Y, l.Y
	for _, s := range l.Spans {
		switch {
		case s.X+s.W <= x:
			left.Spans = append(left.Spans, s)
		case s.X >= x:
			right.Spans = append(right.Spans, s)
		default:
			return line{}, line{}, false
		}
	}
	if len(left.Spans) > 0 && len(right.Spans) > 0 {
		_, leftEnd := left.bounds()
		rightStart, _ := right.bounds()
		if rightStart-leftEnd <= cellGapFactor*left.size() {
			return line{}, line{}, false
		}
	}
	return left, right, true
}

func joinSpans(spans []span) string {
	var sb strings.Builder
	for i, s := range spans {
		if i > 0 && needsSpace(spans[i-1], s) {
			sb.WriteByte(' ')
		}
		sb.WriteString(s.S)
	}
	return strings.TrimSpace(sb.String())
}

func needsSpace(prev, next span) bool {
	if strings.HasSuffix(prev.S, " ") || strings.HasPrefix(next.S, " ") {
		return false
	}
	return gap(prev, next) > wordGapFactor*sizeOf(prev)
}

func gap(prev, next span) float64 {
	return next.X - (prev.X + prev.W)
}

func sizeOf(s span) float64 {
	if s.Size <= 0 {
		return defaultSize
	}
	return s.Size
}

// orderLines sorts lines top to bottom.
func orderLines(lines []line) []line {
	out := make([]line, len(lines))
	copy(out, lines)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Y > out[j].Y })
	return out
}

// groupBlocks merges vertically adjacent lines into blocks, column by
// column. A block ends where the distance to the next line exceeds
// blockGapFactor font sizes.
func groupBlocks(lines []line) []string {
	var blocks []string
	for _, seg := range columnSegments(lines) {
		blocks = append(blocks, segmentBlocks(seg)...)
	}
	return blocks
}

// segmentBlocks groups lines that are already in reading order.
func segmentBlocks(ordered []line) []string {
	var blocks []string
	var current []string
	var prev *line

	flush := func() {
		if len(current) > 0 {
			blocks = append(blocks, strings.Join(current, "\n"))
			current = nil
		}
	}

	for i := range ordered {
		l := ordered[i]
		t := l.text()
		if t == "" {
			continue
		}
		if prev != nil && prev.Y-l.Y > blockGapFactor*prev.size() {
			flush()
		}
		current = append(current, t)
		prev = &ordered[i]
	}
	flush()
	return blocks
}

// columnSegments puts a page's lines in reading order. On a two-column page
// each band between full-width lines yields its left column, then its right
// column. Single-column pages come back as one segment.
func columnSegments(lines []line) [][]line {
	ordered := orderLines(lines)
	if len(ordered) == 0 {
		return nil
	}
	g, ok := gutterX(ordered)
	if !ok {
		return [][]line{ordered}
	}

	var segs [][]line
	var full, left, right []line
	flushFull := func() {
		if len(full) > 0 {
			segs = append(segs, full)
			full = nil
		}
	}
	flushColumns := func() {
		for _, col := range [][]line{left, right} {
			if len(col) > 0 {
				segs = append(segs, col)
			}
		}
		left, right = nil, nil
	}

	for _, l := range ordered {
		lft, rgt, split := l.splitAt(g)
		if !split {
			flushColumns()
			full = append(full, l)
			continue
		}
		flushFull()
		if len(lft.Spans) > 0 {
			left = append(left, lft)
		}
		if len(rgt.Spans) > 0 {
			right = append(right, rgt)
		}
	}
	flushFull()
	flushColumns()
	return segs
}

// gutterX finds the gap between two text columns. Few lines may cross it,
// most must have text on both sides, and those sides must read as one wide
// run each rather than table cells.
func gutterX(lines []line) (float64, bool) {
	if len(lines) < minColumnLines {
		return 0, false
	}
	minX, maxX := math.Inf(1), math.Inf(-1)
	for _, l := range lines {
		lo, hi := l.bounds()
		minX, maxX = math.Min(minX, lo), math.Max(maxX, hi)
	}
	width := maxX - minX
	if width <= 0 || math.IsInf(width, 0) {
		return 0, false
	}
	binW := width / gutterBins
	bin := func(x float64) int {
		return min(max(int((x-minX)/binW), 0), gutterBins-1)
	}

	var covered [gutterBins]int
	for _, l := range lines {
		var seen [gutterBins]bool
		for _, s := range l.Spans {
			for i := bin(s.X); i <= bin(s.X+s.W); i++ {
				seen[i] = true
			}
		}
		for i, ok := range seen {
			if ok {
				covered[i]++
			}
		}
	}

	// Widest run of rarely covered bins inside the central band.
	maxCross := int(gutterMaxCrossing * float64(len(lines)))
	bestStart, bestLen := -1, 0
	for i := int(gutterBandLo * gutterBins); i < int(gutterBandHi*gutterBins); {
		if covered[i] > maxCross {
			i++
			continue
		}
		j := i
		for j < int(gutterBandHi*gutterBins) && covered[j] <= maxCross {
			j++
		}
		if j-i > bestLen {
			bestStart, bestLen = i, j-i
		}
		i = j
	}
	if bestStart < 0 {
		return 0, false
	}
	g := minX + (float64(bestStart)+float64(bestLen)/2)*binW

	var twoSided, single int
	var leftW, rightW float64
	for _, l := range lines {
		lft, rgt, ok := l.splitAt(g)
		if !ok || len(lft.Spans) == 0 || len(rgt.Spans) == 0 {
			continue
		}
		twoSided++
		if len(lft.cellSpans()) == 1 && len(rgt.cellSpans()) == 1 {
			single++
		}
		lo, hi := lft.bounds()
		leftW += hi - lo
		lo, hi = rgt.bounds()
		rightW += hi - lo
	}
	if twoSided*2 < len(lines) || single*2 < twoSided {
		return 0, false
	}
	minW := minColumnWidth * width * float64(twoSided)
	if leftW < minW || rightW < minW {
		return 0, false
	}
	return g, true
}

// splitParagraphs splits plain text into blank-line separated paragraphs.
func splitParagraphs(text string) []string {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		l := scanner.Text()
		if strings.TrimSpace(l) == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(l)
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}
	return paragraphs
}
