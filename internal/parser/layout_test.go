package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(y float64, spans ...span) line {
	return line{Y: y, Spans: spans}
}

func TestLineText_SpacesOnlyAtGaps(t *testing.T) {
	l := words(700,
		span{X: 94, W: 30, Size: 10, S: "nets"},
		span{X: 72, W: 20, Size: 10, S: "Deep"},
		span{X: 124, W: 5, Size: 10, S: "."},
	)
	assert.Equal(t, "Deep nets.", l.text())
}

func TestLineCells_SplitOnWideGaps(t *testing.T) {
	l := words(700,
		span{X: 72, W: 30, Size: 10, S: "Model"},
		span{X: 200, W: 20, Size: 10, S: "Top-1"},
		span{X: 222, W: 30, Size: 10, S: "accuracy"},
	)
	assert.Equal(t, []string{"Model", "Top-1 accuracy"}, l.cells())
	assert.Nil(t, line{}.cells())
}

func TestGroupBlocks_SplitsOnVerticalGaps(t *testing.T) {
	lines := []line{
		words(650, span{X: 72, W: 80, Size: 10, S: "Figure 1: Overview"}),
		words(700, span{X: 72, W: 40, Size: 10, S: "First line"}),
		words(688, span{X: 72, W: 40, Size: 10, S: "second line"}),
		words(600, span{X: 72, W: 5, Size: 10, S: " "}),
	}
	blocks := groupBlocks(lines)
	require.Len(t, blocks, 2)
	assert.Equal(t, "First line\nsecond line", blocks[0])
	assert.Equal(t, "Figure 1: Overview", blocks[1])
}

func TestSplitParagraphs(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\n\n  \nSecond paragraph.\n\nThird paragraph."
	want := []string{
		"First paragraph line one.\nFirst paragraph line two.",
		"Second paragraph.",
		"Third paragraph.",
	}
	assert.Equal(t, want, splitParagraphs(input))
	assert.Empty(t, splitParagraphs(""))
}

// twoColumnPage is a full-width title over two columns separated by a
// 38pt gutter. Each column has prose then a figure caption; the left column
// ends with a small table whose cells stay left of the gutter.
func twoColumnPage() []line {
	col := func(y float64, left, right string) line {
		return words(y,
			span{X: 72, W: 200, Size: 10, S: left},
			span{X: 310, W: 200, Size: 10, S: right},
		)
	}
	tableRow := func(y float64, a, b, right string) line {
		return words(y,
			span{X: 72, W: 30, Size: 10, S: a},
			span{X: 200, W: 20, Size: 10, S: b},
			span{X: 310, W: 200, Size: 10, S: right},
		)
	}
	return []line{
		words(740, span{X: 150, W: 300, Size: 10, S: "Robust Models Under Shift"}),
		col(700, "Deep networks have", "prior work shows that"),
		col(688, "improved accuracy on", "such models generalize"),
		col(676, "many benchmarks.", "poorly under shift."),
		col(650, "Figure 1: Overview of", "Figure 2: Error rates"),
		col(638, "the proposed method.", "across datasets."),
		tableRow(600, "Model", "Acc", "Results are"),
		tableRow(588, "ResNet", "0.91", "consistent across"),
		tableRow(576, "ViT", "0.93", "all splits."),
	}
}

func TestGroupBlocks_TwoColumnReadingOrder(t *testing.T) {
	blocks := groupBlocks(twoColumnPage())
	assert.Equal(t, []string{
		"Robust Models Under Shift",
		"Deep networks have\nimproved accuracy on\nmany benchmarks.",
		"Figure 1: Overview of\nthe proposed method.",
		"Model Acc\nResNet 0.91\nViT 0.93",
		"prior work shows that\nsuch models generalize\npoorly under shift.",
		"Figure 2: Error rates\nacross datasets.",
		"Results are\nconsistent across\nall splits.",
	}, blocks)

	assert.Equal(t, []string{
		"Figure 1: Overview of\nthe proposed method.",
		"Figure 2: Error rates\nacross datasets.",
	}, Captions(blocks))
}

func TestGutterX(t *testing.T) {
	g, ok := gutterX(orderLines(twoColumnPage()))
	require.True(t, ok)
	assert.Greater(t, g, 272.0)
	assert.Less(t, g, 310.0)

	single := []line{
		words(700, span{X: 72, W: 440, Size: 10, S: "One column of prose that runs the full width."}),
		words(688, span{X: 72, W: 430, Size: 10, S: "Another full line."}),
		words(676, span{X: 72, W: 420, Size: 10, S: "And another."}),
		words(664, span{X: 72, W: 200, Size: 10, S: "Short end."}),
	}
	_, ok = gutterX(single)
	assert.False(t, ok)
}

func TestLineSplitAt_NarrowGapIsFullWidth(t *testing.T) {
	l := words(700,
		span{X: 72, W: 100, Size: 10, S: "Deep Learning"},
		span{X: 176, W: 60, Size: 10, S: "for Papers"},
	)
	_, _, ok := l.splitAt(174)
	assert.False(t, ok)

	left, right, ok := l.splitAt(174.0 + 100)
	require.True(t, ok)
	assert.Len(t, left.Spans, 2)
	assert.Empty(t, right.Spans)
}
