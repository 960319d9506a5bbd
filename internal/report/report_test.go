package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fumiama/go-docx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/dgallion1/researchmate/internal/document"
	"github.com/dgallion1/researchmate/internal/prompt"
	"github.com/dgallion1/researchmate/internal/session"
)

func analyzedSession() *session.Session {
	doc := (&document.Document{Title: "attention", Pages: []document.Page{{Number: 1, Text: "Abstract"}}}).Seal()
	s := session.New("01HZX", "attention.pdf", doc)
	s.SetAnalysis(map[prompt.Task]string{
		prompt.Summary:              "## Overview\n\nThe paper proposes **transformers**.",
		prompt.ProblemContributions: "- Removes recurrence",
		prompt.MethodsKeywords:      "Self-attention, <script>alert(1)</script>",
	}, map[prompt.Task]error{
		prompt.Limitations: errors.New("groq backend rate_limit"),
	})
	s.AddTurn("What is <b>new</b>?", "Attention & parallelism")
	s.AddTurn("Second?", "Yes")
	return s
}

func TestFromSession_TaskOrder(t *testing.T) {
	r := FromSession(analyzedSession())
	require.Len(t, r.Sections, 4)
	for i, task := range prompt.AnalysisTasks {
		assert.Equal(t, task, r.Sections[i].Task)
	}
	assert.Equal(t, "attention", r.Title)
	assert.Equal(t, "groq backend rate_limit", r.Sections[3].Err)
	assert.Equal(t, "Second?", r.History[0].Question, "history newest first")
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTML(&buf, FromSession(analyzedSession())))
	out := buf.String()

	assert.Contains(t, out, "<h2>Overview</h2>")
	assert.Contains(t, out, "<strong>transformers</strong>")
	assert.Contains(t, out, "<li>Removes recurrence</li>")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "What is &lt;b&gt;new&lt;/b&gt;?")
	assert.Contains(t, out, "Attention &amp; parallelism")
	assert.Contains(t, out, "Not available: groq backend rate_limit")

	_, err := html.Parse(strings.NewReader(out))
	assert.NoError(t, err)
}

func docxText(t *testing.T, data []byte) []string {
	t.Helper()
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	var lines []string
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		var sb strings.Builder
		for _, child := range para.Children {
			run, ok := child.(*docx.Run)
			if !ok {
				continue
			}
			for _, rc := range run.Children {
				if txt, ok := rc.(*docx.Text); ok {
					sb.WriteString(txt.Text)
				}
			}
		}
		lines = append(lines, sb.String())
	}
	return lines
}

func TestWriteDOCX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDOCX(&buf, FromSession(analyzedSession())))

	lines := docxText(t, buf.Bytes())
	require.NotEmpty(t, lines)
	assert.Equal(t, "attention", lines[0])
	assert.Contains(t, lines, "Summary")
	assert.Contains(t, lines, "Limitations & Future Research")
	assert.Contains(t, lines, "Not available: groq backend rate_limit")
	assert.Contains(t, lines, "Q: Second?")
}

func TestWriteHistoryCSV(t *testing.T) {
	turns := []session.Turn{
		{Question: "q1, with comma", Answer: "a1", AskedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{Question: "q2", Answer: "line\nbreak"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteHistoryCSV(&buf, turns))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"asked_at", "question", "answer"}, records[0])
	assert.Equal(t, []string{"2024-01-02T03:04:05Z", "q1, with comma", "a1"}, records[1])
	assert.Equal(t, "line\nbreak", records[2][2])
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, "  verbatim\n"))
	assert.Equal(t, "  verbatim\n", buf.String())
}
