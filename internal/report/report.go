package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fumiama/go-docx"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"

	"github.com/dgallion1/researchmate/internal/prompt"
	"github.com/dgallion1/researchmate/internal/session"
)

// Section is one analysis answer ready for export.
type Section struct {
	Task    prompt.Task
	Heading string
	Body    string // Answer as returned by the model, usually Markdown
	Err     string // Set when the task failed in the last analysis
}

// Report is everything exported for a session.
type Report struct {
	Title     string
	Filename  string
	Sections  []Section
	History   []session.Turn // Newest first
	Generated time.Time
}

// FromSession gathers the session's answers in task order.
func FromSession(s *session.Session) Report {
	snap := s.Snapshot()
	r := Report{
		Title:     snap.Title,
		Filename:  snap.Filename,
		History:   snap.History,
		Generated: time.Now().UTC(),
	}
	if r.Title == "" {
		r.Title = snap.Filename
	}
	for _, task := range prompt.AnalysisTasks {
		r.Sections = append(r.Sections, Section{
			Task:    task,
			Heading: task.Title(),
			Body:    snap.Answers[string(task)],
			Err:     snap.Errors[string(task)],
		})
	}
	return r
}

// WriteText writes one answer exactly as stored.
func WriteText(w io.Writer, answer string) error {
	_, err := io.WriteString(w, answer)
	return err
}

// WriteHTML renders answers through goldmark. Chat text is escaped, never
// interpreted as markup.
func WriteHTML(w io.Writer, r Report) error {
	var buf bytes.Buffer
	title := html.EscapeString(r.Title)

	fmt.Fprintf(&buf, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>ResearchMate: %s</title>\n</head>\n<body>\n", title)
	fmt.Fprintf(&buf, "<h1>%s</h1>\n", title)
	fmt.Fprintf(&buf, "<p class=\"meta\">Source: %s. Generated %s.</p>\n",
		html.EscapeString(r.Filename), r.Generated.Format(time.RFC3339))

	for _, sec := range r.Sections {
		fmt.Fprintf(&buf, "<section id=\"%s\">\n<h2>%s</h2>\n", sec.Task, html.EscapeString(sec.Heading))
		switch {
		case sec.Err != "":
			fmt.Fprintf(&buf, "<p class=\"error\">Not available: %s</p>\n", html.EscapeString(sec.Err))
		case sec.Body == "":
			buf.WriteString("<p class=\"empty\">Not analyzed yet.</p>\n")
		default:
			if err := goldmark.Convert([]byte(sec.Body), &buf); err != nil {
				return fmt.Errorf("render %s: %w", sec.Task, err)
			}
		}
		buf.WriteString("</section>\n")
	}

	if len(r.History) > 0 {
		buf.WriteString("<section id=\"chat\">\n<h2>Q&amp;A</h2>\n")
		for _, turn := range r.History {
			fmt.Fprintf(&buf, "<div class=\"turn\">\n<p class=\"q\"><b>Q:</b> %s</p>\n<p class=\"a\"><b>A:</b> %s</p>\n</div>\n",
				html.EscapeString(turn.Question), html.EscapeString(turn.Answer))
		}
		buf.WriteString("</section>\n")
	}
	buf.WriteString("</body>\n</html>\n")

	_, err := buf.WriteTo(w)
	return err
}

// WriteDOCX builds a Word document with one heading per section.
func WriteDOCX(w io.Writer, r Report) error {
	doc := docx.New().WithDefaultTheme()

	doc.AddParagraph().AddText(r.Title).Bold().Size("40")
	doc.AddParagraph().AddText("Source: " + r.Filename).Italic()

	for _, sec := range r.Sections {
		doc.AddParagraph().AddText(sec.Heading).Bold().Size("30")
		body := sec.Body
		switch {
		case sec.Err != "":
			body = "Not available: " + sec.Err
		case body == "":
			body = "Not analyzed yet."
		}
		addLines(doc, body)
	}

	if len(r.History) > 0 {
		doc.AddParagraph().AddText("Q&A").Bold().Size("30")
		for _, turn := range r.History {
			doc.AddParagraph().AddText("Q: " + turn.Question).Bold()
			addLines(doc, "A: "+turn.Answer)
		}
	}

	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}

func addLines(doc *docx.Docx, text string) {
	for _, line := range strings.Split(text, "\n") {
		doc.AddParagraph().AddText(line)
	}
}

// WriteHistoryCSV exports the chat history, oldest first.
func WriteHistoryCSV(w io.Writer, turns []session.Turn) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"asked_at", "question", "answer"}); err != nil {
		return err
	}
	for _, t := range turns {
		if err := cw.Write([]string{t.AskedAt.UTC().Format(time.RFC3339), t.Question, t.Answer}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
