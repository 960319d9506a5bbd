package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Task names one kind of LLM request against a paper.
type Task string

const (
	Summary              Task = "summary"
	ProblemContributions Task = "problem_contributions"
	MethodsKeywords      Task = "methods_keywords"
	Limitations          Task = "limitations"
	Chat                 Task = "chat"
)

const (
	PaperPlaceholder    = "{paper_text}"
	QuestionPlaceholder = "{user_question}"
)

// Character budgets for the paper prefix substituted into a prompt.
const (
	AnalysisBudget = 5000
	ChatBudget     = 6000
)

// AnalysisTasks lists the four analysis tasks in the order they run.
var AnalysisTasks = []Task{Summary, ProblemContributions, MethodsKeywords, Limitations}

type taskSpec struct {
	file   string
	budget int
	title  string
	chat   bool
}

var tasks = map[Task]taskSpec{
	Summary:              {file: "summary.txt", budget: AnalysisBudget, title: "Summary"},
	ProblemContributions: {file: "problem_contributions.txt", budget: AnalysisBudget, title: "Problem & Contributions"},
	MethodsKeywords:      {file: "methods_keywords.txt", budget: AnalysisBudget, title: "Methods & Keywords"},
	Limitations:          {file: "limitations.txt", budget: AnalysisBudget, title: "Limitations & Future Research"},
	Chat:                 {file: "chat_mode.txt", budget: ChatBudget, title: "Q&A", chat: true},
}

// ParseTask validates a task name.
func ParseTask(s string) (Task, error) {
	t := Task(s)
	if _, ok := tasks[t]; !ok {
		return "", fmt.Errorf("unknown task %q", s)
	}
	return t, nil
}

// Valid reports whether t is a known task.
func (t Task) Valid() bool {
	_, ok := tasks[t]
	return ok
}

// Budget is the number of paper characters the task's prompt may carry.
func (t Task) Budget() int { return tasks[t].budget }

// File is the template filename for the task.
func (t Task) File() string { return tasks[t].file }

// Title is a human-readable heading for the task's answer.
func (t Task) Title() string { return tasks[t].title }

// IsChat reports whether the task takes a user question.
func (t Task) IsChat() bool { return tasks[t].chat }

// DownloadName is the fixed filename an answer is downloaded as.
func (t Task) DownloadName() string { return string(t) + ".txt" }

// TemplateError means a prompt template could not be used. It is a
// configuration fault, not a backend failure.
type TemplateError struct {
	Task Task
	Path string
	Err  error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("prompt template %s for %s: %v", e.Path, e.Task, e.Err)
}

func (e *TemplateError) Unwrap() error { return e.Err }

// Load reads the task's template from dir. Templates are read on every call
// so edits take effect without a restart.
func Load(dir string, task Task) (string, error) {
	if !task.Valid() {
		return "", &TemplateError{Task: task, Err: fmt.Errorf("unknown task")}
	}
	path := filepath.Join(dir, task.File())
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &TemplateError{Task: task, Path: path, Err: err}
	}
	tmpl := string(data)

	if !strings.Contains(tmpl, PaperPlaceholder) {
		return "", &TemplateError{Task: task, Path: path, Err: fmt.Errorf("missing %s placeholder", PaperPlaceholder)}
	}
	if task.IsChat() && !strings.Contains(tmpl, QuestionPlaceholder) {
		return "", &TemplateError{Task: task, Path: path, Err: fmt.Errorf("missing %s placeholder", QuestionPlaceholder)}
	}
	return tmpl, nil
}

// Truncate returns the first n characters of s. It cuts on rune boundaries
// and never looks at sentence structure.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

// Build fills a template. The paper text is truncated to the task budget;
// the question is substituted verbatim for chat tasks. No escaping is done.
func Build(tmpl string, task Task, paper, question string) string {
	out := strings.ReplaceAll(tmpl, PaperPlaceholder, Truncate(paper, task.Budget()))
	if task.IsChat() {
		out = strings.ReplaceAll(out, QuestionPlaceholder, question)
	}
	return out
}

// EstimateTokens gives a rough token count from the word count.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
