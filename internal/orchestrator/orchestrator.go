package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/researchmate/internal/llm"
	"github.com/dgallion1/researchmate/internal/prompt"
)

// ErrEmptyQuestion is returned by Ask for a blank question. No call is made.
var ErrEmptyQuestion = errors.New("question is empty")

// Options configures an Orchestrator.
type Options struct {
	PromptsDir string
	// Timeout bounds each backend call. Zero leaves it to the transport.
	Timeout time.Duration
}

// Orchestrator turns a paper plus a task template into one backend call.
type Orchestrator struct {
	backend llm.Backend
	stats   *llm.Stats
	opts    Options
	log     *slog.Logger
}

// New creates an orchestrator. stats may be nil.
func New(backend llm.Backend, stats *llm.Stats, opts Options, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	if stats != nil {
		stats.SetModel(backend.Model())
	}
	return &Orchestrator{backend: backend, stats: stats, opts: opts, log: log}
}

// Model names the backend in use.
func (o *Orchestrator) Model() string { return o.backend.Model() }

// Stats returns the latency tracker, or nil.
func (o *Orchestrator) Stats() *llm.Stats { return o.stats }

// RunTask loads the task's template, fills it with the truncated paper (and
// question, for chat) and issues exactly one backend call. The answer is
// returned verbatim.
func (o *Orchestrator) RunTask(ctx context.Context, task prompt.Task, paper, question string) (string, error) {
	tmpl, err := prompt.Load(o.opts.PromptsDir, task)
	if err != nil {
		return "", err
	}
	p := prompt.Build(tmpl, task, paper, question)

	log := o.log.With("task", string(task), "call_id", uuid.NewString(), "model", o.backend.Model())
	log.Debug("llm call", "prompt_chars", len([]rune(p)), "prompt_tokens_est", prompt.EstimateTokens(p))

	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	answer, err := o.backend.Complete(ctx, p)
	elapsed := time.Since(start)
	if o.stats != nil {
		o.stats.Record(string(task), elapsed, err != nil)
	}
	if err != nil {
		log.Error("llm call failed", "error", err, "duration_ms", elapsed.Milliseconds())
		if !llm.IsBackendError(err) {
			err = &llm.BackendError{Backend: o.backend.Model(), Kind: llm.KindNetwork, Err: err}
		}
		return "", fmt.Errorf("%s: %w", task, err)
	}
	log.Info("llm call complete", "duration_ms", elapsed.Milliseconds(), "answer_chars", len([]rune(answer)))
	return answer, nil
}

// Analysis holds the outcome of the four analysis tasks.
type Analysis struct {
	Answers map[prompt.Task]string
	Errors  map[prompt.Task]error
}

// Complete reports whether every task produced an answer.
func (a *Analysis) Complete() bool { return len(a.Errors) == 0 }

// Analyze runs the analysis tasks one after another. A backend failure is
// recorded for that task and the remaining tasks still run. A template
// problem aborts the whole action before any backend call.
func (o *Orchestrator) Analyze(ctx context.Context, paper string) (*Analysis, error) {
	for _, task := range prompt.AnalysisTasks {
		if _, err := prompt.Load(o.opts.PromptsDir, task); err != nil {
			return nil, err
		}
	}

	a := &Analysis{
		Answers: make(map[prompt.Task]string, len(prompt.AnalysisTasks)),
		Errors:  make(map[prompt.Task]error),
	}
	for _, task := range prompt.AnalysisTasks {
		answer, err := o.RunTask(ctx, task, paper, "")
		if err != nil {
			var te *prompt.TemplateError
			if errors.As(err, &te) {
				return nil, err
			}
			a.Errors[task] = err
			continue
		}
		a.Answers[task] = answer
	}

	o.log.Info("analysis complete",
		"answered", len(a.Answers),
		"failed", len(a.Errors),
	)
	return a, nil
}

// Ask answers one question against the paper. Earlier questions are not
// part of the prompt.
func (o *Orchestrator) Ask(ctx context.Context, paper, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}
	return o.RunTask(ctx, prompt.Chat, paper, question)
}
