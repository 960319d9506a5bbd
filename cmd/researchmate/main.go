// Package main is the researchmate command line: extract a paper, check it
// against the research-paper gate, run the analysis prompts or ask questions
// without starting the HTTP server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dgallion1/researchmate/internal/config"
	"github.com/dgallion1/researchmate/internal/document"
	"github.com/dgallion1/researchmate/internal/llm"
	"github.com/dgallion1/researchmate/internal/orchestrator"
	"github.com/dgallion1/researchmate/internal/parser"
)

// version is set at build time via ldflags.
var version = "dev"

type extractor interface {
	Extract(path string) (*document.Document, error)
}

// Swapped out in tests.
var (
	newBackend   = llm.New
	newExtractor = func(cfg config.Config, log *slog.Logger) extractor {
		return parser.NewExtractor(parser.Options{
			Validate:          cfg.PDFValidate,
			FallbackPdftotext: cfg.PDFFallbackPdftotext,
		}, log)
	}
)

type rootOptions struct {
	cfgFile string
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:   "researchmate",
		Short: "Extract research papers and run analysis prompts against them",
		Long: `researchmate reads a research paper PDF, checks that it looks like a
paper, and sends it through the summary, problem & contributions,
methods & keywords and limitations prompts, or answers questions about it.

Configuration comes from the environment and an optional researchmate.yaml.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default: ./researchmate.yaml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newExtractCmd(opts),
		newCheckCmd(opts),
		newAnalyzeCmd(opts),
		newAskCmd(opts),
	)
	return root
}

func (o *rootOptions) logger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// readPaper loads configuration and extracts the PDF at path.
func (o *rootOptions) readPaper(cmd *cobra.Command, path string) (*document.Document, config.Config, *slog.Logger, error) {
	log := o.logger(cmd)
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return nil, cfg, log, err
	}
	doc, err := newExtractor(cfg, log).Extract(path)
	if err != nil {
		return nil, cfg, log, err
	}
	return doc, cfg, log, nil
}

// orchestrator builds the LLM side. The returned func closes the backend.
func (o *rootOptions) orchestrator(ctx context.Context, cfg config.Config, log *slog.Logger) (*orchestrator.Orchestrator, func(), error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	backend, err := newBackend(ctx, cfg.LLM())
	if err != nil {
		return nil, nil, fmt.Errorf("create llm backend: %w", err)
	}
	orch := orchestrator.New(backend, nil, orchestrator.Options{
		PromptsDir: cfg.PromptsDir,
		Timeout:    cfg.LLMTimeout,
	}, log)
	return orch, func() { backend.Close() }, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
