package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/dgallion1/researchmate/internal/orchestrator"
	"github.com/dgallion1/researchmate/internal/parser"
	"github.com/dgallion1/researchmate/internal/prompt"
)

// analysisOutput is the --format yaml document.
type analysisOutput struct {
	File    string            `yaml:"file"`
	Model   string            `yaml:"model"`
	Answers map[string]string `yaml:"answers"`
	Errors  map[string]string `yaml:"errors,omitempty"`
}

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var (
		outDir string
		format string
	)
	cmd := &cobra.Command{
		Use:   "analyze <pdf>",
		Short: "Run the four analysis prompts against a paper",
		Long: `Analyze runs summary, problem_contributions, methods_keywords and
limitations one after another. A failed task does not stop the others.
With --out each answer is written to <task>.txt in that directory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "yaml" {
				return fmt.Errorf("unknown format %q (want text or yaml)", format)
			}
			doc, cfg, log, err := opts.readPaper(cmd, args[0])
			if err != nil {
				return err
			}
			paper := doc.String()
			if err := parser.CheckPaper(paper); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			orch, closeFn, err := opts.orchestrator(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer closeFn()

			a, err := orch.Analyze(cmd.Context(), paper)
			if err != nil {
				return err
			}

			if outDir != "" {
				if err := writeAnswers(outDir, a); err != nil {
					return err
				}
			}
			switch {
			case format == "yaml":
				if err := writeYAML(cmd.OutOrStdout(), args[0], orch.Model(), a); err != nil {
					return err
				}
			case outDir == "":
				writeText(cmd.OutOrStdout(), a)
			}
			for _, task := range prompt.AnalysisTasks {
				if err, ok := a.Errors[task]; ok {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s failed: %v\n", task, err)
				}
			}
			if !a.Complete() {
				return fmt.Errorf("%d of %d tasks failed", len(a.Errors), len(prompt.AnalysisTasks))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "directory for <task>.txt answer files")
	cmd.Flags().StringVar(&format, "format", "text", "stdout format: text or yaml")
	return cmd
}

func writeAnswers(dir string, a *orchestrator.Analysis) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	for _, task := range prompt.AnalysisTasks {
		answer, ok := a.Answers[task]
		if !ok {
			continue
		}
		path := filepath.Join(dir, task.DownloadName())
		if err := os.WriteFile(path, []byte(answer), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}
	return nil
}

func writeText(w io.Writer, a *orchestrator.Analysis) {
	for _, task := range prompt.AnalysisTasks {
		answer, ok := a.Answers[task]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "== %s ==\n\n%s\n\n", task.Title(), answer)
	}
}

func writeYAML(w io.Writer, file, model string, a *orchestrator.Analysis) error {
	out := analysisOutput{
		File:    file,
		Model:   model,
		Answers: make(map[string]string, len(a.Answers)),
	}
	for task, answer := range a.Answers {
		out.Answers[string(task)] = answer
	}
	if len(a.Errors) > 0 {
		out.Errors = make(map[string]string, len(a.Errors))
		for task, err := range a.Errors {
			out.Errors[string(task)] = err.Error()
		}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}
