package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/researchmate/internal/parser"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <pdf> <question>...",
		Short: "Answer questions about a paper",
		Long: `Ask sends each question on its own with the paper text. Earlier
questions and answers are not part of later prompts.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
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

			failed := 0
			for _, q := range args[1:] {
				answer, err := orch.Ask(cmd.Context(), paper, q)
				if err != nil {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "Q: %s\nerror: %v\n\n", q, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Q: %s\nA: %s\n\n", q, answer)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d questions failed", failed, len(args)-1)
			}
			return nil
		},
	}
}
