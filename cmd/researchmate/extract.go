package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dgallion1/researchmate/internal/parser"
)

func newExtractCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <pdf>",
		Short: "Print the extracted paper text",
		Long: `Extract prints the paper text exactly as it is sent to the model:
page markers, figure captions, then any detected tables.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, _, err := opts.readPaper(cmd, args[0])
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), doc.String())
			return err
		},
	}
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <pdf>",
		Short: "Report whether the PDF passes the research-paper check",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, _, _, err := opts.readPaper(cmd, args[0])
			if err != nil {
				return err
			}
			text := doc.String()
			hits := parser.KeywordHits(text)
			if err := parser.CheckPaper(text); err != nil {
				return fmt.Errorf("%s: %w (%d section keywords found)", args[0], err, hits)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: research paper (%d section keywords, %d pages, %d tables)\n",
				args[0], hits, len(doc.Pages), len(doc.Tables))
			return nil
		},
	}
}
