package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/branchview/pkg/errors"
	"github.com/matzehuels/branchview/pkg/graph"
	"github.com/matzehuels/branchview/pkg/transcript"
)

// importCommand creates the import command for converting transcripts.
func (c *CLI) importCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "import [transcript.jsonl]",
		Short: "Convert a JSONL transcript into a conversation graph",
		Long: `Convert a JSONL transcript into a conversation graph.

Each line is one message: {"id", "parent" or "parents", "created_at", "role",
"content"}. Messages with several parents become merged messages. Malformed
lines are skipped and reported; messages without an ID get a UUID.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(cmd.Context(), args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.graph.json)")
	return cmd
}

func (c *CLI) runImport(ctx context.Context, input, output string) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	g, stats, err := transcript.ReadFile(input, transcript.Options{Logger: logger})
	if err != nil {
		return err
	}
	if _, err := graph.ToDAG(g); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidGraph, err, "%s", input)
	}

	if output == "" {
		output = derivePath(input, ".graph.json")
	}
	if err := graph.WriteGraphFile(g, output); err != nil {
		return fmt.Errorf("write output %s: %w", output, err)
	}
	prog.done(fmt.Sprintf("Imported %d messages", stats.Messages))

	printSuccess("Import complete")
	printFile(output)
	printStats(g.NodeCount(), g.EdgeCount(), false)
	if stats.Skipped > 0 {
		printWarning("Skipped %d of %d lines", stats.Skipped, stats.Lines)
	}
	if stats.GeneratedIDs > 0 {
		printDetail("%d messages had no ID and were assigned one", stats.GeneratedIDs)
	}
	if stats.Undated > 0 {
		printDetail("%d messages had no timestamp and inherited the previous one", stats.Undated)
	}
	if stats.DroppedParents > 0 {
		printDetail("%d parent references pointed to unknown or later messages", stats.DroppedParents)
	}
	printNewline()
	printNextStep("Lay out", appName+" layout "+output)
	return nil
}
