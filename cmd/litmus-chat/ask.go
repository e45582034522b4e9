package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"
	"github.com/spf13/cobra"
)

func newAskCmd(flags *globalFlags) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "ask <query...>",
		Short: "Ask one question and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx, flags, false)
			if err != nil {
				return err
			}
			defer app.Close()

			p, err := app.Registry.Active(ctx)
			if err != nil {
				return err
			}

			turn, err := app.Orchestrator.RunQuery(ctx, strings.Join(args, " "), nil, p)
			if turn != nil {
				printTurn(cmd.OutOrStdout(), turn, !quiet)
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the answer")
	return cmd
}

// printTurn writes the answer, then a summary of the tools it used.
func printTurn(w io.Writer, turn *models.ConversationTurn, withTools bool) {
	if turn.FinalText != "" {
		fmt.Fprintln(w, turn.FinalText)
	}
	if !withTools || len(turn.ToolInvocations) == 0 {
		return
	}

	fmt.Fprintf(w, "\nTools used (%s/%s):\n", turn.ProviderUsed, turn.Model)
	for _, inv := range turn.ToolInvocations {
		mark := "✓"
		if inv.Failed {
			mark = "✗"
		}
		args, err := json.Marshal(inv.Args)
		if err != nil {
			args = []byte("{}")
		}
		fmt.Fprintf(w, "  %s %s %s\n", mark, inv.Name, args)
		if inv.Failed {
			fmt.Fprintf(w, "      %s\n", firstLine(inv.ResultText))
		}
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
