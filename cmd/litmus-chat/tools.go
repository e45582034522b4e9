package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"
	"github.com/spf13/cobra"
)

func newToolsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools offered by the tool server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx, flags, false)
			if err != nil {
				return err
			}
			defer app.Close()

			tools, err := app.Tools.ListTools(ctx)
			if err != nil {
				return err
			}
			return printTools(cmd.OutOrStdout(), tools)
		},
	}
}

func printTools(w io.Writer, tools []models.ToolSpec) error {
	if len(tools) == 0 {
		_, err := fmt.Fprintln(w, "No tools available")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, t := range tools {
		fmt.Fprintf(tw, "%s\t%s\n", t.Name, firstLine(t.Description))
	}
	return tw.Flush()
}
