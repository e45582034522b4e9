package main

import (
	"fmt"
	"io"

	provider "github.com/litmusautomation/litmus-mcp-server/internal/provider/models"
	"github.com/spf13/cobra"
)

func newModelsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List the models of a provider (--provider, default the active one)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx, flags, false)
			if err != nil {
				return err
			}
			defer app.Close()

			name := app.Registry.ActiveName()
			infos, err := app.Registry.ListModels(ctx, name)
			if err != nil {
				return err
			}
			current := app.Registry.ResolveModel(name)
			if p, err := app.Registry.Active(ctx); err == nil {
				current = p.Model()
			}
			printModels(cmd.OutOrStdout(), infos, current)
			return nil
		},
	}
}

// printModels lists model ids, marking the one in use.
func printModels(w io.Writer, infos []provider.ModelInfo, current string) {
	for _, m := range infos {
		mark := " "
		if m.ID == current {
			mark = "*"
		}
		if m.DisplayName != "" && m.DisplayName != m.ID {
			fmt.Fprintf(w, "%s %s (%s)\n", mark, m.ID, m.DisplayName)
			continue
		}
		fmt.Fprintf(w, "%s %s\n", mark, m.ID)
	}
}
