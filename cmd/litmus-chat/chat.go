package main

import (
	"github.com/litmusautomation/litmus-mcp-server/internal/ui"
	"github.com/litmusautomation/litmus-mcp-server/internal/ui/services"
	"github.com/litmusautomation/litmus-mcp-server/internal/ui/views"
	"github.com/spf13/cobra"
)

func newChatCmd(flags *globalFlags) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx, flags, !plain)
			if err != nil {
				return err
			}
			defer app.Close()

			chat := ui.NewChat(app.Orchestrator, app.Registry, app.Store)
			if plain {
				return ui.RunPlain(ctx, chat, cmd.InOrStdin(), cmd.OutOrStdout())
			}

			views.ApplyTheme(app.Config.UI)
			renderer := services.NewGlamourRenderer(app.Config.UI.GlamourStyle)
			return ui.NewUI(ctx, chat, renderer, ui.DefaultSpinner).Start()
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "line-mode REPL instead of the full-screen UI")
	return cmd
}
