package main

import (
	"github.com/litmusautomation/litmus-mcp-server/internal/web"
	"github.com/spf13/cobra"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP chat server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := newApp(ctx, flags, false)
			if err != nil {
				return err
			}
			defer app.Close()

			if addr != "" {
				app.Config.Server.Addr = addr
			}

			// Connect in the background so the first request finds the tool
			// server ready; failures are retried lazily per request.
			go func() {
				if _, err := app.Tools.ListTools(ctx); err != nil && ctx.Err() == nil {
					app.Logger.Warn().Err(err).Msg("tool server not reachable yet")
				}
			}()

			srv := web.NewServer(app.Orchestrator, app.Registry, app.Tools, app.Store,
				web.WithLogger(app.Logger.With().Str("component", "web").Logger()),
				web.WithGatherer(app.Metrics),
			)
			return srv.ListenAndServe(ctx, app.Config.Server.Addr)
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", "", "override listen address")
	return cmd
}
