// Command litmus-chat talks to a Litmus Edge MCP tool server through a
// language model, as a terminal chat, a one-shot query or an HTTP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	provider   string
	model      string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "litmus-chat",
		Short:         "Chat with Litmus Edge through an LLM and MCP tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "config file (default ~/.config/litmus-chat/config.toml)")
	root.PersistentFlags().StringVarP(&flags.provider, "provider", "p", "", "model provider: anthropic, openai or gemini")
	root.PersistentFlags().StringVarP(&flags.model, "model", "m", "", "model id for the selected provider")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newChatCmd(flags),
		newAskCmd(flags),
		newServeCmd(flags),
		newToolsCmd(flags),
		newModelsCmd(flags),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
