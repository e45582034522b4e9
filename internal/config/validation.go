package config

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog"
)

var (
	providerNames  = []string{"anthropic", "openai", "gemini"}
	transports     = []string{"sse", "streamable", "command"}
	sessionBackend = []string{"memory", "sqlite"}
)

// Validate checks config values for correctness.
// All violations are reported together in one error.
func (c *Config) Validate() error {
	var errs []string

	// Provider validation
	if c.Provider.Name != "" && !slices.Contains(providerNames, c.Provider.Name) {
		errs = append(errs, fmt.Sprintf("provider.name must be one of %v, got %q", providerNames, c.Provider.Name))
	}

	// Orchestrator validation
	if c.Orchestrator.MaxTurns < 1 {
		errs = append(errs, "orchestrator.max_turns must be >= 1")
	}
	if c.Orchestrator.MaxParallelTools < 1 {
		errs = append(errs, "orchestrator.max_parallel_tools must be >= 1")
	}

	// Tool service validation
	ts := c.ToolService
	switch {
	case !slices.Contains(transports, ts.Transport):
		errs = append(errs, fmt.Sprintf("tool_service.transport must be one of %v, got %q", transports, ts.Transport))
	case ts.Transport == "command" && ts.Command == "":
		errs = append(errs, "tool_service.command is required for the command transport")
	case ts.Transport != "command" && ts.URL == "":
		errs = append(errs, "tool_service.url is required for the "+ts.Transport+" transport")
	}
	if ts.ConnectAttempts < 1 {
		errs = append(errs, "tool_service.connect_attempts must be >= 1")
	}
	if ts.ConnectInterval <= 0 {
		errs = append(errs, "tool_service.connect_interval must be > 0")
	}
	if ts.ListTTL < 0 {
		errs = append(errs, "tool_service.list_ttl must be >= 0")
	}

	// Session validation
	if !slices.Contains(sessionBackend, c.Session.Backend) {
		errs = append(errs, fmt.Sprintf("session.backend must be one of %v, got %q", sessionBackend, c.Session.Backend))
	}
	if c.Session.Backend == "sqlite" && c.Session.Path == "" {
		errs = append(errs, "session.path is required for the sqlite backend")
	}
	if c.Session.MaxPairs < 1 {
		errs = append(errs, "session.max_pairs must be >= 1")
	}

	if c.Server.Addr == "" {
		errs = append(errs, "server.addr must not be empty")
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Sprintf("log.level %q is not a valid level", c.Log.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
