package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/litmusautomation/litmus-mcp-server/internal/config"
	"github.com/litmusautomation/litmus-mcp-server/internal/logging"
	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator"
	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator/models"
	"github.com/litmusautomation/litmus-mcp-server/internal/provider"
	"github.com/litmusautomation/litmus-mcp-server/internal/session"
	"github.com/litmusautomation/litmus-mcp-server/internal/telemetry"
	"github.com/litmusautomation/litmus-mcp-server/internal/toolservice"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
)

// App holds the wired components shared by the subcommands.
type App struct {
	Config       *config.Config
	Logger       zerolog.Logger
	Registry     *provider.Registry
	Tools        *toolservice.Service
	Store        session.Store
	Orchestrator *orchestrator.Orchestrator
	Metrics      *prometheus.Registry

	closers []func() error
}

// loadConfig reads the layered config and applies command-line overrides.
func loadConfig(flags *globalFlags) (*config.Config, error) {
	var opts []config.LoaderOption
	if flags.configPath != "" {
		opts = append(opts, config.WithPath(flags.configPath))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, err
	}
	if applyFlags(cfg, flags) {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// applyFlags copies non-empty flags over cfg and reports whether any applied.
func applyFlags(cfg *config.Config, flags *globalFlags) bool {
	changed := false
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
			changed = true
		}
	}
	set(&cfg.Provider.Name, flags.provider)
	set(&cfg.Provider.Model, flags.model)
	set(&cfg.Log.Level, flags.logLevel)
	return changed
}

// logOutput picks where logs go. The full-screen UI owns the terminal, so
// it logs to log.file or nowhere.
func logOutput(cfg *config.Config, tui bool) (io.Writer, func() error, error) {
	if cfg.Log.File != "" {
		f, err := logging.OpenFile(cfg.Log.File)
		if err != nil {
			return nil, nil, err
		}
		return f, f.Close, nil
	}
	if tui {
		return io.Discard, nil, nil
	}
	return os.Stderr, nil, nil
}

// newApp wires config, logging, telemetry, providers, the tool service, the
// session store and the orchestrator.
func newApp(ctx context.Context, flags *globalFlags, tui bool) (*App, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}

	app := &App{Config: cfg}
	ok := false
	defer func() {
		if !ok {
			app.Close()
		}
	}()

	w, closeLog, err := logOutput(cfg, tui)
	if err != nil {
		return nil, err
	}
	if closeLog != nil {
		app.closers = append(app.closers, closeLog)
	}
	pretty := cfg.Log.Pretty && cfg.Log.File == ""
	app.Logger = logging.Init(cfg.Log.Level, pretty, w)

	shutdown, err := telemetry.InitTracing(ctx, telemetry.TracingConfig{
		Endpoint:    cfg.Telemetry.OTLPEndpoint,
		URLPath:     cfg.Telemetry.URLPath,
		APIKey:      cfg.Telemetry.APIKey,
		Insecure:    cfg.Telemetry.Insecure,
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}
	app.closers = append(app.closers, func() error { return shutdown(context.Background()) })

	app.Metrics = prometheus.NewRegistry()
	app.Metrics.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(app.Metrics)

	httpClient := telemetry.HTTPClient()

	app.Registry, err = provider.NewRegistry(cfg.Provider,
		provider.WithHTTPClient(httpClient),
		provider.WithLogger(app.Logger.With().Str("component", "provider").Logger()),
	)
	if err != nil {
		return nil, err
	}

	app.Tools, err = toolservice.FromConfig(cfg.ToolService, httpClient,
		toolservice.WithLogger(app.Logger.With().Str("component", "toolservice").Logger()),
	)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, app.Tools.Close)

	app.Store, err = session.Open(cfg.Session)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, app.Store.Close)

	orchOpts := []orchestrator.Option{
		orchestrator.WithMaxTurns(cfg.Orchestrator.MaxTurns),
		orchestrator.WithMaxParallelTools(cfg.Orchestrator.MaxParallelTools),
		orchestrator.WithLogger(app.Logger.With().Str("component", "orchestrator").Logger()),
		orchestrator.WithMetrics(metrics),
		orchestrator.WithTracer(telemetry.Tracer()),
	}
	if cfg.Orchestrator.SystemPrompt != "" {
		orchOpts = append(orchOpts, orchestrator.WithSystemPrompt(cfg.Orchestrator.SystemPrompt))
	}
	if len(cfg.Orchestrator.ToolAllow) > 0 || len(cfg.Orchestrator.ToolDeny) > 0 {
		orchOpts = append(orchOpts, orchestrator.WithPolicy(orchestrator.NewPolicyService(policyFromConfig(cfg.Orchestrator))))
	}
	app.Orchestrator = orchestrator.New(app.Tools, orchOpts...)

	app.Logger.Debug().
		Str("provider", app.Registry.ActiveName()).
		Str("transport", cfg.ToolService.Transport).
		Str("session_backend", cfg.Session.Backend).
		Msg("application wired")

	ok = true
	return app, nil
}

// Close releases everything newApp opened, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func policyFromConfig(cfg config.OrchestratorConfig) models.ToolPolicy {
	return models.ToolPolicy{Allow: cfg.ToolAllow, Deny: cfg.ToolDeny}
}
