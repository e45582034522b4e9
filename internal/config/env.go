package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// envOverlay lists the environment keys that override file values.
// Unset keys leave the file or default value in place.
type envOverlay struct {
	AnthropicAPIKey  string `envconfig:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey     string `envconfig:"OPENAI_API_KEY"`
	GeminiAPIKey     string `envconfig:"GEMINI_API_KEY"`
	PreferredModel   string `envconfig:"PREFERRED_MODEL"`
	PreferredModelID string `envconfig:"PREFERRED_MODEL_ID"`
	MCPSSEURL        string `envconfig:"MCP_SSE_URL"`

	MaxTurns       int    `envconfig:"LITMUS_MAX_TURNS"`
	LogLevel       string `envconfig:"LITMUS_LOG_LEVEL"`
	ServerAddr     string `envconfig:"LITMUS_SERVER_ADDR"`
	SessionBackend string `envconfig:"LITMUS_SESSION_BACKEND"`
	OTLPEndpoint   string `envconfig:"LITMUS_OTLP_ENDPOINT"`
}

func applyEnv(cfg *Config) error {
	var env envOverlay
	if err := envconfig.Process("", &env); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	setString(&cfg.Provider.Anthropic.APIKey, env.AnthropicAPIKey)
	setString(&cfg.Provider.OpenAI.APIKey, env.OpenAIAPIKey)
	setString(&cfg.Provider.Gemini.APIKey, env.GeminiAPIKey)
	setString(&cfg.Provider.Name, env.PreferredModel)
	setString(&cfg.Provider.Model, env.PreferredModelID)
	setString(&cfg.ToolService.URL, env.MCPSSEURL)
	setString(&cfg.Log.Level, env.LogLevel)
	setString(&cfg.Server.Addr, env.ServerAddr)
	setString(&cfg.Session.Backend, env.SessionBackend)
	setString(&cfg.Telemetry.OTLPEndpoint, env.OTLPEndpoint)
	if env.MaxTurns != 0 {
		cfg.Orchestrator.MaxTurns = env.MaxTurns
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
