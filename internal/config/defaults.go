package config

import "time"

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via dotfile and environment.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Provider     ProviderConfig     `toml:"provider"`
	Orchestrator OrchestratorConfig `toml:"orchestrator"`
	ToolService  ToolServiceConfig  `toml:"tool_service"`
	Session      SessionConfig      `toml:"session"`
	Server       ServerConfig       `toml:"server"`
	Log          LogConfig          `toml:"log"`
	Telemetry    TelemetryConfig    `toml:"telemetry"`
	UI           UIConfig           `toml:"ui"`
}

type ProviderConfig struct {
	// Name selects the active vendor. Empty means auto-select from the keys present.
	Name string `toml:"name"` // env: PREFERRED_MODEL

	// Model overrides the model id of the selected vendor.
	Model string `toml:"model"` // env: PREFERRED_MODEL_ID

	Anthropic VendorConfig `toml:"anthropic"`
	OpenAI    VendorConfig `toml:"openai"`
	Gemini    VendorConfig `toml:"gemini"`
}

// VendorConfig is the per-vendor block. Options are decoded by the adapter
// into its own typed options (max_tokens, temperature, ...).
type VendorConfig struct {
	APIKey  string         `toml:"api_key"`
	Model   string         `toml:"model"`
	Options map[string]any `toml:"options"`
}

type OrchestratorConfig struct {
	MaxTurns         int      `toml:"max_turns"`          // Default: 10
	MaxParallelTools int      `toml:"max_parallel_tools"` // Default: 4
	SystemPrompt     string   `toml:"system_prompt"`
	ToolAllow        []string `toml:"tool_allow"`
	ToolDeny         []string `toml:"tool_deny"`
}

type ToolServiceConfig struct {
	Transport string   `toml:"transport"` // sse | streamable | command
	URL       string   `toml:"url"`       // env: MCP_SSE_URL
	Command   string   `toml:"command"`
	Args      []string `toml:"args"`

	// ForwardEnv lists environment keys sent as headers on every request.
	ForwardEnv []string          `toml:"forward_env"`
	Headers    map[string]string `toml:"headers"`

	ConnectAttempts int           `toml:"connect_attempts"` // Default: 20
	ConnectInterval time.Duration `toml:"connect_interval"` // Default: 1s
	ListTTL         time.Duration `toml:"list_ttl"`         // Default: 0 (always fresh)
}

type SessionConfig struct {
	Backend  string `toml:"backend"` // memory | sqlite
	Path     string `toml:"path"`
	MaxPairs int    `toml:"max_pairs"` // Default: 5
}

type ServerConfig struct {
	Addr string `toml:"addr"` // Default: :9000
}

type LogConfig struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
	File   string `toml:"file"` // used by the TUI so logs don't corrupt the screen
}

type TelemetryConfig struct {
	OTLPEndpoint string `toml:"otlp_endpoint"`
	URLPath      string `toml:"url_path"`
	APIKey       string `toml:"api_key"`
	Insecure     bool   `toml:"insecure"`
	ServiceName  string `toml:"service_name"`
}

type UIConfig struct {
	GlamourStyle string `toml:"glamour_style"`
	ColorPrimary string `toml:"color_primary"`
	ColorTool    string `toml:"color_tool"`
	ColorError   string `toml:"color_error"`
}

// DefaultForwardEnv are the credential keys the tool server reads from request headers.
var DefaultForwardEnv = []string{
	"EDGE_URL",
	"EDGE_API_CLIENT_ID",
	"EDGE_API_CLIENT_SECRET",
	"VALIDATE_CERTIFICATE",
	"NATS_SOURCE",
	"NATS_PORT",
	"NATS_USER",
	"NATS_PASSWORD",
	"INFLUX_HOST",
	"INFLUX_PORT",
	"INFLUX_DB_NAME",
	"INFLUX_USERNAME",
	"INFLUX_PASSWORD",
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Orchestrator: OrchestratorConfig{
			MaxTurns:         10,
			MaxParallelTools: 4,
		},
		ToolService: ToolServiceConfig{
			Transport:       "sse",
			URL:             "http://localhost:8000/sse",
			ForwardEnv:      append([]string(nil), DefaultForwardEnv...),
			ConnectAttempts: 20,
			ConnectInterval: time.Second,
		},
		Session: SessionConfig{
			Backend:  "memory",
			Path:     "litmus-chat.db",
			MaxPairs: 5,
		},
		Server: ServerConfig{
			Addr: ":9000",
		},
		Log: LogConfig{
			Level:  "info",
			Pretty: true,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "litmus-chat",
		},
		UI: UIConfig{
			GlamourStyle: "dark",
			ColorPrimary: "39",
			ColorTool:    "214",
			ColorError:   "196",
		},
	}
}
