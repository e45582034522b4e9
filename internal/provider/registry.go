// Package provider builds the configured model providers and tracks which
// one is active.
package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/litmusautomation/litmus-mcp-server/internal/config"
	"github.com/litmusautomation/litmus-mcp-server/internal/provider/anthropic"
	"github.com/litmusautomation/litmus-mcp-server/internal/provider/gemini"
	models "github.com/litmusautomation/litmus-mcp-server/internal/provider/models"
	"github.com/litmusautomation/litmus-mcp-server/internal/provider/openai"
	"github.com/mitchellh/mapstructure"
	"github.com/rs/zerolog"
)

var (
	ErrUnknownProvider   = errors.New("unknown provider")
	ErrMissingAPIKey     = errors.New("missing API key")
	ErrModelsUnsupported = errors.New("provider cannot list models")
)

// autoSelectOrder is the preference when no provider is named explicitly.
var autoSelectOrder = []string{openai.Name, anthropic.Name, gemini.Name}

// Factory builds a provider for a vendor. Options are the raw
// [provider.<vendor>.options] table.
type Factory func(ctx context.Context, apiKey, model string, options map[string]any, httpClient *http.Client) (models.Provider, error)

// DefaultFactories returns the SDK-backed factories for every vendor.
func DefaultFactories() map[string]Factory {
	return map[string]Factory{
		anthropic.Name: newAnthropic,
		openai.Name:    newOpenAI,
		gemini.Name:    newGemini,
	}
}

func newAnthropic(ctx context.Context, apiKey, model string, options map[string]any, httpClient *http.Client) (models.Provider, error) {
	var opts anthropic.Options
	if err := decodeOptions(options, &opts); err != nil {
		return nil, err
	}
	client := anthropic.NewRealAnthropicClient(apiKey, httpClient)
	return anthropic.NewAnthropicProvider(client, model, opts), nil
}

func newOpenAI(ctx context.Context, apiKey, model string, options map[string]any, httpClient *http.Client) (models.Provider, error) {
	var opts openai.Options
	if err := decodeOptions(options, &opts); err != nil {
		return nil, err
	}
	client := openai.NewRealOpenAIClient(apiKey, opts.BaseURL, httpClient)
	return openai.NewOpenAIProvider(client, model, opts), nil
}

func newGemini(ctx context.Context, apiKey, model string, options map[string]any, httpClient *http.Client) (models.Provider, error) {
	var opts gemini.Options
	if err := decodeOptions(options, &opts); err != nil {
		return nil, err
	}
	client, err := gemini.Dial(ctx, apiKey, httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return gemini.NewGeminiProvider(client, model, opts), nil
}

// decodeOptions decodes a TOML option table into typed adapter options.
// Strings such as "0.2" are accepted for numeric fields; unknown keys fail.
func decodeOptions(in map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("invalid provider options: %w", err)
	}
	return nil
}

// Registry builds providers on demand from configuration and remembers the
// active provider and model. Built providers are cached per vendor and model.
type Registry struct {
	cfg        config.ProviderConfig
	factories  map[string]Factory
	httpClient *http.Client
	logger     zerolog.Logger

	mu       sync.Mutex
	active   string
	override string // model chosen for the active vendor, if any
	built    map[string]models.Provider
}

// Option configures a Registry.
type Option func(*Registry)

// WithHTTPClient sets the HTTP client handed to vendor SDKs.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Registry) { r.httpClient = c }
}

// WithFactory replaces the factory for one vendor.
func WithFactory(name string, f Factory) Option {
	return func(r *Registry) { r.factories[name] = f }
}

func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry creates a registry. The active vendor is cfg.Name when set,
// otherwise the first vendor with an API key in the order openai,
// anthropic, gemini. With no keys at all it stays on anthropic and
// building it reports ErrMissingAPIKey.
func NewRegistry(cfg config.ProviderConfig, opts ...Option) (*Registry, error) {
	r := &Registry{
		cfg:       cfg,
		factories: DefaultFactories(),
		logger:    zerolog.Nop(),
		built:     make(map[string]models.Provider),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.active = cfg.Name
	if r.active == "" {
		r.active = r.autoSelect()
	}
	if _, ok := r.factories[r.active]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, r.active)
	}
	r.override = cfg.Model
	return r, nil
}

func (r *Registry) autoSelect() string {
	for _, name := range autoSelectOrder {
		if r.vendor(name).APIKey != "" {
			return name
		}
	}
	return anthropic.Name
}

func (r *Registry) vendor(name string) config.VendorConfig {
	switch name {
	case anthropic.Name:
		return r.cfg.Anthropic
	case openai.Name:
		return r.cfg.OpenAI
	case gemini.Name:
		return r.cfg.Gemini
	}
	return config.VendorConfig{}
}

// Names lists the vendors that have an API key configured.
func (r *Registry) Names() []string {
	var names []string
	for _, name := range autoSelectOrder {
		if r.vendor(name).APIKey != "" {
			names = append(names, name)
		}
	}
	return names
}

// ActiveName returns the active vendor.
func (r *Registry) ActiveName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// ResolveModel returns the model id used for name: the override when name
// is the active vendor, then the vendor's configured model. An empty result
// means the adapter's default.
func (r *Registry) ResolveModel(name string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveModelLocked(name)
}

func (r *Registry) resolveModelLocked(name string) string {
	if name == r.active && r.override != "" {
		return r.override
	}
	return r.vendor(name).Model
}

// Active returns the active provider.
func (r *Registry) Active(ctx context.Context) (models.Provider, error) {
	return r.Get(ctx, "", "")
}

// Get returns the provider for name and model. An empty name means the
// active vendor; an empty model means the resolved model for that vendor.
func (r *Registry) Get(ctx context.Context, name, model string) (models.Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		name = r.active
	}
	factory, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	if model == "" {
		model = r.resolveModelLocked(name)
	}

	key := name + "/" + model
	if p, ok := r.built[key]; ok {
		return p, nil
	}

	vc := r.vendor(name)
	if vc.APIKey == "" {
		return nil, fmt.Errorf("%w for %s", ErrMissingAPIKey, name)
	}
	p, err := factory(ctx, vc.APIKey, model, vc.Options, r.httpClient)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", name, err)
	}
	r.built[key] = p
	r.logger.Debug().Str("provider", name).Str("model", p.Model()).Msg("provider created")
	return p, nil
}

// SetActive switches the active vendor and model at runtime. An empty
// model clears the override so the vendor's configured model applies.
func (r *Registry) SetActive(name, model string) error {
	if _, ok := r.factories[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = name
	r.override = model
	r.logger.Info().Str("provider", name).Str("model", model).Msg("active provider changed")
	return nil
}

// ListModels lists the models offered by name, or by the active vendor
// when name is empty.
func (r *Registry) ListModels(ctx context.Context, name string) ([]models.ModelInfo, error) {
	p, err := r.Get(ctx, name, "")
	if err != nil {
		return nil, err
	}
	lister, ok := p.(models.ModelLister)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrModelsUnsupported, p.Name())
	}
	return lister.ListModels(ctx)
}
