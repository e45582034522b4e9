package toolservice

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"

	"github.com/litmusautomation/litmus-mcp-server/internal/config"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Dialer creates a fresh transport for each connection attempt.
type Dialer func(ctx context.Context) (mcp.Transport, error)

// headerTransport adds static headers and forwards selected environment
// variables as headers on every request to the tool server. The
// environment is read per request so values reloaded from .env apply to
// later calls.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
	forward []string
	getenv  func(string) string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	for _, key := range t.forward {
		if v := t.getenv(key); v != "" {
			req.Header.Set(key, v)
		}
	}
	return t.base.RoundTrip(req)
}

// NewDialer builds the dialer for the configured transport. HTTP
// transports share httpClient wrapped with header forwarding; a nil
// httpClient uses http.DefaultClient.
func NewDialer(cfg config.ToolServiceConfig, httpClient *http.Client) (Dialer, error) {
	switch cfg.Transport {
	case "command":
		if cfg.Command == "" {
			return nil, fmt.Errorf("command transport requires a command")
		}
		return func(ctx context.Context) (mcp.Transport, error) {
			// #nosec G204 -- the command comes from local configuration
			cmd := exec.Command(cfg.Command, cfg.Args...)
			cmd.Env = os.Environ()
			return &mcp.CommandTransport{Command: cmd}, nil
		}, nil

	case "sse", "streamable", "":
		if cfg.URL == "" {
			return nil, fmt.Errorf("%s transport requires a url", cfg.Transport)
		}
		client := forwardingClient(httpClient, cfg.Headers, cfg.ForwardEnv, os.Getenv)
		if cfg.Transport == "streamable" {
			return func(ctx context.Context) (mcp.Transport, error) {
				return &mcp.StreamableClientTransport{Endpoint: cfg.URL, HTTPClient: client}, nil
			}, nil
		}
		return func(ctx context.Context) (mcp.Transport, error) {
			return &mcp.SSEClientTransport{Endpoint: cfg.URL, HTTPClient: client}, nil
		}, nil
	}
	return nil, fmt.Errorf("unsupported transport %q", cfg.Transport)
}

func forwardingClient(base *http.Client, headers map[string]string, forward []string, getenv func(string) string) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}
	rt := base.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	if len(headers) == 0 && len(forward) == 0 {
		return base
	}
	c := *base
	c.Transport = &headerTransport{base: rt, headers: headers, forward: forward, getenv: getenv}
	return &c
}
