package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/litmusautomation/litmus-mcp-server/internal/orchestrator"
	providers "github.com/litmusautomation/litmus-mcp-server/internal/provider"
	provider "github.com/litmusautomation/litmus-mcp-server/internal/provider/models"
	"github.com/litmusautomation/litmus-mcp-server/internal/toolservice"
	"github.com/rs/zerolog"
)

var errEmptyQuery = errors.New("Query cannot be empty")

type queryRequest struct {
	Query    string `json:"query"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

type switchRequest struct {
	Provider string `json:"provider"`
	ModelID  string `json:"model_id"`
}

type invocationJSON struct {
	CallID string         `json:"call_id"`
	Name   string         `json:"name"`
	Args   map[string]any `json:"args"`
	Result string         `json:"result"`
	Failed bool           `json:"failed"`
}

type queryResponse struct {
	FinalText       string           `json:"final_text"`
	ToolInvocations []invocationJSON `json:"tool_invocations"`
	Provider        string           `json:"provider"`
	Model           string           `json:"model"`
}

type messageJSON struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type modelJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type toolJSON struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func isJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}

// decodeQuery accepts a JSON body or form fields.
func decodeQuery(r *http.Request) (queryRequest, error) {
	var req queryRequest
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, fmt.Errorf("invalid JSON body: %w", err)
		}
	} else {
		req.Query = r.FormValue("query")
		req.Provider = r.FormValue("provider")
		req.Model = r.FormValue("model")
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return req, errEmptyQuery
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// providerStatus maps provider lookup failures to HTTP statuses.
func providerStatus(err error) int {
	switch {
	case errors.Is(err, providers.ErrMissingAPIKey):
		return http.StatusUnauthorized
	case errors.Is(err, providers.ErrUnknownProvider):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// queryStatus maps a failed query to an HTTP status. Retryable provider
// failures become 429 or 503 so clients know to try again.
func queryStatus(err error) int {
	switch {
	case !provider.IsRetryable(err):
		return http.StatusBadGateway
	case errors.Is(err, provider.ErrRateLimit), errors.Is(err, provider.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	}
	return http.StatusServiceUnavailable
}

// retryAfterSeconds returns the provider's retry delay rounded up to whole
// seconds, or 0 when it gave none.
func retryAfterSeconds(err error) int {
	d := provider.GetRetryAfter(err)
	if d == nil || *d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

func streamError(err error) string {
	msg := "\n[Error: " + err.Error()
	if secs := retryAfterSeconds(err); secs > 0 {
		msg += fmt.Sprintf(" (retry after %ds)", secs)
	}
	return msg + "]"
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	req, err := decodeQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.providers.Get(ctx, req.Provider, req.Model)
	if err != nil {
		writeError(w, providerStatus(err), err.Error())
		return
	}
	sid := sessionID(w, r)
	history, err := s.store.History(ctx, sid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	rc := http.NewResponseController(w)

	var text strings.Builder
	for chunk, err := range s.orch.RunQueryStreaming(ctx, req.Query, history, p) {
		if err != nil {
			if ctx.Err() != nil {
				logger.Info().Msg("client went away mid-stream")
				break
			}
			logger.Error().Err(err).Str("provider", p.Name()).Msg("streaming query failed")
			msg := streamError(err)
			text.WriteString(msg)
			_, _ = io.WriteString(w, msg)
			_ = rc.Flush()
			break
		}
		if _, err := io.WriteString(w, chunk); err != nil {
			break
		}
		_ = rc.Flush()
		if !orchestrator.IsToolMarker(chunk) {
			text.WriteString(chunk)
		}
	}

	if text.Len() == 0 {
		// nothing reached the client; an empty reply would break history pairing
		return
	}
	if err := s.store.Append(context.WithoutCancel(ctx), sid, req.Query, text.String()); err != nil {
		logger.Error().Err(err).Msg("failed to save history")
	}
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := decodeQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.providers.Get(ctx, req.Provider, req.Model)
	if err != nil {
		writeError(w, providerStatus(err), err.Error())
		return
	}
	sid := sessionID(w, r)
	history, err := s.store.History(ctx, sid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	turn, err := s.orch.RunQuery(ctx, req.Query, history, p)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("provider", p.Name()).Msg("query failed")
		if secs := retryAfterSeconds(err); secs > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(secs))
		}
		writeError(w, queryStatus(err), err.Error())
		return
	}
	if err := s.store.Append(ctx, sid, req.Query, turn.FinalText); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to save history")
	}

	resp := queryResponse{
		FinalText:       turn.FinalText,
		ToolInvocations: make([]invocationJSON, 0, len(turn.ToolInvocations)),
		Provider:        turn.ProviderUsed,
		Model:           turn.Model,
	}
	for _, inv := range turn.ToolInvocations {
		resp.ToolInvocations = append(resp.ToolInvocations, invocationJSON{
			CallID: inv.CallID,
			Name:   inv.Name,
			Args:   inv.Args,
			Result: inv.ResultText,
			Failed: inv.Failed,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Clear(r.Context(), sessionID(w, r)); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.store.History(r.Context(), sessionID(w, r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	msgs := make([]messageJSON, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, messageJSON{Role: string(m.Role), Content: m.Text()})
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": msgs})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("provider")
	if name == "" {
		name = s.providers.ActiveName()
	}
	infos, err := s.providers.ListModels(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out := make([]modelJSON, 0, len(infos))
	for _, m := range infos {
		out = append(out, modelJSON{ID: m.ID, Name: m.DisplayName})
	}
	writeJSON(w, http.StatusOK, map[string]any{"provider": name, "models": out})
}

func (s *Server) handleSwitchModel(w http.ResponseWriter, r *http.Request) {
	var req switchRequest
	if isJSON(r) {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	} else {
		req.Provider = r.FormValue("provider")
		req.ModelID = r.FormValue("model_id")
	}
	if req.Provider == "" {
		writeError(w, http.StatusBadRequest, "provider is required")
		return
	}
	if err := s.providers.SetActive(req.Provider, req.ModelID); err != nil {
		writeError(w, providerStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "provider": req.Provider, "model_id": req.ModelID})
}

func (s *Server) handleMCPInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tools, err := s.tools.ListTools(ctx)
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	resources, err := s.tools.ListResources(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to list resources")
		resources = nil
	}
	if resources == nil {
		resources = []toolservice.Resource{}
	}

	out := make([]toolJSON, 0, len(tools))
	for _, t := range tools {
		out = append(out, toolJSON{Name: t.Name, Description: t.Description})
	}
	writeJSON(w, http.StatusOK, map[string]any{"tools": out, "resources": resources})
}

func (s *Server) handleReconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.tools.Reconnect(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	active := s.providers.ActiveName()
	configured := s.providers.Names()
	if configured == nil {
		configured = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":                "ok",
		"version":               Version,
		"providers":             configured,
		"provider":              active,
		"model":                 s.providers.ResolveModel(active),
		"tool_server_connected": s.tools.Connected(),
	})
}
