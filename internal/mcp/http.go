package mcp

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emergent-company/omviews/internal/emergent"
)

const (
	sessionHeader     = "Mcp-Session-Id"
	maxRequestBody    = 10 << 20
	defaultSessionTTL = 24 * time.Hour
)

// HTTPServer exposes a Server over the Streamable HTTP transport: one /mcp
// endpoint taking JSON-RPC messages and batches by POST. There are no
// server-initiated messages, so GET is refused.
//
// The bearer token on each request is the Emergent project token; it rides
// the request context down to ClientFactory.StoreFor.
type HTTPServer struct {
	server   *Server
	opts     HTTPOptions
	logger   *slog.Logger
	sessions *sessionTable
}

// HTTPOptions configures the HTTP transport.
type HTTPOptions struct {
	// CORSOrigins is "*" or a comma-separated allow list.
	CORSOrigins string
	// RequireAuth rejects requests without a bearer token. It is off only
	// for the in-memory store, which has no notion of tokens.
	RequireAuth bool
	// Gatherer is served on /metrics when set.
	Gatherer prometheus.Gatherer
	// SessionTTL bounds how long a session lives without a DELETE.
	// Zero means a day.
	SessionTTL time.Duration
}

// NewHTTPServer wraps server for HTTP.
func NewHTTPServer(server *Server, opts HTTPOptions, logger *slog.Logger) *HTTPServer {
	return &HTTPServer{
		server:   server,
		opts:     opts,
		logger:   logger,
		sessions: newSessionTable(opts.SessionTTL),
	}
}

// Handler serves /mcp, /health and, with a gatherer, /metrics.
func (h *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", h.cors(h.auth(http.HandlerFunc(h.handleMCP))))
	mux.HandleFunc("/health", h.handleHealth)
	if h.opts.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(h.opts.Gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

func (h *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"name":     h.server.info.Name,
		"version":  h.server.info.Version,
		"sessions": h.sessions.len(),
	}, h.logger)
}

// cors answers preflight requests and stamps allowed origins.
func (h *HTTPServer) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			if allowed := h.allowOrigin(origin); allowed != "" {
				hdr := w.Header()
				hdr.Set("Access-Control-Allow-Origin", allowed)
				hdr.Set("Access-Control-Allow-Methods", "POST, DELETE, OPTIONS")
				hdr.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept, "+sessionHeader)
				hdr.Set("Access-Control-Expose-Headers", sessionHeader)
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *HTTPServer) allowOrigin(origin string) string {
	if h.opts.CORSOrigins == "*" {
		return "*"
	}
	for _, o := range strings.Split(h.opts.CORSOrigins, ",") {
		if strings.TrimSpace(o) == origin {
			return origin
		}
	}
	return ""
}

// auth moves the bearer token into the request context. The token is not
// checked here; Emergent rejects bad ones.
func (h *HTTPServer) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok && h.opts.RequireAuth {
			httpError(w, http.StatusUnauthorized, "unauthorized", h.logger)
			return
		}
		if ok {
			r = r.WithContext(emergent.WithToken(r.Context(), token))
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	token = strings.TrimSpace(token)
	return token, found && token != ""
}

func (h *HTTPServer) handleMCP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	case http.MethodGet:
		w.Header().Set("Allow", "POST, DELETE, OPTIONS")
		httpError(w, http.StatusMethodNotAllowed, "no server-initiated stream; use POST", h.logger)
	default:
		w.Header().Set("Allow", "POST, DELETE, OPTIONS")
		httpError(w, http.StatusMethodNotAllowed, "method not allowed", h.logger)
	}
}

func (h *HTTPServer) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpError(w, http.StatusRequestEntityTooLarge, "request body too large", h.logger)
			return
		}
		httpError(w, http.StatusBadRequest, "failed to read request body", h.logger)
		return
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		httpError(w, http.StatusBadRequest, "empty request body", h.logger)
		return
	}

	// Any session the client names must be live, initialize aside.
	if id := r.Header.Get(sessionHeader); id != "" && !h.sessions.has(id) {
		var req Request
		if json.Unmarshal(body, &req) != nil || req.Method != "initialize" {
			httpError(w, http.StatusNotFound, "session not found", h.logger)
			return
		}
	}

	if body[0] == '[' {
		h.handleBatch(w, r, body)
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest,
			reply(nil, nil, &RPCError{Code: ErrCodeParse, Message: "Parse error", Data: err.Error()}), h.logger)
		return
	}
	resp := h.server.HandleMessage(r.Context(), body)
	if req.IsNotification() || resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	if req.Method == "initialize" && resp.Error == nil {
		w.Header().Set(sessionHeader, h.sessions.open(h.logger))
	}
	writeJSON(w, http.StatusOK, resp, h.logger)
}

// handleBatch answers every request in the batch; a batch of only
// notifications gets 202 and no body.
func (h *HTTPServer) handleBatch(w http.ResponseWriter, r *http.Request, body []byte) {
	var batch []json.RawMessage
	if err := json.Unmarshal(body, &batch); err != nil {
		writeJSON(w, http.StatusBadRequest,
			reply(nil, nil, &RPCError{Code: ErrCodeParse, Message: "Parse error", Data: err.Error()}), h.logger)
		return
	}
	if len(batch) == 0 {
		writeJSON(w, http.StatusBadRequest,
			reply(nil, nil, &RPCError{Code: ErrCodeInvalidRequest, Message: "Empty batch"}), h.logger)
		return
	}

	responses := make([]*Response, 0, len(batch))
	for _, msg := range batch {
		if resp := h.server.HandleMessage(r.Context(), msg); resp != nil {
			responses = append(responses, resp)
		}
	}
	if len(responses) == 0 {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, responses, h.logger)
}

func (h *HTTPServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(sessionHeader)
	if id == "" {
		httpError(w, http.StatusBadRequest, sessionHeader+" header required", h.logger)
		return
	}
	if !h.sessions.close(id) {
		httpError(w, http.StatusNotFound, "session not found", h.logger)
		return
	}
	h.logger.Info("session terminated", "session_id", id)
	w.WriteHeader(http.StatusOK)
}

// sessionTable records the sessions handed out by initialize. Sessions
// older than ttl are forgotten; expired entries are pruned whenever a new
// session opens.
type sessionTable struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	started map[string]time.Time
}

func newSessionTable(ttl time.Duration) *sessionTable {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &sessionTable{ttl: ttl, now: time.Now, started: make(map[string]time.Time)}
}

func (t *sessionTable) open(logger *slog.Logger) string {
	id := uuid.NewString()
	t.mu.Lock()
	now := t.now()
	pruned := 0
	for old, started := range t.started {
		if now.Sub(started) > t.ttl {
			delete(t.started, old)
			pruned++
		}
	}
	t.started[id] = now
	t.mu.Unlock()
	if pruned > 0 {
		logger.Debug("expired sessions pruned", "count", pruned)
	}
	logger.Info("session created", "session_id", id)
	return id
}

func (t *sessionTable) has(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	started, ok := t.started[id]
	if ok && t.now().Sub(started) > t.ttl {
		delete(t.started, id)
		return false
	}
	return ok
}

func (t *sessionTable) close(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.started[id]
	delete(t.started, id)
	return ok
}

func (t *sessionTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.started)
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("failed to write JSON response", "error", err)
	}
}

func httpError(w http.ResponseWriter, status int, msg string, logger *slog.Logger) {
	writeJSON(w, status, map[string]string{"error": msg}, logger)
}
