// Package health provides HTTP liveness and readiness handlers.
//
// /healthz reports liveness and always returns 200 while the process can
// serve HTTP. /readyz evaluates every registered check and returns 200 only
// when all of them pass; a failing dependency turns the response into a 503
// with the per-check failures listed.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// defaultCheckTimeout bounds a single readiness check.
const defaultCheckTimeout = 5 * time.Second

// CheckFunc probes one dependency. It must respect context cancellation and
// return nil when the dependency is usable.
type CheckFunc func(ctx context.Context) error

// Handler serves the /healthz and /readyz endpoints. The check set is fixed
// at construction; Handler is safe for concurrent use.
type Handler struct {
	names   []string
	checks  map[string]CheckFunc
	timeout time.Duration
}

// Option configures a [Handler].
type Option func(*Handler)

// WithCheckTimeout overrides the per-check timeout (default 5s).
func WithCheckTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

// New returns a Handler with no checks registered. Use [Handler.AddCheck]
// before wiring it into a mux.
func New(opts ...Option) *Handler {
	h := &Handler{
		checks:  make(map[string]CheckFunc),
		timeout: defaultCheckTimeout,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// AddCheck registers a named readiness check. Checks run in registration
// order on every /readyz request. Registering twice under one name replaces
// the earlier check.
func (h *Handler) AddCheck(name string, fn CheckFunc) {
	if _, ok := h.checks[name]; !ok {
		h.names = append(h.names, name)
	}
	h.checks[name] = fn
}

// response is the JSON body for both endpoints.
type response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Healthz always reports ok.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, response{Status: "ok"})
}

// Readyz runs every registered check and reports 200 only when all pass.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	res := response{
		Status: "ok",
		Checks: make(map[string]string, len(h.names)),
	}
	status := http.StatusOK

	for _, name := range h.names {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		err := h.checks[name](ctx)
		cancel()

		if err != nil {
			res.Checks[name] = "fail: " + err.Error()
			res.Status = "fail"
			status = http.StatusServiceUnavailable
			continue
		}
		res.Checks[name] = "ok"
	}

	writeJSON(w, status, res)
}

// Register adds the health routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
