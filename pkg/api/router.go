package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/notifykit/pkg/delivery"
	"github.com/dmitrymomot/notifykit/pkg/inbox"
	"github.com/dmitrymomot/notifykit/pkg/job"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/metrics"
)

// Option configures the router.
type Option func(*router)

// WithDeliveries exposes classes under POST /deliveries/{delivery}/{action}.
func WithDeliveries(classes map[string]*delivery.Class) Option {
	return func(r *router) { r.classes = classes }
}

// WithInbox exposes the inbox under /inbox/{recipient}.
func WithInbox(in *inbox.Inbox) Option {
	return func(r *router) { r.inbox = in }
}

// WithMetrics serves g on GET /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(r *router) { r.metrics = g }
}

// WithReadiness adds checks run by GET /readyz.
func WithReadiness(checks ...func(context.Context) error) Option {
	return func(r *router) { r.checks = append(r.checks, checks...) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *router) {
		if l != nil {
			r.log = l
		}
	}
}

type router struct {
	classes map[string]*delivery.Class
	inbox   *inbox.Inbox
	metrics prometheus.Gatherer
	checks  []func(context.Context) error
	log     *slog.Logger
}

// NewRouter builds the HTTP surface. Only the endpoints whose dependencies
// are configured are mounted; /healthz and /readyz always are.
func NewRouter(opts ...Option) http.Handler {
	rt := &router{log: slog.Default()}
	for _, opt := range opts {
		opt(rt)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeText(w, http.StatusOK, "ALIVE") })
	r.Get("/readyz", rt.ready)

	if rt.metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(rt.metrics))
	}
	if rt.classes != nil {
		r.Post("/deliveries/{delivery}/{action}", rt.notify)
	}
	if rt.inbox != nil {
		r.Route("/inbox/{recipient}", func(r chi.Router) {
			r.Get("/", rt.listInbox)
			r.Get("/count", rt.countUnread)
			r.Post("/read", rt.markRead)
			r.Delete("/{id}", rt.deleteItem)
		})
	}
	return r
}

func (rt *router) ready(w http.ResponseWriter, r *http.Request) {
	for _, check := range rt.checks {
		if err := check(r.Context()); err != nil {
			rt.log.LogAttrs(r.Context(), slog.LevelError, "readiness check failed",
				logger.Component("api"),
				logger.Error(err),
			)
			writeText(w, http.StatusServiceUnavailable, "NOT_READY")
			return
		}
	}
	writeText(w, http.StatusOK, "READY")
}

// NotifyRequest is the body of POST /deliveries/{delivery}/{action}.
type NotifyRequest struct {
	Params map[string]any `json:"params,omitempty"`
	Args   []any          `json:"args,omitempty"`
	Kwargs map[string]any `json:"kwargs,omitempty"`
	Now    bool           `json:"now,omitempty"`
	Queue  string         `json:"queue,omitempty"`
	Delay  string         `json:"delay,omitempty"`
}

// NotifyResponse acknowledges a dispatch.
type NotifyResponse struct {
	Delivery string `json:"delivery"`
	Action   string `json:"action"`
	Now      bool   `json:"now"`
}

func (rt *router) notify(w http.ResponseWriter, r *http.Request) {
	name, action := chi.URLParam(r, "delivery"), chi.URLParam(r, "action")
	class, ok := rt.classes[name]
	if !ok {
		rt.fail(w, r, fmt.Errorf("%w: %s", errUnknownDelivery, name))
		return
	}

	var req NotifyRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			rt.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
	}
	opts := []job.EnqueueOption{job.WithQueue(req.Queue)}
	if req.Delay != "" {
		d, err := time.ParseDuration(req.Delay)
		if err != nil {
			rt.fail(w, r, fmt.Errorf("%w: delay: %v", errBadRequest, err))
			return
		}
		opts = append(opts, job.WithDelay(d))
	}

	values := append([]any{}, req.Args...)
	if len(req.Kwargs) > 0 {
		values = append(values, job.Kwargs(req.Kwargs))
	}

	d := class.With(job.Params(req.Params)).WithEnqueueOptions(opts...)
	var err error
	if req.Now {
		err = d.NotifyNow(r.Context(), action, values...)
	} else {
		err = d.Notify(r.Context(), action, values...)
	}
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, NotifyResponse{Delivery: class.Name(), Action: action, Now: req.Now})
}

func (rt *router) listInbox(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := inbox.ListOptions{OnlyUnread: q.Get("unread") == "true"}
	var err error
	if v := q.Get("limit"); v != "" {
		if opts.Limit, err = strconv.Atoi(v); err != nil {
			rt.fail(w, r, fmt.Errorf("%w: limit: %v", errBadRequest, err))
			return
		}
	}
	if v := q.Get("offset"); v != "" {
		if opts.Offset, err = strconv.Atoi(v); err != nil {
			rt.fail(w, r, fmt.Errorf("%w: offset: %v", errBadRequest, err))
			return
		}
	}
	for _, t := range q["type"] {
		opts.Types = append(opts.Types, inbox.Type(t))
	}

	items, err := rt.inbox.List(r.Context(), chi.URLParam(r, "recipient"), opts)
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (rt *router) countUnread(w http.ResponseWriter, r *http.Request) {
	n, err := rt.inbox.CountUnread(r.Context(), chi.URLParam(r, "recipient"))
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"unread": n})
}

// markRead marks the listed ids as read, or everything when ids is empty.
func (rt *router) markRead(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			rt.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
	}

	recipient := chi.URLParam(r, "recipient")
	var err error
	if len(body.IDs) == 0 {
		err = rt.inbox.MarkAllRead(r.Context(), recipient)
	} else {
		err = rt.inbox.MarkRead(r.Context(), recipient, body.IDs...)
	}
	if err != nil {
		rt.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *router) deleteItem(w http.ResponseWriter, r *http.Request) {
	if err := rt.inbox.Delete(r.Context(), chi.URLParam(r, "recipient"), chi.URLParam(r, "id")); err != nil {
		rt.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *router) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errUnknownDelivery), errors.Is(err, inbox.ErrItemNotFound):
		status = http.StatusNotFound
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, delivery.ErrUndeclaredAction):
		status = http.StatusUnprocessableEntity
	}
	if status == http.StatusInternalServerError {
		rt.log.LogAttrs(r.Context(), slog.LevelError, "request failed",
			logger.Component("api"),
			slog.String("path", r.URL.Path),
			logger.Error(err),
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
