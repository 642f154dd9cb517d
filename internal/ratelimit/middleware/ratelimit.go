// Package middleware enforces per-caller request budgets on HTTP routes.
//
// Callers are identified by their bearer subject when one is present and by
// client IP otherwise, so the middleware must run after ClientIP and
// OptionalAuth.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"faraid/internal/ratelimit/metrics"
	"faraid/internal/ratelimit/models"
	"faraid/pkg/platform/httputil"
	"faraid/pkg/requestcontext"
)

// Store admits or rejects weighted requests for a key.
type Store interface {
	AllowN(ctx context.Context, key string, cost, limit int, window time.Duration) (*models.Result, error)
}

type Middleware struct {
	store   Store
	limit   int
	window  time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Middleware)

func WithMetrics(m *metrics.Metrics) Option {
	return func(mw *Middleware) {
		mw.metrics = m
	}
}

func New(store Store, limit int, window time.Duration, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:  store,
		limit:  limit,
		window: window,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Limit charges cost units per request. Store failures let the request
// through.
func (m *Middleware) Limit(cost int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := callerKey(ctx)

			result, err := m.store.AllowN(ctx, key, cost, m.limit, m.window)
			if err != nil {
				m.metrics.IncrementStoreErrors()
				m.logger.ErrorContext(ctx, "rate limit check failed",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			route := routePattern(r)
			m.metrics.RecordDecision(route, result.Allowed)
			setHeaders(w, result)
			if !result.Allowed {
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"request_id", requestcontext.RequestID(ctx),
					"route", route,
					"caller", key,
				)
				retry := result.RetryAfter(m.now())
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				httputil.WriteJSON(w, http.StatusTooManyRequests, &models.ExceededResponse{
					Error:            "rate_limit_exceeded",
					ErrorDescription: "too many calculations, try again later",
					RetryAfter:       retry,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func callerKey(ctx context.Context) string {
	if owner := requestcontext.OwnerID(ctx); owner != "" {
		return "owner:" + owner
	}
	return "ip:" + requestcontext.ClientIP(ctx)
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

func setHeaders(w http.ResponseWriter, result *models.Result) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}
