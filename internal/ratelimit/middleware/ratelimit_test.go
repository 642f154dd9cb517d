package middleware

//go:generate mockgen -source=ratelimit.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"faraid/internal/ratelimit/metrics"
	"faraid/internal/ratelimit/middleware/mocks"
	"faraid/internal/ratelimit/models"
	"faraid/internal/ratelimit/store"
	"faraid/pkg/requestcontext"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRouter(mw *Middleware, cost int) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithClientIP(r.Context(), "203.0.113.7")
			if owner := r.Header.Get("X-Test-Owner"); owner != "" {
				ctx = requestcontext.WithOwnerID(ctx, owner)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	r.With(mw.Limit(cost)).Post("/calculate", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func post(router http.Handler, owner string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/calculate", nil)
	if owner != "" {
		req.Header.Set("X-Test-Owner", owner)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLimit_RejectsOverBudget(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	mw := New(store.NewInMemoryStore(), 8, time.Minute, discardLogger(), WithMetrics(m))
	router := newRouter(mw, 4)

	w := post(router, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "8", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))

	assert.Equal(t, http.StatusOK, post(router, "").Code)

	w = post(router, "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), `"error":"rate_limit_exceeded"`)

	assert.InDelta(t, 2, testutil.ToFloat64(m.Decisions.WithLabelValues("/calculate", "allowed")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Decisions.WithLabelValues("/calculate", "rejected")), 0)
}

func TestLimit_OwnersHaveSeparateBudgets(t *testing.T) {
	mw := New(store.NewInMemoryStore(), 1, time.Minute, discardLogger())
	router := newRouter(mw, 1)

	assert.Equal(t, http.StatusOK, post(router, "owner-1").Code)
	assert.Equal(t, http.StatusTooManyRequests, post(router, "owner-1").Code)
	assert.Equal(t, http.StatusOK, post(router, "owner-2").Code)
	assert.Equal(t, http.StatusOK, post(router, "").Code, "anonymous callers are keyed by IP")
}

func TestLimit_StoreErrorFailsOpen(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	st.EXPECT().AllowN(gomock.Any(), "ip:203.0.113.7", 1, 10, time.Minute).
		Return(nil, errors.New("redis: connection refused"))

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	router := newRouter(New(st, 10, time.Minute, discardLogger(), WithMetrics(m)), 1)

	w := post(router, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	assert.InDelta(t, 1, testutil.ToFloat64(m.StoreErrors), 0)
}

func TestLimit_RetryAfterFromReset(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockStore(ctrl)
	now := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	st.EXPECT().AllowN(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, int, int, time.Duration) (*models.Result, error) {
			return &models.Result{Allowed: false, Limit: 5, ResetAt: now.Add(12500 * time.Millisecond)}, nil
		})

	mw := New(st, 5, time.Minute, discardLogger())
	mw.now = func() time.Time { return now }

	w := post(newRouter(mw, 1), "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "13", w.Header().Get("Retry-After"))
}
