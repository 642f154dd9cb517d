package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"faraid/internal/inheritance/engine"
	"faraid/internal/inheritance/fiqh"
	"faraid/internal/inheritance/models"
	"faraid/internal/inheritance/service"
	"faraid/internal/platform/middleware"
	dErrors "faraid/pkg/domain-errors"
	"faraid/pkg/platform/httputil"
	"faraid/pkg/requestcontext"
)

// Service defines the inheritance operations exposed over HTTP.
type Service interface {
	Calculate(ctx context.Context, madhab fiqh.Madhab, estate models.Estate, heirs models.HeirCounts) (*service.Calculation, error)
	Compare(ctx context.Context, estate models.Estate, heirs models.HeirCounts) (*service.Comparison, error)
	History(ctx context.Context, limit int) ([]*models.Record, error)
	Get(ctx context.Context, id string) (*models.Record, error)
	Madhabs() []fiqh.Config
	Heirs() []fiqh.Heir
}

// RateLimiter returns middleware that charges cost units per request.
type RateLimiter interface {
	Limit(cost int) func(http.Handler) http.Handler
}

// Handler wires inheritance endpoints to the service.
type Handler struct {
	service      Service
	logger       *slog.Logger
	jwtValidator middleware.JWTValidator
	limiter      RateLimiter
}

type Option func(*Handler)

// WithRateLimiter bounds calculate and compare traffic. A comparison is
// charged once per school it evaluates.
func WithRateLimiter(l RateLimiter) Option {
	return func(h *Handler) {
		h.limiter = l
	}
}

func New(service Service, logger *slog.Logger, jwtValidator middleware.JWTValidator, opts ...Option) *Handler {
	h := &Handler{
		service:      service,
		logger:       logger,
		jwtValidator: jwtValidator,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) limit(cost int) func(http.Handler) http.Handler {
	if h.limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return h.limiter.Limit(cost)
}

// Register mounts the inheritance routes under /v1/inheritance. Calculations
// accept an optional bearer token; history requires one.
func (h *Handler) Register(r chi.Router) {
	r.Route("/v1/inheritance", func(r chi.Router) {
		r.Get("/madhabs", h.HandleMadhabs)
		r.Get("/heirs", h.HandleHeirs)

		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(h.jwtValidator, h.logger))
			r.With(h.limit(1)).Post("/calculate", h.HandleCalculate)
			r.With(h.limit(len(fiqh.Madhabs()))).Post("/compare", h.HandleCompare)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
			r.Get("/history", h.HandleHistory)
			r.Get("/history/{id}", h.HandleGetRecord)
		})
	})
}

// HandleCalculate handles POST /v1/inheritance/calculate.
func (h *Handler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	req, ok := httputil.DecodeAndPrepare[CalculateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	calc, err := h.service.Calculate(ctx, req.ParsedMadhab(), req.ParsedEstate(), req.ParsedHeirs())
	if err != nil {
		h.writeCalculationError(ctx, w, requestID, err)
		return
	}

	h.logger.InfoContext(ctx, "inheritance calculated",
		"request_id", requestID,
		"calculation_id", calc.ID,
		"madhab", req.ParsedMadhab(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, FromCalculation(calc))
}

// HandleCompare handles POST /v1/inheritance/compare.
func (h *Handler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CompareRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	cmp, err := h.service.Compare(ctx, req.ParsedEstate(), req.ParsedHeirs())
	if err != nil {
		h.logger.ErrorContext(ctx, "inheritance comparison failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromComparison(cmp))
}

func (h *Handler) HandleMadhabs(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"madhabs": h.service.Madhabs()})
}

func (h *Handler) HandleHeirs(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"heirs": FromHeirs(h.service.Heirs())})
}

// HandleHistory handles GET /v1/inheritance/history?limit=n.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be a positive integer"))
			return
		}
		limit = n
	}

	records, err := h.service.History(ctx, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to list history",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecords(records))
}

// HandleGetRecord handles GET /v1/inheritance/history/{id}.
func (h *Handler) HandleGetRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "id is required"))
		return
	}

	rec, err := h.service.Get(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to load calculation",
			"request_id", requestID,
			"calculation_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromRecord(rec))
}

func (h *Handler) writeCalculationError(ctx context.Context, w http.ResponseWriter, requestID string, err error) {
	var failure *engine.Failure
	if errors.As(err, &failure) {
		h.logger.InfoContext(ctx, "calculation rejected",
			"request_id", requestID,
			"kind", failure.Kind,
			"errors", failure.Messages,
		)
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, FromFailure(failure))
		return
	}
	h.logger.ErrorContext(ctx, "calculation failed",
		"request_id", requestID,
		"error", err,
	)
	httputil.WriteError(w, err)
}
