package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"faraid/internal/inheritance/engine"
	"faraid/internal/inheritance/fiqh"
	"faraid/internal/inheritance/handler/mocks"
	"faraid/internal/inheritance/models"
	"faraid/internal/inheritance/service"
	"faraid/internal/platform/middleware"
	ratelimit "faraid/internal/ratelimit/middleware"
	ratestore "faraid/internal/ratelimit/store"
	dErrors "faraid/pkg/domain-errors"
	"faraid/pkg/requestcontext"
	"faraid/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

const validToken = "valid-token"

type stubValidator struct{}

func (stubValidator) ValidateToken(token string) (*middleware.JWTClaims, error) {
	if token != validToken {
		return nil, errors.New("invalid token")
	}
	return &middleware.JWTClaims{Subject: "owner-1", TokenID: "tok-1"}, nil
}

type HandlerSuite struct {
	suite.Suite
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func newTestHandler(t *testing.T) (http.Handler, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(mockService, logger, stubValidator{})
	r := chi.NewRouter()
	h.Register(r)
	return r, mockService
}

func do(t *testing.T, router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	return testutil.DoRequest(router, testutil.WithBearer(testutil.NewRequest(t, method, path, body), token))
}

func umariyyahResult(t *testing.T) *models.Result {
	t.Helper()
	res, err := engine.New().Calculate(fiqh.Shafii, models.Estate{Total: decimal.NewFromInt(120000)}, models.HeirCounts{
		fiqh.Husband: 1, fiqh.Father: 1, fiqh.Mother: 1,
	})
	require.NoError(t, err)
	return res
}

const calculateBody = `{
	"madhab": "Shafii",
	"estate": {"total": "120000", "currency": "sar"},
	"heirs": {"husband": 1, "father": 1, "mother": 1}
}`

func (s *HandlerSuite) TestCalculate() {
	s.Run("success", func() {
		router, svc := newTestHandler(s.T())
		svc.EXPECT().Calculate(gomock.Any(), fiqh.Shafii, gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, _ fiqh.Madhab, estate models.Estate, heirs models.HeirCounts) (*service.Calculation, error) {
				s.Empty(requestcontext.OwnerID(ctx))
				s.Equal("SAR", estate.Currency)
				s.True(estate.Total.Equal(decimal.NewFromInt(120000)))
				s.Equal(models.HeirCounts{fiqh.Husband: 1, fiqh.Father: 1, fiqh.Mother: 1}, heirs)
				return &service.Calculation{ID: "calc-1", Result: umariyyahResult(s.T()), ElapsedMS: 0.4}, nil
			})

		w := do(s.T(), router, http.MethodPost, "/v1/inheritance/calculate", calculateBody, "")

		s.Equal(http.StatusOK, w.Code)
		body := testutil.DecodeJSON(s.T(), w)
		s.Equal(true, body["success"])
		s.Equal("calc-1", body["id"])
		s.Equal(false, body["saved"])
		s.Equal("shafii", body["madhab"])
		shares := body["shares"].([]any)
		s.Require().Len(shares, 3)
		var husband map[string]any
		for _, sh := range shares {
			if m := sh.(map[string]any); m["key"] == "husband" {
				husband = m
			}
		}
		s.Require().NotNil(husband)
		s.Equal("1/2", husband["fraction"])
		s.Equal("60000", husband["amount"])
		s.Equal("50.00%", husband["percent"])
	})

	s.Run("bearer token sets owner", func() {
		router, svc := newTestHandler(s.T())
		svc.EXPECT().Calculate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
			func(ctx context.Context, _ fiqh.Madhab, _ models.Estate, _ models.HeirCounts) (*service.Calculation, error) {
				s.Equal("owner-1", requestcontext.OwnerID(ctx))
				return &service.Calculation{ID: "calc-2", Result: umariyyahResult(s.T()), Saved: true}, nil
			})

		w := do(s.T(), router, http.MethodPost, "/v1/inheritance/calculate", calculateBody, validToken)
		s.Equal(http.StatusOK, w.Code)
		s.Equal(true, testutil.DecodeJSON(s.T(), w)["saved"])
	})

	s.Run("invalid token is rejected", func() {
		router, _ := newTestHandler(s.T())
		w := do(s.T(), router, http.MethodPost, "/v1/inheritance/calculate", calculateBody, "forged")
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("engine failure renders 422", func() {
		router, svc := newTestHandler(s.T())
		svc.EXPECT().Calculate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, &engine.Failure{
			Kind:       engine.KindState,
			Messages:   []string{"net estate is not positive"},
			Madhab:     fiqh.Shafii,
			MadhabName: "Shafii",
		})

		w := do(s.T(), router, http.MethodPost, "/v1/inheritance/calculate", calculateBody, "")

		s.Equal(http.StatusUnprocessableEntity, w.Code)
		body := testutil.DecodeJSON(s.T(), w)
		s.Equal(false, body["success"])
		s.Equal("state", body["kind"])
		s.Equal([]any{"net estate is not positive"}, body["errors"])
		s.Equal("shafii", body["madhab"])
		s.Equal("Shafii", body["madhab_name"])
	})

	s.Run("internal error hides detail", func() {
		router, svc := newTestHandler(s.T())
		svc.EXPECT().Calculate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, dErrors.Wrap(errors.New("nil map"), dErrors.CodeInternal, "calculation failed"))

		w := do(s.T(), router, http.MethodPost, "/v1/inheritance/calculate", calculateBody, "")
		s.Equal(http.StatusInternalServerError, w.Code)
		s.NotContains(w.Body.String(), "nil map")
	})

	s.Run("invalid body never reaches the service", func() {
		router, _ := newTestHandler(s.T())
		w := do(s.T(), router, http.MethodPost, "/v1/inheritance/calculate",
			`{"madhab":"zahiri","estate":{"total":100},"heirs":{"son":1}}`, "")
		testutil.AssertStatusAndError(s.T(), w, http.StatusBadRequest, "validation_error")
	})
}

func (s *HandlerSuite) TestCompare() {
	router, svc := newTestHandler(s.T())
	failure := &engine.Failure{Kind: engine.KindInput, Messages: []string{"bad"}, Madhab: fiqh.Hanafi}
	svc.EXPECT().Compare(gomock.Any(), gomock.Any(), gomock.Any()).Return(&service.Comparison{
		Entries: []service.CompareEntry{
			{Madhab: fiqh.Shafii, Result: umariyyahResult(s.T())},
			{Madhab: fiqh.Hanafi, Failure: failure},
		},
		Differences: []service.ShareDifference{{Key: "mother", Fractions: map[fiqh.Madhab]string{fiqh.Shafii: "1/6"}}},
	}, nil)

	w := do(s.T(), router, http.MethodPost, "/v1/inheritance/compare",
		`{"estate":{"total":120000},"heirs":{"husband":1,"father":1,"mother":1}}`, "")

	s.Equal(http.StatusOK, w.Code)
	body := testutil.DecodeJSON(s.T(), w)
	entries := body["entries"].([]any)
	s.Require().Len(entries, 2)
	s.NotNil(entries[0].(map[string]any)["result"])
	s.Equal("input", entries[1].(map[string]any)["failure"].(map[string]any)["kind"])
	s.Len(body["differences"].([]any), 1)
}

func (s *HandlerSuite) TestCatalog() {
	router, svc := newTestHandler(s.T())
	svc.EXPECT().Madhabs().Return(fiqh.All())
	svc.EXPECT().Heirs().Return(fiqh.AllHeirs())

	w := do(s.T(), router, http.MethodGet, "/v1/inheritance/madhabs", "", "")
	s.Equal(http.StatusOK, w.Code)
	s.Len(testutil.DecodeJSON(s.T(), w)["madhabs"].([]any), 4)

	w = do(s.T(), router, http.MethodGet, "/v1/inheritance/heirs", "", "")
	s.Equal(http.StatusOK, w.Code)
	heirs := testutil.DecodeJSON(s.T(), w)["heirs"].([]any)
	s.Len(heirs, len(fiqh.AllHeirs()))
	s.Equal("husband", heirs[0].(map[string]any)["key"])
}

func (s *HandlerSuite) TestHistory() {
	s.Run("requires a token", func() {
		router, _ := newTestHandler(s.T())
		w := do(s.T(), router, http.MethodGet, "/v1/inheritance/history", "", "")
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("lists records", func() {
		router, svc := newTestHandler(s.T())
		created := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
		svc.EXPECT().History(gomock.Any(), 5).Return([]*models.Record{{
			ID: "calc-1", OwnerID: "owner-1", Madhab: fiqh.Shafii, Result: umariyyahResult(s.T()), CreatedAt: created,
		}}, nil)

		w := do(s.T(), router, http.MethodGet, "/v1/inheritance/history?limit=5", "", validToken)

		s.Equal(http.StatusOK, w.Code)
		records := testutil.DecodeJSON(s.T(), w)["records"].([]any)
		s.Require().Len(records, 1)
		item := records[0].(map[string]any)
		s.Equal("calc-1", item["id"])
		s.Equal("120000", item["net_estate"])
		s.Equal(float64(3), item["share_count"])
	})

	s.Run("bad limit", func() {
		router, _ := newTestHandler(s.T())
		w := do(s.T(), router, http.MethodGet, "/v1/inheritance/history?limit=-2", "", validToken)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("get by id", func() {
		router, svc := newTestHandler(s.T())
		svc.EXPECT().Get(gomock.Any(), "calc-1").Return(&models.Record{ID: "calc-1", Result: umariyyahResult(s.T())}, nil)

		w := do(s.T(), router, http.MethodGet, "/v1/inheritance/history/calc-1", "", validToken)
		s.Equal(http.StatusOK, w.Code)
		body := testutil.DecodeJSON(s.T(), w)
		s.Equal("calc-1", body["id"])
		s.Equal("shafii", body["result"].(map[string]any)["madhab"])
	})

	s.Run("get missing", func() {
		router, svc := newTestHandler(s.T())
		svc.EXPECT().Get(gomock.Any(), "nope").Return(nil, dErrors.New(dErrors.CodeNotFound, "calculation not found"))

		w := do(s.T(), router, http.MethodGet, "/v1/inheritance/history/nope", "", validToken)
		testutil.AssertStatusAndError(s.T(), w, http.StatusNotFound, "not_found")
	})
}

func TestFromResult_EmptyCollectionsAreArrays(t *testing.T) {
	res := umariyyahResult(t)
	res.Warnings = nil
	res.BlockedHeirs = nil

	out := FromResult(res)
	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"warnings":[]`)
	assert.Contains(t, string(raw), `"blocked_heirs":[]`)
	assert.Empty(t, out.AwlRatio)
}

func TestCompareChargedPerSchool(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	limiter := ratelimit.New(ratestore.NewInMemoryStore(), 5, time.Minute, logger)

	r := chi.NewRouter()
	r.Use(middleware.ClientIP)
	New(svc, logger, stubValidator{}, WithRateLimiter(limiter)).Register(r)

	svc.EXPECT().Compare(gomock.Any(), gomock.Any(), gomock.Any()).Return(&service.Comparison{}, nil)
	svc.EXPECT().Calculate(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&service.Calculation{ID: "calc-1", Result: umariyyahResult(t)}, nil)

	body := `{"estate":{"total":1000},"heirs":{"son":1}}`
	w := do(t, r, http.MethodPost, "/v1/inheritance/compare", body, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	// One unit left: a comparison no longer fits but a calculation does.
	w = do(t, r, http.MethodPost, "/v1/inheritance/compare", body, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	w = do(t, r, http.MethodPost, "/v1/inheritance/calculate", calculateBody, "")
	assert.Equal(t, http.StatusOK, w.Code)
}
