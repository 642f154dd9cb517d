package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Calculator,HistoryStore,EventPublisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"faraid/internal/inheritance/engine"
	"faraid/internal/inheritance/events"
	"faraid/internal/inheritance/fiqh"
	"faraid/internal/inheritance/metrics"
	"faraid/internal/inheritance/models"
	"faraid/internal/inheritance/service/mocks"
	"faraid/internal/inheritance/store"
	dErrors "faraid/pkg/domain-errors"
	"faraid/pkg/requestcontext"
)

var (
	testEstate = models.Estate{Total: decimal.NewFromInt(120000), Currency: "SAR"}
	testHeirs  = models.HeirCounts{fiqh.Husband: 1, fiqh.FullSister: 2, fiqh.Mother: 1}
	fixedNow   = time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
)

type ServiceSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	calculator *mocks.MockCalculator
	history    *mocks.MockHistoryStore
	publisher  *mocks.MockEventPublisher
	metrics    *metrics.Metrics
	service    *Service
	result     *models.Result
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.calculator = mocks.NewMockCalculator(s.ctrl)
	s.history = mocks.NewMockHistoryStore(s.ctrl)
	s.publisher = mocks.NewMockEventPublisher(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = New(s.calculator,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithHistoryStore(s.history),
		WithEventPublisher(s.publisher),
		WithMetrics(s.metrics),
		WithListLimit(20),
	)

	res, err := engine.New().Calculate(fiqh.Shafii, testEstate, testHeirs)
	s.Require().NoError(err)
	s.result = res
}

func ownerCtx(owner string) context.Context {
	ctx := requestcontext.WithTime(context.Background(), fixedNow)
	ctx = requestcontext.WithRequestID(ctx, "req-1")
	if owner != "" {
		ctx = requestcontext.WithOwnerID(ctx, owner)
	}
	return ctx
}

func (s *ServiceSuite) TestCalculate() {
	s.Run("authenticated caller is saved and published", func() {
		s.calculator.EXPECT().Calculate(fiqh.Shafii, testEstate, testHeirs).Return(s.result, nil)
		var savedID string
		s.history.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, rec *models.Record) error {
			s.Equal("owner-1", rec.OwnerID)
			s.Equal(fiqh.Shafii, rec.Madhab)
			s.Equal(fixedNow, rec.CreatedAt)
			s.Same(s.result, rec.Result)
			savedID = rec.ID
			return nil
		})
		s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ev events.Event) error {
			s.Equal(savedID, ev.ID)
			s.Equal("owner-1", ev.OwnerID)
			s.Equal(fixedNow, ev.OccurredAt)
			return nil
		})

		calc, err := s.service.Calculate(ownerCtx("owner-1"), fiqh.Shafii, testEstate, testHeirs)
		s.Require().NoError(err)
		s.True(calc.Saved)
		s.Equal(savedID, calc.ID)
		s.GreaterOrEqual(calc.ElapsedMS, 0.0)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.Calculations.WithLabelValues("shafii", "success")))
		s.Equal(1.0, testutil.ToFloat64(s.metrics.SpecialCases.WithLabelValues("awl")))
	})

	s.Run("anonymous caller is not saved", func() {
		s.calculator.EXPECT().Calculate(gomock.Any(), gomock.Any(), gomock.Any()).Return(s.result, nil)
		s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, ev events.Event) error {
			s.Empty(ev.OwnerID)
			return nil
		})

		calc, err := s.service.Calculate(ownerCtx(""), fiqh.Shafii, testEstate, testHeirs)
		s.Require().NoError(err)
		s.False(calc.Saved)
		s.NotEmpty(calc.ID)
	})

	s.Run("history and publish failures do not fail the calculation", func() {
		s.calculator.EXPECT().Calculate(gomock.Any(), gomock.Any(), gomock.Any()).Return(s.result, nil)
		s.history.EXPECT().Save(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))
		s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

		calc, err := s.service.Calculate(ownerCtx("owner-1"), fiqh.Shafii, testEstate, testHeirs)
		s.Require().NoError(err)
		s.False(calc.Saved)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.HistoryErrors.WithLabelValues("save")))
		s.Equal(1.0, testutil.ToFloat64(s.metrics.PublishErrors))
	})

	s.Run("engine failure is returned unchanged", func() {
		failure := &engine.Failure{Kind: engine.KindInput, Messages: []string{"husband and wife cannot both be present"}, Madhab: fiqh.Shafii}
		s.calculator.EXPECT().Calculate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, failure)

		_, err := s.service.Calculate(ownerCtx("owner-1"), fiqh.Shafii, testEstate, testHeirs)
		var got *engine.Failure
		s.Require().ErrorAs(err, &got)
		s.Same(failure, got)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.Calculations.WithLabelValues("shafii", "input_error")))
	})

	s.Run("unexpected error is internal", func() {
		s.calculator.EXPECT().Calculate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))

		_, err := s.service.Calculate(ownerCtx(""), fiqh.Shafii, testEstate, testHeirs)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestHistory() {
	s.Run("requires an owner", func() {
		_, err := s.service.History(ownerCtx(""), 10)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("limit is clamped", func() {
		s.history.EXPECT().ListByOwner(gomock.Any(), "owner-1", 20).Return(nil, nil).Times(2)

		_, err := s.service.History(ownerCtx("owner-1"), 0)
		s.Require().NoError(err)
		_, err = s.service.History(ownerCtx("owner-1"), 500)
		s.Require().NoError(err)
	})

	s.Run("valid limit passes through", func() {
		s.history.EXPECT().ListByOwner(gomock.Any(), "owner-1", 5).Return([]*models.Record{{ID: "a"}}, nil)

		records, err := s.service.History(ownerCtx("owner-1"), 5)
		s.Require().NoError(err)
		s.Len(records, 1)
	})

	s.Run("store failure", func() {
		s.history.EXPECT().ListByOwner(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))

		_, err := s.service.History(ownerCtx("owner-1"), 5)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *ServiceSuite) TestGet() {
	s.Run("not found", func() {
		s.history.EXPECT().Get(gomock.Any(), "owner-1", "missing").Return(nil, store.ErrNotFound)

		_, err := s.service.Get(ownerCtx("owner-1"), "missing")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("found", func() {
		rec := &models.Record{ID: "calc-1", OwnerID: "owner-1"}
		s.history.EXPECT().Get(gomock.Any(), "owner-1", "calc-1").Return(rec, nil)

		got, err := s.service.Get(ownerCtx("owner-1"), "calc-1")
		s.Require().NoError(err)
		s.Same(rec, got)
	})
}

func TestHistoryDisabled(t *testing.T) {
	svc := New(engine.New())

	_, err := svc.History(ownerCtx("owner-1"), 10)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	_, err = svc.Get(ownerCtx("owner-1"), "x")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestCalculate_ConcurrentCallersGetOwnCopies(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	calc := calculatorFunc(func(m fiqh.Madhab, e models.Estate, h models.HeirCounts) (*models.Result, error) {
		calls.Add(1)
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return engine.New().Calculate(m, e, h)
	})
	svc := New(calc, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	const callers = 8
	results := make([]*models.Result, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := svc.Calculate(context.Background(), fiqh.Shafii, testEstate, testHeirs)
			require.NoError(t, err)
			results[i] = c.Result
		}()
	}
	<-started
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(callers))
	seen := make(map[*models.Result]bool)
	for _, r := range results {
		require.NotNil(t, r)
		assert.False(t, seen[r], "result pointer shared between callers")
		seen[r] = true
		sh, ok := r.Share(fiqh.Husband.ShareKey())
		require.True(t, ok)
		assert.Equal(t, "3/8", sh.Fraction.String())
	}
}

func TestCompare(t *testing.T) {
	svc := New(engine.New(), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	t.Run("grandfather with siblings differs by school", func(t *testing.T) {
		cmp, err := svc.Compare(context.Background(), testEstate, models.HeirCounts{
			fiqh.Grandfather: 1, fiqh.FullBrother: 1, fiqh.FullSister: 1,
		})
		require.NoError(t, err)
		require.Len(t, cmp.Entries, 4)
		for i, m := range fiqh.Madhabs() {
			assert.Equal(t, m, cmp.Entries[i].Madhab)
			assert.NotNil(t, cmp.Entries[i].Result)
		}

		var gf *ShareDifference
		for i := range cmp.Differences {
			if cmp.Differences[i].Key == fiqh.Grandfather.ShareKey() {
				gf = &cmp.Differences[i]
			}
		}
		require.NotNil(t, gf)
		assert.Equal(t, "1", gf.Fractions[fiqh.Shafii])
		assert.Equal(t, "2/5", gf.Fractions[fiqh.Maliki])
	})

	t.Run("input failure is reported per school", func(t *testing.T) {
		cmp, err := svc.Compare(context.Background(), testEstate, models.HeirCounts{fiqh.Husband: 1, fiqh.Wife: 1})
		require.NoError(t, err)
		for _, e := range cmp.Entries {
			assert.Nil(t, e.Result)
			require.NotNil(t, e.Failure)
			assert.Equal(t, engine.KindInput, e.Failure.Kind)
		}
		assert.Empty(t, cmp.Differences)
	})

	t.Run("internal error fails the comparison", func(t *testing.T) {
		broken := New(calculatorFunc(func(fiqh.Madhab, models.Estate, models.HeirCounts) (*models.Result, error) {
			return nil, errors.New("boom")
		}))
		_, err := broken.Compare(context.Background(), testEstate, testHeirs)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

type calculatorFunc func(fiqh.Madhab, models.Estate, models.HeirCounts) (*models.Result, error)

func (f calculatorFunc) Calculate(m fiqh.Madhab, e models.Estate, h models.HeirCounts) (*models.Result, error) {
	return f(m, e, h)
}
