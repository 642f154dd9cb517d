package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"faraid/internal/inheritance/engine"
	"faraid/internal/inheritance/events"
	"faraid/internal/inheritance/fiqh"
	"faraid/internal/inheritance/models"
	dErrors "faraid/pkg/domain-errors"
	"faraid/pkg/requestcontext"
)

const outcomeSuccess = "success"

// Calculation is a completed run. ID identifies the run in events and, when
// Saved is true, in the caller's history.
type Calculation struct {
	ID        string         `json:"id"`
	Result    *models.Result `json:"result"`
	ElapsedMS float64        `json:"elapsed_ms"`
	Saved     bool           `json:"saved"`
}

// Calculate runs the engine once per distinct concurrent input. An engine
// *engine.Failure is returned unchanged so transport can render its messages;
// anything else is an internal error.
func (s *Service) Calculate(ctx context.Context, madhab fiqh.Madhab, estate models.Estate, heirs models.HeirCounts) (*Calculation, error) {
	ctx, span := tracer.Start(ctx, "inheritance.Calculate",
		trace.WithAttributes(
			attribute.String("madhab", string(madhab)),
			attribute.Int("heir_kinds", len(heirs)),
		),
	)
	defer span.End()

	start := time.Now()
	res, err := s.run(madhab, estate, heirs)
	elapsed := time.Since(start)
	s.metrics.ObserveCalculateLatency(string(madhab), elapsed)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, s.failed(ctx, madhab, err, elapsed)
	}

	calc := &Calculation{
		ID:        uuid.NewString(),
		Result:    res,
		ElapsedMS: durationMS(elapsed),
	}
	s.recordSuccess(res)
	span.SetAttributes(
		attribute.Float64("confidence", res.Confidence),
		attribute.Bool("awl_applied", res.AwlApplied),
		attribute.Bool("radd_applied", res.RaddApplied),
	)

	owner := requestcontext.OwnerID(ctx)
	now := requestcontext.Now(ctx)
	if owner != "" && s.history != nil {
		calc.Saved = s.save(ctx, calc, owner, now)
	}
	s.publish(ctx, events.NewCalculationEvent(calc.ID, owner, res, calc.ElapsedMS, now))

	s.logger.InfoContext(ctx, "calculation completed",
		"request_id", requestcontext.RequestID(ctx),
		"calculation_id", calc.ID,
		"madhab", madhab,
		"confidence", res.Confidence,
		"saved", calc.Saved,
		"duration_ms", calc.ElapsedMS,
	)
	return calc, nil
}

// run shares one engine call between concurrent callers with identical input.
// Every caller but the leader gets its own copy of the result.
func (s *Service) run(madhab fiqh.Madhab, estate models.Estate, heirs models.HeirCounts) (*models.Result, error) {
	v, err, shared := s.inflight.Do(flightKey(madhab, estate, heirs), func() (any, error) {
		return s.calculator.Calculate(madhab, estate, heirs)
	})
	if err != nil {
		return nil, err
	}
	res := v.(*models.Result)
	if shared {
		s.metrics.IncrementDeduplicated()
		res = res.Clone()
	}
	return res, nil
}

func (s *Service) failed(ctx context.Context, madhab fiqh.Madhab, err error, elapsed time.Duration) error {
	var failure *engine.Failure
	if errors.As(err, &failure) {
		s.metrics.IncrementOutcome(string(madhab), string(failure.Kind)+"_error")
		s.logger.InfoContext(ctx, "calculation rejected",
			"request_id", requestcontext.RequestID(ctx),
			"madhab", madhab,
			"kind", failure.Kind,
			"errors", failure.Messages,
			"duration_ms", durationMS(elapsed),
		)
		return failure
	}
	s.metrics.IncrementOutcome(string(madhab), string(engine.KindInternal)+"_error")
	s.logger.ErrorContext(ctx, "calculation failed",
		"request_id", requestcontext.RequestID(ctx),
		"madhab", madhab,
		"error", err,
	)
	return dErrors.Wrap(err, dErrors.CodeInternal, "calculation failed")
}

func (s *Service) recordSuccess(res *models.Result) {
	s.metrics.IncrementOutcome(string(res.Madhab), outcomeSuccess)
	for _, sc := range res.SpecialCases {
		s.metrics.IncrementSpecialCase(string(sc.Type))
	}
}

func (s *Service) save(ctx context.Context, calc *Calculation, owner string, now time.Time) bool {
	rec := &models.Record{
		ID:        calc.ID,
		OwnerID:   owner,
		Madhab:    calc.Result.Madhab,
		Result:    calc.Result,
		ElapsedMS: calc.ElapsedMS,
		CreatedAt: now.UTC(),
	}
	if err := s.history.Save(ctx, rec); err != nil {
		s.metrics.IncrementHistoryError("save")
		s.logger.ErrorContext(ctx, "failed to save calculation history",
			"request_id", requestcontext.RequestID(ctx),
			"calculation_id", calc.ID,
			"error", err,
		)
		return false
	}
	return true
}

func (s *Service) publish(ctx context.Context, ev events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.metrics.IncrementPublishError()
		s.logger.WarnContext(ctx, "failed to publish calculation event",
			"request_id", requestcontext.RequestID(ctx),
			"calculation_id", ev.ID,
			"error", err,
		)
	}
}

func flightKey(madhab fiqh.Madhab, estate models.Estate, heirs models.HeirCounts) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s|%s|%s", madhab,
		estate.Total.String(), estate.Funeral.String(), estate.Debts.String(), estate.Will.String(),
		estate.Currency, heirs.String())
}

func durationMS(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
