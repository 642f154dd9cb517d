package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"faraid/internal/inheritance/engine"
	"faraid/internal/inheritance/fiqh"
	"faraid/internal/inheritance/models"
	dErrors "faraid/pkg/domain-errors"
	"faraid/pkg/requestcontext"
)

// Comparison holds one entry per school in canonical order.
type Comparison struct {
	Entries     []CompareEntry    `json:"entries"`
	Differences []ShareDifference `json:"differences"`
	ElapsedMS   float64           `json:"elapsed_ms"`
}

// CompareEntry carries either a result or the engine's rejection.
type CompareEntry struct {
	Madhab  fiqh.Madhab     `json:"madhab"`
	Result  *models.Result  `json:"result,omitempty"`
	Failure *engine.Failure `json:"-"`
}

// ShareDifference lists a share line whose fraction is not the same in every
// successful school. A school that gives the line nothing reports "0".
type ShareDifference struct {
	Key       fiqh.ShareKey          `json:"key"`
	Fractions map[fiqh.Madhab]string `json:"fractions"`
}

// Compare runs the same estate under every school concurrently. Comparisons
// are not saved to history and publish no events. Only an internal error
// fails the whole comparison.
func (s *Service) Compare(ctx context.Context, estate models.Estate, heirs models.HeirCounts) (*Comparison, error) {
	ctx, span := tracer.Start(ctx, "inheritance.Compare",
		trace.WithAttributes(attribute.Int("heir_kinds", len(heirs))),
	)
	defer span.End()

	start := time.Now()
	madhabs := fiqh.Madhabs()
	entries := make([]CompareEntry, len(madhabs))

	g, gctx := errgroup.WithContext(ctx)
	for i, m := range madhabs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			entries[i].Madhab = m
			res, err := s.run(m, estate, heirs)
			if err == nil {
				s.recordSuccess(res)
				entries[i].Result = res
				return nil
			}
			var failure *engine.Failure
			if errors.As(err, &failure) {
				s.metrics.IncrementOutcome(string(m), string(failure.Kind)+"_error")
				entries[i].Failure = failure
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.ErrorContext(ctx, "comparison failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "comparison cancelled")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "comparison failed")
	}

	elapsed := time.Since(start)
	s.metrics.ObserveCompareLatency(elapsed)
	cmp := &Comparison{
		Entries:     entries,
		Differences: differences(entries),
		ElapsedMS:   durationMS(elapsed),
	}
	s.logger.InfoContext(ctx, "comparison completed",
		"request_id", requestcontext.RequestID(ctx),
		"differences", len(cmp.Differences),
		"duration_ms", cmp.ElapsedMS,
	)
	return cmp, nil
}

func differences(entries []CompareEntry) []ShareDifference {
	var keys []fiqh.ShareKey
	seen := make(map[fiqh.ShareKey]bool)
	ok := 0
	for _, e := range entries {
		if e.Result == nil {
			continue
		}
		ok++
		for _, sh := range e.Result.Shares {
			if !seen[sh.Key] {
				seen[sh.Key] = true
				keys = append(keys, sh.Key)
			}
		}
	}
	if ok < 2 {
		return nil
	}

	var out []ShareDifference
	for _, key := range keys {
		fractions := make(map[fiqh.Madhab]string, ok)
		distinct := make(map[string]bool)
		for _, e := range entries {
			if e.Result == nil {
				continue
			}
			f := "0"
			if sh, found := e.Result.Share(key); found {
				f = sh.Fraction.String()
			}
			fractions[e.Madhab] = f
			distinct[f] = true
		}
		if len(distinct) > 1 {
			out = append(out, ShareDifference{Key: key, Fractions: fractions})
		}
	}
	return out
}
