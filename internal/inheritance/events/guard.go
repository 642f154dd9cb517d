package events

import (
	"context"
	"fmt"
	"log/slog"

	"faraid/pkg/platform/circuit"
	"faraid/pkg/platform/sentinel"
)

// ErrBrokerUnavailable is returned while the breaker is holding events back.
var ErrBrokerUnavailable = fmt.Errorf("event broker: %w", sentinel.ErrUnavailable)

// GuardedPublisher stops calling a failing broker until the breaker's
// cooldown passes. Events offered while it is open are dropped.
type GuardedPublisher struct {
	next    Publisher
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewGuardedPublisher(next Publisher, breaker *circuit.Breaker, logger *slog.Logger) *GuardedPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &GuardedPublisher{next: next, breaker: breaker, logger: logger}
}

func (p *GuardedPublisher) Publish(ctx context.Context, ev Event) error {
	if !p.breaker.Allow() {
		return ErrBrokerUnavailable
	}
	if err := p.next.Publish(ctx, ev); err != nil {
		if _, change := p.breaker.RecordFailure(); change.Opened {
			p.logger.WarnContext(ctx, "event publishing paused",
				"breaker", p.breaker.Name(),
				"error", err,
			)
		}
		return err
	}
	if _, change := p.breaker.RecordSuccess(); change.Closed {
		p.logger.InfoContext(ctx, "event publishing resumed", "breaker", p.breaker.Name())
	}
	return nil
}
