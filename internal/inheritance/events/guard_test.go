package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"faraid/pkg/platform/circuit"
	"faraid/pkg/platform/sentinel"
)

type publishFunc func(context.Context, Event) error

func (f publishFunc) Publish(ctx context.Context, ev Event) error { return f(ctx, ev) }

func TestGuardedPublisher(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	breaker := circuit.New("kafka",
		circuit.WithFailureThreshold(2),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return now }),
	)

	brokerErr := errors.New("broker down")
	calls := 0
	failing := true
	next := publishFunc(func(context.Context, Event) error {
		calls++
		if failing {
			return brokerErr
		}
		return nil
	})
	p := NewGuardedPublisher(next, breaker, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()
	ev := Event{ID: "calc-1", Type: TypeCalculationCompleted}

	require.ErrorIs(t, p.Publish(ctx, ev), brokerErr)
	require.ErrorIs(t, p.Publish(ctx, ev), brokerErr)
	assert.True(t, breaker.IsOpen())

	// Held back without touching the broker.
	err := p.Publish(ctx, ev)
	assert.ErrorIs(t, err, ErrBrokerUnavailable)
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	assert.Equal(t, 2, calls)

	now = now.Add(time.Minute)
	failing = false
	require.NoError(t, p.Publish(ctx, ev))
	assert.Equal(t, 3, calls)
	assert.False(t, breaker.IsOpen())
}
