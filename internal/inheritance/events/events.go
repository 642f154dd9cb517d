// Package events publishes a summary of every completed calculation.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/twmb/franz-go/pkg/kgo"

	"faraid/internal/inheritance/fiqh"
	"faraid/internal/inheritance/models"
)

const TypeCalculationCompleted = "calculation.completed"

// Event is the message value. It summarizes a result without the audit trace.
type Event struct {
	ID                    string                   `json:"id"`
	Type                  string                   `json:"type"`
	OwnerID               string                   `json:"owner_id,omitempty"`
	Madhab                fiqh.Madhab              `json:"madhab"`
	Currency              string                   `json:"currency"`
	NetEstate             decimal.Decimal          `json:"net_estate"`
	Heirs                 models.HeirCounts        `json:"heirs"`
	Shares                map[fiqh.ShareKey]string `json:"shares"`
	SpecialCases          []models.SpecialCaseType `json:"special_cases,omitempty"`
	AwlApplied            bool                     `json:"awl_applied"`
	RaddApplied           bool                     `json:"radd_applied"`
	BloodRelativesApplied bool                     `json:"blood_relatives_applied"`
	Confidence            float64                  `json:"confidence"`
	ElapsedMS             float64                  `json:"elapsed_ms"`
	OccurredAt            time.Time                `json:"occurred_at"`
}

// NewCalculationEvent summarizes res. Shares are keyed by share key and carry
// fraction strings.
func NewCalculationEvent(id, ownerID string, res *models.Result, elapsedMS float64, at time.Time) Event {
	shares := make(map[fiqh.ShareKey]string, len(res.Shares))
	for _, s := range res.Shares {
		shares[s.Key] = s.Fraction.String()
	}
	cases := make([]models.SpecialCaseType, 0, len(res.SpecialCases))
	for _, sc := range res.SpecialCases {
		cases = append(cases, sc.Type)
	}
	return Event{
		ID:                    id,
		Type:                  TypeCalculationCompleted,
		OwnerID:               ownerID,
		Madhab:                res.Madhab,
		Currency:              res.Estate.Currency,
		NetEstate:             res.NetEstate,
		Heirs:                 res.Heirs.Clone(),
		Shares:                shares,
		SpecialCases:          cases,
		AwlApplied:            res.AwlApplied,
		RaddApplied:           res.RaddApplied,
		BloodRelativesApplied: res.BloodRelativesApplied,
		Confidence:            res.Confidence,
		ElapsedMS:             elapsedMS,
		OccurredAt:            at.UTC(),
	}
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Producer is the slice of *kgo.Client the publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaPublisher writes events synchronously. Records are keyed by owner so
// one owner's events stay ordered; anonymous events are keyed by madhab.
type KafkaPublisher struct {
	producer Producer
	topic    string
}

func NewKafkaPublisher(producer Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	key := ev.OwnerID
	if key == "" {
		key = string(ev.Madhab)
	}
	rec := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(key),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(ev.Type)},
		},
	}
	if err := p.producer.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce %s: %w", ev.Type, err)
	}
	return nil
}

// NoopPublisher drops every event. Used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
