// Package events publishes country lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/Sheedy-T/sheedy-Country-Currency-Exchange-API/internal/country/models"
)

const (
	TypeCountryRefreshed = "country.refreshed"

	headerEventType = "event_type"
	recordKey       = "countries"
)

// Producer is the subset of *kgo.Client the publisher needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// RefreshedEvent is the payload of a country.refreshed record.
type RefreshedEvent struct {
	EventID            string     `json:"event_id"`
	Type               string     `json:"type"`
	OccurredAt         time.Time  `json:"occurred_at"`
	CountriesProcessed int        `json:"countries_processed"`
	Skipped            int        `json:"skipped"`
	TotalCountries     int        `json:"total_countries"`
	LastRefreshedAt    *time.Time `json:"last_refreshed_at"`
}

// Publisher writes events to a single topic.
type Publisher struct {
	producer Producer
	topic    string
	now      func() time.Time
}

// NewPublisher constructs a Publisher for topic.
func NewPublisher(producer Producer, topic string) *Publisher {
	return &Publisher{producer: producer, topic: topic, now: time.Now}
}

// PublishRefreshed emits one country.refreshed record and waits for the
// broker acknowledgement.
func (p *Publisher) PublishRefreshed(ctx context.Context, result models.RefreshResult) error {
	event := RefreshedEvent{
		EventID:            uuid.NewString(),
		Type:               TypeCountryRefreshed,
		OccurredAt:         p.now().UTC(),
		CountriesProcessed: result.Processed,
		Skipped:            result.Skipped,
		TotalCountries:     result.Status.TotalCountries,
		LastRefreshedAt:    result.Status.LastRefreshedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", TypeCountryRefreshed, err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(recordKey),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: headerEventType, Value: []byte(TypeCountryRefreshed)},
		},
	}
	if err := p.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("publish %s event: %w", TypeCountryRefreshed, err)
	}
	return nil
}
