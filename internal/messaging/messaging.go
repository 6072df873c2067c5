// internal/messaging/messaging.go
package messaging

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Topic names, prefixed by the configured topic prefix.
const (
	TopicOrderCreated  = "order.created"
	TopicStockMovement = "stock.movement"
)

// Publisher defines an interface for publishing events to a message broker.
type Publisher interface {
	PublishEvent(ctx context.Context, topic string, key string, event any) error
	Close() error
}

// Envelope is the common header carried by every published event.
type Envelope struct {
	EventID    string    `json:"event_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewEnvelope() Envelope {
	return Envelope{EventID: uuid.NewString(), OccurredAt: time.Now().UTC()}
}

type OrderLineEvent struct {
	VariantID uint            `json:"variant_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type OrderCreatedEvent struct {
	Envelope
	OrderID      uint             `json:"order_id"`
	OrderNumber  string           `json:"order_number"`
	CustomerName string           `json:"customer_name"`
	Total        decimal.Decimal  `json:"total"`
	Lines        []OrderLineEvent `json:"lines"`
}

type StockMovementEvent struct {
	Envelope
	MovementID uint   `json:"movement_id"`
	VariantID  uint   `json:"variant_id"`
	Change     int    `json:"change"`
	Balance    int    `json:"balance"`
	Reason     string `json:"reason"`
	Reference  string `json:"reference,omitempty"`
}

// LogPublisher writes events to the application log. It is used when no
// broker is configured.
type LogPublisher struct {
	logger *logrus.Logger
}

func NewLogPublisher(logger *logrus.Logger) *LogPublisher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	p.logger.WithFields(logrus.Fields{
		"topic": topic,
		"key":   key,
		"event": event,
	}).Debug("Event published")
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// RecordingPublisher keeps published events in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []RecordedEvent
	Err    error
}

type RecordedEvent struct {
	Topic string
	Key   string
	Event any
}

func (p *RecordingPublisher) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Events = append(p.Events, RecordedEvent{Topic: topic, Key: key, Event: event})
	return nil
}

func (p *RecordingPublisher) Close() error { return nil }

// Topics filters recorded topic names, in publish order.
func (p *RecordingPublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	topics := make([]string, 0, len(p.Events))
	for _, e := range p.Events {
		topics = append(topics, e.Topic)
	}
	return topics
}
