package kafka

import (
	"encoding/json"
	"time"
)

// Topics для Kafka
const (
	TopicOrderEvents     = "storefront.order.events"
	TopicDeadLetterQueue = "storefront.dlq"
)

// Kafka headers, которые сопровождают каждое событие.
const (
	HeaderEventType = "x-event-type"
	HeaderOutboxID  = "x-outbox-id"
)

// Envelope — формат сообщения о событии заказа в topic.
type Envelope struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id"`
	EventType     string          `json:"event_type"`
	Payload       json.RawMessage `json:"payload"`
	PublishedAt   time.Time       `json:"published_at"`
}
