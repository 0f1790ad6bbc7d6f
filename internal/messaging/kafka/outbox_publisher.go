package kafka

import (
	"encoding/json"
	"errors"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// OutboxTopicPublisher публикует outbox-сообщения в заданный Kafka topic.
type OutboxTopicPublisher struct {
	producer *Producer
	topic    string
}

// NewOutboxPublisher создаёт Kafka-паблишер для transactional outbox.
func NewOutboxPublisher(producer *Producer, topic string) *OutboxTopicPublisher {
	if topic == "" {
		topic = TopicOrderEvents
	}
	return &OutboxTopicPublisher{producer: producer, topic: topic}
}

// Publish отправляет событие с ключом по агрегату, чтобы события одного заказа шли в одну партицию.
func (p *OutboxTopicPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return errors.New("kafka outbox publisher is not initialized")
	}

	key := event.AggregateID
	if key == "" {
		key = event.ID
	}

	envelope := Envelope{
		ID:            event.ID,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		EventType:     event.EventType,
		Payload:       json.RawMessage(event.Payload),
		PublishedAt:   p.producer.now().UTC(),
	}
	headers := map[string]string{
		HeaderEventType: event.EventType,
		HeaderOutboxID:  event.ID,
	}
	return p.producer.SendJSON(p.topic, key, envelope, headers)
}

var _ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
