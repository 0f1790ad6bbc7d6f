package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/storefront/internal/messaging/kafka"
)

// initKafkaProducer создаёт producer, если заданы brokers.
// Пустой список возвращает nil, nil: события остаются в outbox до появления брокера.
func initKafkaProducer(brokers []string, clientID string, logger *log.Entry) (*kafka.Producer, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewProducer(brokers, clientID, logger)
	if err != nil {
		return nil, err
	}

	logger.WithField("brokers", brokers).Info("kafka producer initialized")
	return producer, nil
}

// connectKafka создаёт producer для Run. Ошибка подключения не останавливает сервис:
// API продолжает работать, события копятся в outbox до перезапуска с доступным брокером.
func connectKafka(cfg Config, logger *log.Entry) *kafka.Producer {
	producer, err := initKafkaProducer(cfg.KafkaBrokers, cfg.KafkaClientID, logger)
	if err != nil {
		logger.WithError(err).Warn("kafka producer unavailable, continuing without kafka")
		return nil
	}
	return producer
}

// closeKafka закрывает producer, если он создан.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
