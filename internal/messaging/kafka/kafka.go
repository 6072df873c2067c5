// internal/messaging/kafka/kafka.go
package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	kafkaGo "github.com/segmentio/kafka-go"

	"github.com/javajoker/apparel-inventory/internal/messaging"
)

type kafkaPublisher struct {
	writer      *kafkaGo.Writer
	topicPrefix string
}

// NewPublisher creates a Kafka publisher. Topics are prefixed with
// topicPrefix followed by a dot.
func NewPublisher(brokers []string, topicPrefix string) messaging.Publisher {
	return &kafkaPublisher{
		writer: &kafkaGo.Writer{
			Addr:                   kafkaGo.TCP(brokers...),
			Balancer:               &kafkaGo.Hash{},
			AllowAutoTopicCreation: true,
		},
		topicPrefix: topicPrefix,
	}
}

func (k *kafkaPublisher) PublishEvent(ctx context.Context, topic string, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return k.writer.WriteMessages(ctx, kafkaGo.Message{
		Topic: k.TopicName(topic),
		Key:   []byte(key),
		Value: payload,
	})
}

func (k *kafkaPublisher) TopicName(topic string) string {
	if k.topicPrefix == "" {
		return topic
	}
	return k.topicPrefix + "." + topic
}

func (k *kafkaPublisher) Close() error {
	return k.writer.Close()
}
