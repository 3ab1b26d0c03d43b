package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

type KafkaNotifier struct {
	producer sarama.AsyncProducer
	topic    string
}

func NewKafkaConfig() *sarama.Config {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 500 * time.Millisecond
	config.Producer.Retry.Max = 5
	return config
}

func NewKafkaNotifier(brokers []string, topic string, logger *log.Logger) (*KafkaNotifier, error) {
	producer, err := sarama.NewAsyncProducer(brokers, NewKafkaConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to start kafka producer: %w", err)
	}
	return NewKafkaNotifierWithProducer(producer, topic, logger), nil
}

// NewKafkaNotifierWithProducer drains the producer's error channel into
// logger; delivery failures never reach the caller.
func NewKafkaNotifierWithProducer(producer sarama.AsyncProducer, topic string, logger *log.Logger) *KafkaNotifier {
	go func() {
		for err := range producer.Errors() {
			logger.Printf("[notify] kafka delivery failed: %v", err)
		}
	}()
	return &KafkaNotifier{producer: producer, topic: topic}
}

func (n *KafkaNotifier) Notify(ctx context.Context, userID uuid.UUID, event string, payload map[string]any) error {
	body, err := json.Marshal(newMessage(userID, event, payload))
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: n.topic,
		Key:   sarama.StringEncoder(userID.String()),
		Value: sarama.ByteEncoder(body),
	}
	select {
	case n.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *KafkaNotifier) Close() error {
	return n.producer.Close()
}
