package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher is the part of *amqp.Channel the notifier needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitNotifier publishes to a topic exchange using the event name as the
// routing key.
type RabbitNotifier struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	pub      Publisher
	exchange string
}

func NewRabbitNotifier(url, exchange string) (*RabbitNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &RabbitNotifier{conn: conn, ch: ch, pub: ch, exchange: exchange}, nil
}

// NewRabbitNotifierWithPublisher publishes through an already open channel.
func NewRabbitNotifierWithPublisher(pub Publisher, exchange string) *RabbitNotifier {
	return &RabbitNotifier{pub: pub, exchange: exchange}
}

func (n *RabbitNotifier) Notify(ctx context.Context, userID uuid.UUID, event string, payload map[string]any) error {
	body, err := json.Marshal(newMessage(userID, event, payload))
	if err != nil {
		return err
	}
	err = n.pub.PublishWithContext(ctx, n.exchange, event, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", event, err)
	}
	return nil
}

func (n *RabbitNotifier) Close() error {
	if n.ch != nil {
		_ = n.ch.Close()
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
