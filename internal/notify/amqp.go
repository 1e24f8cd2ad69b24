package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
)

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPSender publishes notifications to a durable topic exchange using the
// notification kind as routing key.
type AMQPSender struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  amqpPublisher
	exchange string
}

func NewAMQPSender(url, exchange string) (*AMQPSender, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &AMQPSender{conn: conn, channel: ch, exchange: exchange}, nil
}

func (s *AMQPSender) Send(ctx context.Context, n Notification) error {
	msg, err := publishing(ctx, n)
	if err != nil {
		return err
	}
	// Channels are not safe for concurrent publishing.
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel.PublishWithContext(ctx, s.exchange, string(n.Kind), false, false, msg)
}

func publishing(ctx context.Context, n Notification) (amqp.Publishing, error) {
	body, err := json.Marshal(n)
	if err != nil {
		return amqp.Publishing{}, err
	}
	headers := amqp.Table{}
	otel.GetTextMapPropagator().Inject(ctx, amqpHeaderCarrier(headers))
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    n.ID.String(),
		Timestamp:    n.OccurredAt,
		Type:         string(n.Kind),
		Headers:      headers,
		Body:         body,
	}, nil
}

func (s *AMQPSender) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

type amqpHeaderCarrier amqp.Table

func (c amqpHeaderCarrier) Get(key string) string {
	v, _ := c[key].(string)
	return v
}

func (c amqpHeaderCarrier) Set(key, value string) {
	c[key] = value
}

func (c amqpHeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
