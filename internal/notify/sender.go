package notify

import (
	"fmt"
	"log/slog"
	"strings"
)

type Config struct {
	Driver       string
	KafkaBrokers []string
	TopicPrefix  string
	AMQPURL      string
	Exchange     string
}

// NewSender builds the sender selected by cfg.Driver. An empty driver means log.
func NewSender(cfg Config, log *slog.Logger) (Sender, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "log":
		return NewLogSender(log), nil
	case "kafka":
		if len(cfg.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("kafka notify driver: no brokers configured")
		}
		return NewKafkaSender(cfg.KafkaBrokers, cfg.TopicPrefix), nil
	case "amqp":
		if cfg.AMQPURL == "" {
			return nil, fmt.Errorf("amqp notify driver: url is required")
		}
		return NewAMQPSender(cfg.AMQPURL, cfg.Exchange)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
