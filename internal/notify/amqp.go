package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/m3rciful/schoolbot/internal/leads"
)

const (
	// DefaultExchange receives lead events.
	DefaultExchange = "ex.leads"
	// RoutingKeyLeadCompleted tags finished intake forms.
	RoutingKeyLeadCompleted = "lead.completed"
)

// AMQPConfig configures the RabbitMQ sink. An empty URL disables it.
type AMQPConfig struct {
	URL      string `yaml:"url" envconfig:"AMQP_URL"`
	Exchange string `yaml:"exchange" envconfig:"AMQP_EXCHANGE"`
}

// LeadEvent is the JSON body published for each completed lead.
type LeadEvent struct {
	Event       string    `json:"event"`
	TgID        int64     `json:"tg_id"`
	Name        string    `json:"name"`
	AgeGroup    string    `json:"age_group"`
	Level       string    `json:"level"`
	Goal        string    `json:"goal"`
	Schedule    string    `json:"schedule"`
	Contact     string    `json:"contact"`
	CompletedAt time.Time `json:"completed_at"`
}

// Publisher is the part of *amqp.Channel used by the sink.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPSink publishes lead.completed events.
type AMQPSink struct {
	pub      Publisher
	exchange string
	conn     *amqp.Connection
	now      func() time.Time
}

// DialAMQP connects, declares the topic exchange and returns a ready sink.
// It returns nil, nil when cfg.URL is empty.
func DialAMQP(cfg AMQPConfig) (*AMQPSink, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	exchange := cfg.Exchange
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp exchange declare: %w", err)
	}
	s := NewAMQPSink(ch, exchange)
	s.conn = conn
	return s, nil
}

// NewAMQPSink wraps an existing channel.
func NewAMQPSink(pub Publisher, exchange string) *AMQPSink {
	return &AMQPSink{pub: pub, exchange: exchange, now: time.Now}
}

func (s *AMQPSink) Name() string { return "amqp" }

func (s *AMQPSink) Notify(ctx context.Context, l leads.Lead) error {
	body, err := json.Marshal(LeadEvent{
		Event:       RoutingKeyLeadCompleted,
		TgID:        l.TgID,
		Name:        l.Name,
		AgeGroup:    l.AgeGroup,
		Level:       l.Level,
		Goal:        l.Goal,
		Schedule:    l.Schedule,
		Contact:     l.Contact,
		CompletedAt: s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode lead event: %w", err)
	}
	err = s.pub.PublishWithContext(ctx, s.exchange, RoutingKeyLeadCompleted, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

// Close closes the publisher channel, then the connection when the sink owns one.
func (s *AMQPSink) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if c, ok := s.pub.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if s.conn != nil {
		errs = append(errs, s.conn.Close())
	}
	return errors.Join(errs...)
}
