package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storytelling-server/internal/interfaces"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	publishTimeout  = 10 * time.Second
	publishAttempts = 3
	appID           = "storytelling-server"
)

// amqpChannel is the part of *amqp.Channel the publisher uses.
type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// SessionEventPublisher publishes session lifecycle events to a topic
// exchange, routed by event type.
type SessionEventPublisher struct {
	channel  amqpChannel
	exchange string
	logger   *zap.Logger
}

var _ interfaces.SessionEventPublisher = (*SessionEventPublisher)(nil)

// NewRabbitMQSessionEventPublisher opens a channel and declares the exchange.
func NewRabbitMQSessionEventPublisher(conn *amqp.Connection, exchange string, logger *zap.Logger) (*SessionEventPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("session event publisher: failed to open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		exchange, // name
		"topic",  // kind
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("session event publisher: failed to declare exchange '%s': %w", exchange, err)
	}
	logger.Info("Session event exchange declared", zap.String("exchange", exchange))
	return newSessionEventPublisher(ch, exchange, logger), nil
}

func newSessionEventPublisher(ch amqpChannel, exchange string, logger *zap.Logger) *SessionEventPublisher {
	return &SessionEventPublisher{
		channel:  ch,
		exchange: exchange,
		logger:   logger.Named("SessionEventPublisher"),
	}
}

func (p *SessionEventPublisher) PublishSessionEvent(ctx context.Context, event interfaces.SessionEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal session event: %w", err)
	}
	if err := p.publish(ctx, string(event.EventType), body); err != nil {
		return fmt.Errorf("failed to publish %s for session %s: %w", event.EventType, event.SessionID, err)
	}
	p.logger.Debug("Session event published",
		zap.String("eventType", string(event.EventType)),
		zap.Stringer("sessionID", event.SessionID),
	)
	return nil
}

func (p *SessionEventPublisher) publish(ctx context.Context, routingKey string, body []byte) error {
	if p.channel == nil {
		return errors.New("rabbitmq channel is not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	var err error
	for attempt := 1; attempt <= publishAttempts; attempt++ {
		err = p.channel.PublishWithContext(ctx,
			p.exchange, // exchange
			routingKey, // routing key
			false,      // mandatory
			false,      // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
				Timestamp:    time.Now(),
				AppId:        appID,
			},
		)
		if err == nil {
			return nil
		}
		p.logger.Warn("Publish attempt failed",
			zap.Int("attempt", attempt),
			zap.String("routingKey", routingKey),
			zap.Error(err),
		)
		if attempt == publishAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	return fmt.Errorf("publish to exchange %s failed after %d attempts: %w", p.exchange, publishAttempts, err)
}

// Close closes the underlying channel.
func (p *SessionEventPublisher) Close() error {
	if p.channel == nil {
		return nil
	}
	return p.channel.Close()
}

// Connect dials RabbitMQ, retrying a few times while the broker starts.
func Connect(url string, logger *zap.Logger) (*amqp.Connection, error) {
	var (
		conn *amqp.Connection
		err  error
	)
	maxRetries := 5
	retryDelay := 5 * time.Second
	for i := 0; i < maxRetries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		logger.Warn("Failed to connect to RabbitMQ",
			zap.Int("attempt", i+1),
			zap.Int("maxAttempts", maxRetries),
			zap.Duration("retryDelay", retryDelay),
			zap.Error(err),
		)
		time.Sleep(retryDelay)
	}
	return nil, err
}
