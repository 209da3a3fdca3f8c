package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// SessionExchange is the durable topic exchange session events are routed
// through. The event subject is the routing key.
const SessionExchange = "autospace.sessions"

const rabbitPublishTimeout = 5 * time.Second

// RabbitMQQueue publishes to SessionExchange and binds one exclusive queue
// per subscription. Subscriptions are re-bound after a reconnect.
type RabbitMQQueue struct {
	url string
	log *zap.Logger

	mu       sync.RWMutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	handlers map[string][]func([]byte) error
	closed   bool
}

func NewRabbitMQQueue(url string, log *zap.Logger) (MessageQueue, error) {
	q := &RabbitMQQueue{
		url:      url,
		log:      log,
		handlers: make(map[string][]func([]byte) error),
	}
	if err := q.connect(); err != nil {
		return nil, err
	}

	host := "rabbitmq"
	if uri, err := amqp.ParseURI(url); err == nil {
		host = fmt.Sprintf("%s:%d", uri.Host, uri.Port)
	}
	log.Info("Connected to RabbitMQ", zap.String("host", host), zap.String("exchange", SessionExchange))

	go q.watch()
	return q, nil
}

// connect dials, opens a channel and declares the exchange. Caller must
// not hold q.mu.
func (q *RabbitMQQueue) connect() error {
	conn, err := amqp.Dial(q.url)
	if err != nil {
		return fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("rabbitmq: open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(SessionExchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("rabbitmq: declare exchange: %w", err)
	}

	q.mu.Lock()
	q.conn = conn
	q.channel = ch
	q.mu.Unlock()
	return nil
}

func (q *RabbitMQQueue) Publish(subject string, data []byte) error {
	q.mu.RLock()
	ch := q.channel
	q.mu.RUnlock()
	if ch == nil || ch.IsClosed() {
		return errors.New("rabbitmq: channel not available")
	}

	ctx, cancel := context.WithTimeout(context.Background(), rabbitPublishTimeout)
	defer cancel()

	err := ch.PublishWithContext(ctx, SessionExchange, subject, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Type:         subject,
		Timestamp:    time.Now().UTC(),
		Body:         data,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq: publish %s: %w", subject, err)
	}
	return nil
}

func (q *RabbitMQQueue) Subscribe(subject string, handler func(data []byte) error) error {
	q.mu.Lock()
	q.handlers[subject] = append(q.handlers[subject], handler)
	ch := q.channel
	q.mu.Unlock()

	return q.consume(ch, subject, handler)
}

func (q *RabbitMQQueue) consume(ch *amqp.Channel, subject string, handler func([]byte) error) error {
	if ch == nil {
		return errors.New("rabbitmq: channel not available")
	}
	queue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq: declare queue: %w", err)
	}
	if err := ch.QueueBind(queue.Name, subject, SessionExchange, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: bind %s: %w", subject, err)
	}
	deliveries, err := ch.Consume(queue.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq: consume %s: %w", subject, err)
	}

	go func() {
		for d := range deliveries {
			if err := handler(d.Body); err != nil {
				q.log.Error("Session event handler failed",
					zap.String("subject", subject),
					zap.String("message_id", d.MessageId),
					zap.Error(err),
				)
			}
		}
	}()

	q.log.Info("Subscribed to session events", zap.String("subject", subject), zap.String("queue", queue.Name))
	return nil
}

// Ping reports whether the connection is usable.
func (q *RabbitMQQueue) Ping(_ context.Context) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.conn == nil || q.conn.IsClosed() {
		return errors.New("rabbitmq: connection closed")
	}
	return nil
}

func (q *RabbitMQQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	if q.channel != nil {
		_ = q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

func (q *RabbitMQQueue) isClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// watch reconnects with exponential backoff whenever the broker drops the
// connection, then re-binds every subscription.
func (q *RabbitMQQueue) watch() {
	for {
		q.mu.RLock()
		conn := q.conn
		q.mu.RUnlock()

		reason, ok := <-conn.NotifyClose(make(chan *amqp.Error, 1))
		if !ok || reason == nil || q.isClosed() {
			return
		}
		q.log.Warn("RabbitMQ connection lost", zap.String("reason", reason.Reason))

		policy := backoff.NewExponentialBackOff()
		policy.InitialInterval = 500 * time.Millisecond
		policy.MaxInterval = 30 * time.Second
		policy.MaxElapsedTime = 0

		err := backoff.RetryNotify(func() error {
			if q.isClosed() {
				return backoff.Permanent(errors.New("queue closed"))
			}
			return q.connect()
		}, policy, func(err error, wait time.Duration) {
			q.log.Error("RabbitMQ reconnect failed", zap.Duration("retry_in", wait), zap.Error(err))
		})
		if err != nil {
			return
		}

		q.mu.RLock()
		ch := q.channel
		subs := make(map[string][]func([]byte) error, len(q.handlers))
		for subject, hs := range q.handlers {
			subs[subject] = append([]func([]byte) error(nil), hs...)
		}
		q.mu.RUnlock()

		for subject, hs := range subs {
			for _, h := range hs {
				if err := q.consume(ch, subject, h); err != nil {
					q.log.Error("Failed to restore subscription", zap.String("subject", subject), zap.Error(err))
				}
			}
		}
		q.log.Info("Reconnected to RabbitMQ", zap.Int("subscriptions", len(subs)))
	}
}
