package mirror

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fjacquet/expense-bot/internal/logging"
	"fjacquet/expense-bot/internal/models"

	"github.com/rabbitmq/amqp091-go"
)

// AMQPClient holds a connection and channel bound to one direct exchange and
// durable queue. It publishes mirror messages and consumes them.
type AMQPClient struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	queue    string
	logger   logging.Logger
	mu       sync.Mutex
}

// NewAMQPClient dials url and declares the exchange, the queue and their binding.
func NewAMQPClient(url, exchange, queue string, logger logging.Logger) (*AMQPClient, error) {
	if logger == nil {
		logger = logging.NewDiscardLogger()
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	c := &AMQPClient{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		queue:    queue,
		logger:   logger.WithFields(logging.F("exchange", exchange), logging.F("queue", queue)),
	}

	if err := c.setup(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return c, nil
}

func (c *AMQPClient) setup() error {
	if err := c.channel.ExchangeDeclare(c.exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if _, err := c.channel.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	// The routing key is the queue name.
	if err := c.channel.QueueBind(c.queue, c.queue, c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Name returns "amqp".
func (c *AMQPClient) Name() string { return BackendAMQP }

// Mirror publishes rec as a persistent JSON message.
func (c *AMQPClient) Mirror(ctx context.Context, rec models.ExpenseRecord) error {
	body, err := NewMessage(rec).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err = c.channel.PublishWithContext(ctx, c.exchange, c.queue, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	c.logger.Debug("Published mirror message", logging.F(logging.FieldUser, rec.User))
	return nil
}

const (
	minRetryDelay = time.Second
	maxRetryDelay = 30 * time.Second
)

// retryDelay is the wait before requeueing after the given number of
// consecutive sink failures: 1s doubling up to 30s.
func retryDelay(failures int) time.Duration {
	if failures < 0 {
		failures = 0
	}
	if failures >= 5 {
		return maxRetryDelay
	}
	d := minRetryDelay << failures
	if d > maxRetryDelay {
		return maxRetryDelay
	}
	return d
}

// Consume delivers queued records to sink until ctx ends. Undecodable
// messages are dropped; sink failures are requeued after a growing delay so
// that an unavailable sink is not hammered with redeliveries.
func (c *AMQPClient) Consume(ctx context.Context, sink Sink) error {
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.Info("Started consuming mirror messages")
	failures := 0
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("Stopping mirror consumer", logging.F(logging.FieldReason, ctx.Err()))
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("message channel closed")
			}
			if processDelivery(ctx, sink, delivery.Body, &delivery, retryDelay(failures), c.logger) {
				failures = 0
			} else {
				failures++
			}
		}
	}
}

// acknowledger is the subset of amqp091.Delivery used by processDelivery.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// processDelivery mirrors one message body. It returns false when the sink
// failed and the message was requeued after waiting delay (or until ctx ends).
func processDelivery(ctx context.Context, sink Sink, body []byte, ack acknowledger, delay time.Duration, logger logging.Logger) bool {
	rec, err := decodeRecord(body)
	if err != nil {
		logger.WithError(err).Error("Dropping undecodable mirror message")
		if nackErr := ack.Nack(false, false); nackErr != nil {
			logger.WithError(nackErr).Warn("Failed to reject message")
		}
		return true
	}

	if err := sink.Mirror(ctx, rec); err != nil {
		logger.WithError(err).Error("Failed to mirror queued expense",
			logging.F(logging.FieldUser, rec.User),
			logging.F("retry_in", delay))
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
		timer.Stop()
		if nackErr := ack.Nack(false, true); nackErr != nil {
			logger.WithError(nackErr).Warn("Failed to requeue message")
		}
		return false
	}

	if err := ack.Ack(false); err != nil {
		logger.WithError(err).Warn("Failed to acknowledge message")
	}
	logger.Debug("Mirrored queued expense", logging.F(logging.FieldUser, rec.User))
	return true
}

func decodeRecord(body []byte) (models.ExpenseRecord, error) {
	msg, err := MessageFromJSON(body)
	if err != nil {
		return models.ExpenseRecord{}, err
	}
	return msg.Record()
}

// Close closes the channel and the connection.
func (c *AMQPClient) Close() error {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
