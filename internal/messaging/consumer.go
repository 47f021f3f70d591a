package messaging

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Message status labels reported to the consumer metrics.
const (
	StatusAcked         = "acked"
	StatusDropped       = "dropped"
	StatusNackedHandler = "nacked_handler"
)

// ErrPoison marks a handler error that redelivery cannot fix. Such messages are
// acked and dropped instead of nacked.
var ErrPoison = errors.New("poison message")

// Handler processes a single event. Handlers are synchronous and easy to test.
type Handler[T any] func(ctx context.Context, event *T) error

// ConsumerOption configures a Consumer.
type ConsumerOption func(*consumerOptions)

type consumerOptions struct {
	messages *prometheus.CounterVec
}

// WithMessageCounter counts processed messages by topic and status.
// The counter must have exactly the labels "topic" and "status".
func WithMessageCounter(counter *prometheus.CounterVec) ConsumerOption {
	return func(o *consumerOptions) {
		o.messages = counter
	}
}

// Consumer subscribes to a topic and processes messages with a typed handler.
type Consumer[T any] struct {
	subscriber message.Subscriber
	topic      string
	handler    Handler[T]
	logger     *zap.Logger
	messages   *prometheus.CounterVec
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewConsumer creates a new generic consumer for a specific event type.
func NewConsumer[T any](
	subscriber message.Subscriber,
	topic string,
	handler Handler[T],
	logger *zap.Logger,
	opts ...ConsumerOption,
) *Consumer[T] {
	var o consumerOptions
	for _, opt := range opts {
		opt(&o)
	}

	return &Consumer[T]{
		subscriber: subscriber,
		topic:      topic,
		handler:    handler,
		logger:     logger.With(zap.String("topic", topic)),
		messages:   o.messages,
		done:       make(chan struct{}),
	}
}

// Topic returns the topic this consumer subscribes to.
func (c *Consumer[T]) Topic() string {
	return c.topic
}

// Start begins consuming messages from the topic.
func (c *Consumer[T]) Start(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)

	msgs, err := c.subscriber.Subscribe(ctx, c.topic)
	if err != nil {
		c.cancel()
		close(c.done)

		return err
	}

	go c.consumeLoop(ctx, msgs)

	return nil
}

func (c *Consumer[T]) consumeLoop(ctx context.Context, msgs <-chan *message.Message) {
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			c.handleMessage(ctx, msg)
		}
	}
}

func (c *Consumer[T]) handleMessage(ctx context.Context, msg *message.Message) {
	var event T
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		c.logger.Error("dropping undecodable event",
			zap.String("message_id", msg.UUID),
			zap.Error(err),
		)
		c.count(StatusDropped)
		msg.Ack()

		return
	}

	if err := c.handler(ctx, &event); err != nil {
		if errors.Is(err, ErrPoison) {
			c.logger.Error("dropping invalid event",
				zap.String("message_id", msg.UUID),
				zap.Error(err),
			)
			c.count(StatusDropped)
			msg.Ack()

			return
		}

		c.logger.Error("failed to handle event",
			zap.String("message_id", msg.UUID),
			zap.Error(err),
		)
		c.count(StatusNackedHandler)
		msg.Nack()

		return
	}

	c.count(StatusAcked)
	msg.Ack()

	c.logger.Debug("processed event", zap.String("message_id", msg.UUID))
}

func (c *Consumer[T]) count(status string) {
	if c.messages == nil {
		return
	}

	c.messages.WithLabelValues(c.topic, status).Inc()
}

// Shutdown stops the consumer and waits for in-flight messages to complete.
// Shutdown on a consumer that was never started returns immediately.
func (c *Consumer[T]) Shutdown() error {
	if c.cancel == nil {
		return nil
	}

	c.cancel()
	<-c.done

	return nil
}
