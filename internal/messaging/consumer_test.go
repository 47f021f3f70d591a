package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/serroba/ai-referral-go/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type testEvent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type mockSubscriber struct {
	msgChan      chan *message.Message
	subscribeErr error
	mu           sync.Mutex
	closed       bool
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{
		msgChan: make(chan *message.Message, 10),
	}
}

func (m *mockSubscriber) Subscribe(_ context.Context, _ string) (<-chan *message.Message, error) {
	if m.subscribeErr != nil {
		return nil, m.subscribeErr
	}

	return m.msgChan, nil
}

func (m *mockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.closed {
		m.closed = true
		close(m.msgChan)
	}

	return nil
}

func newMessageCounter() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_messages_total"}, []string{"topic", "status"})
}

func noopHandler(_ context.Context, _ *testEvent) error { return nil }

func TestConsumer_Start(t *testing.T) {
	t.Run("starts successfully", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := messaging.NewConsumer(sub, "attribution.recorded", noopHandler, zap.NewNop())

		err := consumer.Start(context.Background())

		require.NoError(t, err)
		assert.Equal(t, "attribution.recorded", consumer.Topic())

		_ = consumer.Shutdown()
	})

	t.Run("returns error when subscribe fails", func(t *testing.T) {
		sub := &mockSubscriber{subscribeErr: errors.New("subscribe error")}
		consumer := messaging.NewConsumer(sub, "attribution.recorded", noopHandler, zap.NewNop())

		err := consumer.Start(context.Background())

		require.Error(t, err)
		assert.NoError(t, consumer.Shutdown())
	})
}

func TestConsumer_HandleMessage(t *testing.T) {
	t.Run("acks on successful handling", func(t *testing.T) {
		sub := newMockSubscriber()
		counter := newMessageCounter()

		received := make(chan *testEvent, 1)

		consumer := messaging.NewConsumer(
			sub,
			"attribution.recorded",
			func(_ context.Context, event *testEvent) error {
				received <- event

				return nil
			},
			zap.NewNop(),
			messaging.WithMessageCounter(counter),
		)

		require.NoError(t, consumer.Start(context.Background()))

		payload, _ := json.Marshal(&testEvent{ID: "123", Name: "ai_referral"})
		msg := message.NewMessage(uuid.NewString(), payload)

		sub.msgChan <- msg

		select {
		case <-msg.Acked():
			event := <-received
			assert.Equal(t, "123", event.ID)
			assert.Equal(t, "ai_referral", event.Name)
		case <-msg.Nacked():
			t.Fatal("message was nacked")
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for ack")
		}

		_ = consumer.Shutdown()

		assert.InDelta(t, 1, testutil.ToFloat64(counter.WithLabelValues("attribution.recorded", messaging.StatusAcked)), 0)
	})

	t.Run("drops undecodable message", func(t *testing.T) {
		sub := newMockSubscriber()
		counter := newMessageCounter()
		consumer := messaging.NewConsumer(sub, "attribution.recorded", noopHandler, zap.NewNop(),
			messaging.WithMessageCounter(counter))

		require.NoError(t, consumer.Start(context.Background()))

		msg := message.NewMessage(uuid.NewString(), []byte("invalid json"))

		sub.msgChan <- msg

		select {
		case <-msg.Acked():
		case <-msg.Nacked():
			t.Fatal("undecodable message should not be redelivered")
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for ack")
		}

		_ = consumer.Shutdown()

		assert.InDelta(t, 1, testutil.ToFloat64(counter.WithLabelValues("attribution.recorded", messaging.StatusDropped)), 0)
	})

	t.Run("drops message on poison handler error", func(t *testing.T) {
		sub := newMockSubscriber()
		counter := newMessageCounter()
		consumer := messaging.NewConsumer(
			sub,
			"attribution.recorded",
			func(_ context.Context, _ *testEvent) error {
				return fmt.Errorf("missing id: %w", messaging.ErrPoison)
			},
			zap.NewNop(),
			messaging.WithMessageCounter(counter),
		)

		require.NoError(t, consumer.Start(context.Background()))

		payload, _ := json.Marshal(&testEvent{})
		msg := message.NewMessage(uuid.NewString(), payload)

		sub.msgChan <- msg

		select {
		case <-msg.Acked():
		case <-msg.Nacked():
			t.Fatal("poison message should not be redelivered")
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for ack")
		}

		_ = consumer.Shutdown()

		assert.InDelta(t, 1, testutil.ToFloat64(counter.WithLabelValues("attribution.recorded", messaging.StatusDropped)), 0)
	})

	t.Run("nacks on handler error", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := messaging.NewConsumer(
			sub,
			"attribution.recorded",
			func(_ context.Context, _ *testEvent) error {
				return errors.New("handler error")
			},
			zap.NewNop(),
		)

		require.NoError(t, consumer.Start(context.Background()))

		payload, _ := json.Marshal(&testEvent{ID: "123"})
		msg := message.NewMessage(uuid.NewString(), payload)

		sub.msgChan <- msg

		select {
		case <-msg.Nacked():
		case <-msg.Acked():
			t.Fatal("message should have been nacked")
		case <-time.After(time.Second):
			t.Fatal("timeout waiting for nack")
		}

		_ = consumer.Shutdown()
	})
}

func TestConsumer_Shutdown(t *testing.T) {
	t.Run("shuts down gracefully", func(t *testing.T) {
		sub := newMockSubscriber()
		consumer := messaging.NewConsumer(sub, "attribution.recorded", noopHandler, zap.NewNop())

		require.NoError(t, consumer.Start(context.Background()))

		require.NoError(t, consumer.Shutdown())
	})

	t.Run("never started returns immediately", func(t *testing.T) {
		consumer := messaging.NewConsumer(newMockSubscriber(), "attribution.recorded", noopHandler, zap.NewNop())

		assert.NoError(t, consumer.Shutdown())
	})
}
