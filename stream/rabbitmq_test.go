package stream

import (
	"context"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// acks records how each delivery tag was settled.
type acks struct {
	mu      sync.Mutex
	settled map[uint64]string
}

func newAcks() *acks { return &acks{settled: map[uint64]string{}} }

func (a *acks) set(tag uint64, v string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.settled[tag] = v
	return nil
}

func (a *acks) Ack(tag uint64, _ bool) error { return a.set(tag, "ack") }

func (a *acks) Nack(tag uint64, _ bool, requeue bool) error {
	if requeue {
		return a.set(tag, "requeue")
	}
	return a.set(tag, "nack")
}

func (a *acks) Reject(tag uint64, requeue bool) error {
	if requeue {
		return a.set(tag, "requeue")
	}
	return a.set(tag, "reject")
}

func (a *acks) snapshot() map[uint64]string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[uint64]string, len(a.settled))
	for k, v := range a.settled {
		out[k] = v
	}
	return out
}

func delivery(a *acks, tag uint64, body []byte, redelivered bool) amqp.Delivery {
	return amqp.Delivery{Acknowledger: a, DeliveryTag: tag, Body: body, Redelivered: redelivered}
}

func TestRabbitRunSettlesEveryDelivery(t *testing.T) {
	a := newAcks()
	ch := make(chan amqp.Delivery, 4)
	ch <- delivery(a, 1, recordBody(t, "ok"), false)
	ch <- delivery(a, 2, recordBody(t, "retry"), false)
	ch <- delivery(a, 3, recordBody(t, "dead"), true)
	ch <- delivery(a, 4, []byte("garbage"), false)
	close(ch)

	h := &fakeHandler{fail: map[string]bool{"retry": true, "dead": true}}
	c := NewRabbitConsumerWith(ch, h, "tasks", 10, 50*time.Millisecond)

	require.NoError(t, c.Run(context.Background()))
	assert.Equal(t, map[uint64]string{1: "ack", 2: "requeue", 3: "reject", 4: "reject"}, a.snapshot())
	assert.Equal(t, [][]string{{"ok", "retry", "dead"}}, h.seen())
}

func TestRabbitHandlerErrorRequeuesBatch(t *testing.T) {
	a := newAcks()
	ch := make(chan amqp.Delivery, 2)
	ch <- delivery(a, 1, recordBody(t, "a"), false)
	ch <- delivery(a, 2, recordBody(t, "b"), false)
	close(ch)

	c := NewRabbitConsumerWith(ch, &fakeHandler{err: errHandler}, "tasks", 10, 50*time.Millisecond)
	assert.ErrorIs(t, c.Run(context.Background()), errHandler)
	assert.Equal(t, map[uint64]string{1: "requeue", 2: "requeue"}, a.snapshot())
}

func TestRabbitCollectRespectsBatchSize(t *testing.T) {
	a := newAcks()
	ch := make(chan amqp.Delivery, 3)
	for i := uint64(1); i <= 3; i++ {
		ch <- delivery(a, i, recordBody(t, "x"), false)
	}

	c := NewRabbitConsumerWith(ch, &fakeHandler{}, "tasks", 2, time.Second)
	batch, open := c.collect(context.Background())
	assert.True(t, open)
	assert.Len(t, batch, 2)
}

func TestRabbitRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewRabbitConsumerWith(make(chan amqp.Delivery), &fakeHandler{}, "tasks", 2, time.Second)
	assert.NoError(t, c.Run(ctx))
}

func TestNewRabbitConsumerValidates(t *testing.T) {
	_, err := NewRabbitConsumer(nil, &fakeHandler{})
	assert.Error(t, err)
}
