package stream

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		m := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func (r *fakeReader) Close() error { return nil }

type fakeWriter struct {
	mu      sync.Mutex
	written []kafka.Message
	err     error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.written = append(w.written, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func message(t *testing.T, id string, offset int64, headers ...kafka.Header) kafka.Message {
	return kafka.Message{Offset: offset, Key: []byte(id), Value: recordBody(t, id), Headers: headers}
}

func TestKafkaProcessRepublishesFailures(t *testing.T) {
	r, w := &fakeReader{}, &fakeWriter{}
	h := &fakeHandler{fail: map[string]bool{"b": true, "c": true}}
	c := NewKafkaConsumerWith(r, w, h, "tasks", 10, time.Millisecond)

	msgs := []kafka.Message{
		message(t, "a", 1),
		message(t, "b", 2),
		{Offset: 3, Value: []byte("not json")},
		message(t, "c", 4, kafka.Header{Key: AttemptHeader, Value: []byte("3")}),
	}
	require.NoError(t, c.process(context.Background(), msgs))

	assert.Equal(t, [][]string{{"a", "b", "c"}}, h.seen())
	assert.Equal(t, []int64{1, 2, 3, 4}, r.commits())

	require.Len(t, w.written, 1)
	assert.Equal(t, []byte("b"), w.written[0].Key)
	assert.Equal(t, []kafka.Header{{Key: AttemptHeader, Value: []byte("1")}}, w.written[0].Headers)
}

func TestKafkaProcessHandlerErrorSkipsCommit(t *testing.T) {
	r, w := &fakeReader{}, &fakeWriter{}
	c := NewKafkaConsumerWith(r, w, &fakeHandler{err: errHandler}, "tasks", 10, time.Millisecond)

	err := c.process(context.Background(), []kafka.Message{message(t, "a", 1)})
	assert.ErrorIs(t, err, errHandler)
	assert.Empty(t, r.commits())
}

func TestKafkaProcessRepublishErrorSkipsCommit(t *testing.T) {
	r, w := &fakeReader{}, &fakeWriter{err: errors.New("broker down")}
	c := NewKafkaConsumerWith(r, w, &fakeHandler{fail: map[string]bool{"a": true}}, "tasks", 10, time.Millisecond)

	err := c.process(context.Background(), []kafka.Message{message(t, "a", 1)})
	assert.Error(t, err)
	assert.Empty(t, r.commits())
}

func TestKafkaRunBatchesUntilCancelled(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{message(t, "a", 1), message(t, "b", 2), message(t, "c", 3)}}
	h := &fakeHandler{}
	c := NewKafkaConsumerWith(r, &fakeWriter{}, h, "tasks", 2, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	require.Eventually(t, func() bool { return len(r.commits()) == 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, h.seen())
}

func TestNewKafkaConsumerValidates(t *testing.T) {
	_, err := NewKafkaConsumer(nil, &fakeHandler{})
	assert.Error(t, err)
}
