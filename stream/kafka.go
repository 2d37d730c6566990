package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/ncobase/taskrunner/data/config"
	"github.com/ncobase/taskrunner/ecode"
	"github.com/ncobase/taskrunner/logging/logger"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// AttemptHeader counts how often a message was re-published after a failed run.
const AttemptHeader = "x-task-attempt"

// DefaultMaxAttempts bounds re-publishing of failed records.
const DefaultMaxAttempts = 3

// KafkaReader is the subset of *kafka.Reader used by the consumer.
type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaWriter is the subset of *kafka.Writer used by the consumer.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConsumer reads stream records from a topic in batches.
//
// Offsets are committed only after the batch was handled and its failed
// items were re-published, so a crash leads to redelivery, not loss.
type KafkaConsumer struct {
	reader      KafkaReader
	writer      KafkaWriter
	handler     Handler
	topic       string
	batchSize   int
	batchWait   time.Duration
	maxAttempts int
}

// NewKafkaConsumer creates a consumer group reader for cfg.Topic.
func NewKafkaConsumer(cfg *config.Kafka, h Handler) (*KafkaConsumer, error) {
	if cfg == nil || len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: " + ecode.FieldIsEmpty("brokers"))
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka: " + ecode.FieldIsEmpty("topic"))
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		GroupID:        cfg.ConsumerGroup,
		Topic:          cfg.Topic,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        500 * time.Millisecond,
		ReadBackoffMin: 100 * time.Millisecond,
		ReadBackoffMax: 5 * time.Second,
		ErrorLogger:    kafka.LoggerFunc(logKafkaError),
	})
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: cfg.WriteTimeout,
	}

	return NewKafkaConsumerWith(reader, writer, h, cfg.Topic, cfg.BatchSize, cfg.BatchWait), nil
}

// NewKafkaConsumerWith wires a consumer from its parts.
func NewKafkaConsumerWith(r KafkaReader, w KafkaWriter, h Handler, topic string, batchSize int, batchWait time.Duration) *KafkaConsumer {
	if batchSize <= 0 {
		batchSize = 100
	}
	if batchWait <= 0 {
		batchWait = time.Second
	}
	return &KafkaConsumer{
		reader:      r,
		writer:      w,
		handler:     h,
		topic:       topic,
		batchSize:   batchSize,
		batchWait:   batchWait,
		maxAttempts: DefaultMaxAttempts,
	}
}

// Run consumes until ctx is cancelled or the reader is closed.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	logger.Infof(ctx, "Consuming task records from kafka topic %s", c.topic)
	for {
		msgs, err := c.fetchBatch(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("kafka: fetch: %w", err)
		}
		if err := c.process(ctx, msgs); err != nil {
			return err
		}
	}
}

// Close releases the reader and writer.
func (c *KafkaConsumer) Close() error {
	return errors.Join(c.reader.Close(), c.writer.Close())
}

// fetchBatch blocks for the first message, then collects more until the
// batch is full or batchWait has passed.
func (c *KafkaConsumer) fetchBatch(ctx context.Context) ([]kafka.Message, error) {
	first, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}
	msgs := []kafka.Message{first}

	wctx, cancel := context.WithTimeout(ctx, c.batchWait)
	defer cancel()
	for len(msgs) < c.batchSize {
		m, err := c.reader.FetchMessage(wctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				break
			}
			// uncommitted messages are redelivered
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// process handles a batch, re-publishes failed items and commits the offsets.
func (c *KafkaConsumer) process(ctx context.Context, msgs []kafka.Message) error {
	records := make([]events.DynamoDBEventRecord, 0, len(msgs))
	origin := make([]kafka.Message, 0, len(msgs))
	for _, m := range msgs {
		rec, err := DecodeRecord(m.Value)
		if err != nil {
			logger.EntryWithFields(ctx, logrus.Fields{
				"partition": m.Partition,
				"offset":    m.Offset,
			}).WithError(err).Error("Dropping undecodable kafka message")
			continue
		}
		records = append(records, rec)
		origin = append(origin, m)
	}

	if len(records) > 0 {
		resp, err := c.handler.Handle(ctx, events.DynamoDBEvent{Records: records})
		if err != nil {
			return err
		}

		failed := failedSet(resp)
		var retry []kafka.Message
		for i, rec := range records {
			if !isFailed(failed, rec) {
				continue
			}
			if m, ok := c.retryMessage(ctx, origin[i]); ok {
				retry = append(retry, m)
			}
		}
		if len(retry) > 0 {
			if err := c.writer.WriteMessages(ctx, retry...); err != nil {
				return fmt.Errorf("kafka: re-publish %d failed records: %w", len(retry), err)
			}
			logger.Warnf(ctx, "Re-published %d failed task records", len(retry))
		}
	}

	if err := c.reader.CommitMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka: commit: %w", err)
	}
	return nil
}

// retryMessage copies m with an incremented attempt header.
// It reports false once the attempt budget is spent.
func (c *KafkaConsumer) retryMessage(ctx context.Context, m kafka.Message) (kafka.Message, bool) {
	attempt := 1
	headers := make([]kafka.Header, 0, len(m.Headers)+1)
	for _, h := range m.Headers {
		if h.Key == AttemptHeader {
			if n, err := strconv.Atoi(string(h.Value)); err == nil {
				attempt = n + 1
			}
			continue
		}
		headers = append(headers, h)
	}
	if attempt > c.maxAttempts {
		logger.EntryWithFields(ctx, logrus.Fields{
			"partition": m.Partition,
			"offset":    m.Offset,
			"attempts":  attempt - 1,
		}).Error("Giving up on task record")
		return kafka.Message{}, false
	}
	headers = append(headers, kafka.Header{Key: AttemptHeader, Value: []byte(strconv.Itoa(attempt))})
	return kafka.Message{Key: m.Key, Value: m.Value, Headers: headers}, true
}

func logKafkaError(msg string, args ...any) {
	logger.Errorf(context.Background(), "kafka: "+msg, args...)
}
