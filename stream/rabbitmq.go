package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/ncobase/taskrunner/data/config"
	"github.com/ncobase/taskrunner/ecode"
	"github.com/ncobase/taskrunner/logging/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// RabbitConsumer reads stream records from a queue in batches.
//
// Every delivery is settled after its batch was handled: successes are
// acked, failed items are requeued once and rejected on redelivery, and
// undecodable bodies are rejected straight away.
type RabbitConsumer struct {
	conn       *amqp.Connection
	ch         *amqp.Channel
	handler    Handler
	queue      string
	deliveries <-chan amqp.Delivery
	batchSize  int
	batchWait  time.Duration
}

// NewRabbitConsumer dials cfg.URL and starts consuming cfg.Queue.
func NewRabbitConsumer(cfg *config.RabbitMQ, h Handler) (*RabbitConsumer, error) {
	if cfg == nil || cfg.URL == "" {
		return nil, errors.New("rabbitmq: " + ecode.FieldIsEmpty("url"))
	}
	if cfg.Queue == "" {
		return nil, errors.New("rabbitmq: " + ecode.FieldIsEmpty("queue"))
	}

	amqpCfg := amqp.Config{Properties: amqp.NewConnectionProperties()}
	if cfg.HeartbeatInterval > 0 {
		amqpCfg.Heartbeat = cfg.HeartbeatInterval
	}
	amqpCfg.Properties.SetClientConnectionName("taskrunner")

	conn, err := amqp.DialConfig(cfg.URL, amqpCfg)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: failed to connect: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: failed to open channel: %w", err)
	}

	deliveries, err := consume(ch, cfg.Queue, cfg.Prefetch)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	c := NewRabbitConsumerWith(deliveries, h, cfg.Queue, cfg.Prefetch, cfg.BatchWait)
	c.conn, c.ch = conn, ch
	return c, nil
}

// NewRabbitConsumerWith wires a consumer onto an existing delivery channel.
func NewRabbitConsumerWith(deliveries <-chan amqp.Delivery, h Handler, queue string, batchSize int, batchWait time.Duration) *RabbitConsumer {
	if batchSize <= 0 {
		batchSize = 50
	}
	if batchWait <= 0 {
		batchWait = time.Second
	}
	return &RabbitConsumer{
		handler:    h,
		queue:      queue,
		deliveries: deliveries,
		batchSize:  batchSize,
		batchWait:  batchWait,
	}
}

// consume declares the durable queue and registers a manual-ack consumer.
func consume(ch *amqp.Channel, queue string, prefetch int) (<-chan amqp.Delivery, error) {
	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	); err != nil {
		return nil, fmt.Errorf("rabbitmq: failed to declare queue: %w", err)
	}
	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			return nil, fmt.Errorf("rabbitmq: failed to set QoS: %w", err)
		}
	}
	msgs, err := ch.Consume(
		queue, // queue
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: failed to register consumer: %w", err)
	}
	return msgs, nil
}

// Run consumes until ctx is cancelled or the delivery channel closes.
func (c *RabbitConsumer) Run(ctx context.Context) error {
	logger.Infof(ctx, "Consuming task records from rabbitmq queue %s", c.queue)
	for {
		batch, open := c.collect(ctx)
		if len(batch) > 0 {
			if err := c.process(ctx, batch); err != nil {
				return err
			}
		}
		if !open || ctx.Err() != nil {
			return nil
		}
	}
}

// Close closes the channel and connection when the consumer dialed them.
func (c *RabbitConsumer) Close() error {
	var errs []error
	if c.ch != nil {
		errs = append(errs, c.ch.Close())
	}
	if c.conn != nil && !c.conn.IsClosed() {
		errs = append(errs, c.conn.Close())
	}
	return errors.Join(errs...)
}

// collect blocks for the first delivery, then gathers more until the batch
// is full or batchWait has passed. open is false once deliveries closed.
func (c *RabbitConsumer) collect(ctx context.Context) (batch []amqp.Delivery, open bool) {
	select {
	case d, ok := <-c.deliveries:
		if !ok {
			return nil, false
		}
		batch = append(batch, d)
	case <-ctx.Done():
		return nil, true
	}

	timer := time.NewTimer(c.batchWait)
	defer timer.Stop()
	for len(batch) < c.batchSize {
		select {
		case d, ok := <-c.deliveries:
			if !ok {
				return batch, false
			}
			batch = append(batch, d)
		case <-timer.C:
			return batch, true
		case <-ctx.Done():
			return batch, true
		}
	}
	return batch, true
}

// process handles one batch and settles every delivery in it.
func (c *RabbitConsumer) process(ctx context.Context, batch []amqp.Delivery) error {
	records := make([]events.DynamoDBEventRecord, 0, len(batch))
	origin := make([]amqp.Delivery, 0, len(batch))
	for _, d := range batch {
		rec, err := DecodeRecord(d.Body)
		if err != nil {
			logger.EntryWithFields(ctx, logrus.Fields{"delivery_tag": d.DeliveryTag}).
				WithError(err).Error("Rejecting undecodable rabbitmq message")
			settle(ctx, d.Reject(false))
			continue
		}
		records = append(records, rec)
		origin = append(origin, d)
	}
	if len(records) == 0 {
		return nil
	}

	resp, err := c.handler.Handle(ctx, events.DynamoDBEvent{Records: records})
	if err != nil {
		for _, d := range origin {
			settle(ctx, d.Nack(false, true))
		}
		return err
	}

	failed := failedSet(resp)
	for i, rec := range records {
		d := origin[i]
		switch {
		case !isFailed(failed, rec):
			settle(ctx, d.Ack(false))
		case d.Redelivered:
			logger.EntryWithFields(ctx, logrus.Fields{"delivery_tag": d.DeliveryTag}).
				Error("Giving up on redelivered task record")
			settle(ctx, d.Reject(false))
		default:
			settle(ctx, d.Nack(false, true))
		}
	}
	return nil
}

func settle(ctx context.Context, err error) {
	if err != nil {
		logger.Errorf(ctx, "Failed to settle rabbitmq delivery: %v", err)
	}
}
