package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"budgetbook/internal/log"
)

// Circuit breaker states
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	maxBackoff     = 30 * time.Second
)

var (
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrPermanent marks handler failures that retrying cannot fix; such
	// messages are dropped instead of requeued
	ErrPermanent = errors.New("permanent failure")
)

// BatchHandler processes one decoded transaction batch
type BatchHandler func(ctx context.Context, msg *TransactionBatchMessage) error

type Client struct {
	url          string
	exchangeName string
	queueName    string
	resultQueue  string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	lastFailure  time.Time
}

// NewClient connects and declares the exchange, the batch queue and the
// result queue
func NewClient(url, exchangeName, queueName, resultQueue string) (*Client, error) {
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		resultQueue:  resultQueue,
	}
	if err := client.connect(); err != nil {
		return nil, err
	}
	return client, nil
}

func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := c.setup(channel); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queues: %w", err)
	}

	c.mu.Lock()
	c.conn, c.channel = conn, channel
	c.mu.Unlock()
	return nil
}

func (c *Client) setup(channel *amqp091.Channel) error {
	err := channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, queue := range []string{c.queueName, c.resultQueue} {
		if _, err := channel.QueueDeclare(
			queue, // name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		); err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}

		// routing key is the queue name
		if err := channel.QueueBind(queue, queue, c.exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	// one batch at a time per consumer
	return channel.Qos(1, 0, false)
}

// reconnect dials again with exponential backoff until it succeeds or ctx ends
func (c *Client) reconnect(ctx context.Context) error {
	logger := log.FromContext(ctx).WithComponent(log.ComponentAMQP)
	c.closeConnection()
	for attempt := 0; ; attempt++ {
		err := c.connect()
		if err == nil {
			logger.InfoContext(ctx, "Reconnected to AMQP broker", "attempt", attempt+1)
			return nil
		}

		wait := exponentialBackoff(attempt)
		logger.WarnContext(ctx, "AMQP reconnect failed",
			"attempt", attempt+1,
			"retry_in", wait,
			log.FieldError, err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// PublishBatch publishes a transaction batch to the batch queue
func (c *Client) PublishBatch(ctx context.Context, msg *TransactionBatchMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, c.queueName, msg.ID, body); err != nil {
		return err
	}

	c.publishLog(ctx, c.queueName).
		WithFields(log.NewFields().WithBatch(msg.ID, len(msg.Transactions))).
		InfoContext(ctx, "Published transaction batch")
	return nil
}

// PublishPrediction publishes a prediction result to the result queue
func (c *Client) PublishPrediction(ctx context.Context, msg *PredictionMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, c.resultQueue, msg.ID, body); err != nil {
		return err
	}

	c.publishLog(ctx, c.resultQueue).InfoContext(ctx, "Published prediction",
		log.FieldBatchID, msg.BatchID,
		log.FieldMessageID, msg.ID,
		log.FieldRegular, len(msg.Regular))
	return nil
}

func (c *Client) publishLog(ctx context.Context, queue string) *log.Logger {
	return log.FromContext(ctx).
		WithFields(log.NewFields().WithComponent(log.ComponentAMQP).WithOperation(log.OpPublish)).
		With(log.FieldQueue, queue)
}

func (c *Client) publish(ctx context.Context, routingKey, messageID string, body []byte) error {
	if c.isCircuitOpen() {
		return fmt.Errorf("publish to %s: %w", routingKey, ErrCircuitOpen)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()
	if channel == nil {
		c.recordFailure()
		return fmt.Errorf("publish to %s: no open channel", routingKey)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    messageID,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			if rerr := c.reconnect(ctx); rerr != nil {
				log.FromContext(ctx).WithComponent(log.ComponentAMQP).
					ErrorContext(ctx, "AMQP reconnect after publish failure failed", log.FieldError, rerr)
			}
		}
		return fmt.Errorf("publish message: %w", err)
	}

	c.recordSuccess()
	return nil
}

// ConsumeBatches delivers transaction batches to handler until ctx ends.
// Undecodable messages are dropped, failed ones are requeued. A lost
// connection is re-established with backoff.
func (c *Client) ConsumeBatches(ctx context.Context, handler BatchHandler) error {
	logger := log.FromContext(ctx).WithFields(log.NewFields().
		WithComponent(log.ComponentAMQP).
		WithOperation(log.OpConsume)).
		With(log.FieldQueue, c.queueName)
	for {
		err := c.consumeOnce(ctx, handler)
		if ctx.Err() != nil {
			logger.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		}

		logger.WarnContext(ctx, "Consumer interrupted, reconnecting", log.FieldError, err)
		if err := c.reconnect(ctx); err != nil {
			return err
		}
	}
}

func (c *Client) consumeOnce(ctx context.Context, handler BatchHandler) error {
	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()
	if channel == nil {
		return errors.New("no open channel")
	}

	msgs, err := channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	logger := log.FromContext(ctx)
	logger.WithComponent(log.ComponentAMQP).
		InfoContext(ctx, "Started consuming transaction batches", log.FieldQueue, c.queueName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}
			dctx := log.NewContext(ctx, logger.With(log.FieldMessageID, delivery.MessageId))
			handleDelivery(dctx, delivery.Body, delivery, handler)
		}
	}
}

// Outcome of a single delivery
type Outcome int

const (
	Acked Outcome = iota
	Rejected
	Requeued
)

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func handleDelivery(ctx context.Context, body []byte, ack acknowledger, handler BatchHandler) Outcome {
	fields := log.NewFields().WithComponent(log.ComponentAMQP).WithOperation(log.OpConsume)

	msg, err := TransactionBatchMessageFromJSON(body)
	if err != nil {
		log.FromContext(ctx).WithFields(fields.WithError(err)).
			ErrorContext(ctx, "Failed to unmarshal message")
		ack.Nack(false, false) // reject and don't requeue
		return Rejected
	}

	if err := handler(ctx, msg); err != nil {
		logger := log.FromContext(ctx).WithFields(fields.WithBatch(msg.ID, len(msg.Transactions)).WithError(err))
		if errors.Is(err, ErrPermanent) {
			logger.ErrorContext(ctx, "Dropping message that cannot be processed")
			ack.Nack(false, false)
			return Rejected
		}
		logger.ErrorContext(ctx, "Failed to handle message")
		ack.Nack(false, true) // reject and requeue
		return Requeued
	}

	ack.Ack(false)
	return Acked
}

func (c *Client) isCircuitOpen() bool {
	switch atomic.LoadInt32(&c.state) {
	case StateOpen:
		c.mu.Lock()
		last := c.lastFailure
		c.mu.Unlock()
		if time.Since(last) > openTimeout {
			atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
			return false
		}
		return true
	default:
		return false
	}
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()

	failures := atomic.AddInt64(&c.failureCount, 1)
	if failures >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

// exponentialBackoff returns 1s, 2s, 4s, ... capped at 30s
func exponentialBackoff(attempt int) time.Duration {
	if attempt > 5 {
		return maxBackoff
	}
	d := time.Second << attempt
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe", "channel/connection is not open"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) closeConnection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}
