// Package events is the medicine service's Watermill event bus.
//
// Two transports are supported:
//   - SQL (PostgreSQL): messages are rows in watermill tables. Publishing can
//     join the caller's *sql.Tx through NewTxPublisher and the forwarder
//     component relays those outbox rows to the real topics.
//   - In-memory (gochannel): used with the SQLite store. Delivery is
//     in-process and best effort; nothing survives a restart.
//
// Handlers must be idempotent. A failing handler is retried with exponential
// backoff and the message is Nacked once retries are exhausted.
//
// Trace context is injected into message metadata on Publish and restored
// on Subscribe so consumer spans join the producer's trace.
package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/forwarder"
	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/ghuser/medshelf/pkg/logger"
)

const (
	maxRetries      = 3
	retryBaseDelay  = time.Second
	shutdownTimeout = 30 * time.Second
	errBufferSize   = 100
)

// ErrNotTransactional is returned by NewTxPublisher on a bus without a SQL transport.
var ErrNotTransactional = errors.New("events: bus does not support transactional publishing")

// Handler processes one message. Returning an error triggers a retry.
type Handler func(ctx context.Context, msg *message.Message) error

// EventBus wraps a Watermill publisher/subscriber pair with trace propagation,
// retries and ordered shutdown.
type EventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	fwd        *forwarder.Forwarder
	fwdStart   func(ctx context.Context) (*forwarder.Forwarder, error)
	txPub      func(tx *sql.Tx) (message.Publisher, error)
	db         *sql.DB // owned; nil for the in-memory transport
	log        logger.Logger
	retryDelay time.Duration
	wg         sync.WaitGroup
}

// Transactional reports whether NewTxPublisher is available.
func (b *EventBus) Transactional() bool {
	return b.txPub != nil
}

// NewTxPublisher returns a Publisher whose writes join tx, so the event is
// committed or rolled back together with the business change.
func (b *EventBus) NewTxPublisher(tx *sql.Tx) (message.Publisher, error) {
	if b.txPub == nil {
		return nil, ErrNotTransactional
	}
	return b.txPub(tx)
}

// StartForwarder runs the outbox forwarder until ctx is cancelled. It is a
// no-op for transports that publish directly.
func (b *EventBus) StartForwarder(ctx context.Context) error {
	if b.fwdStart == nil {
		return nil
	}
	if b.fwd != nil {
		return fmt.Errorf("events: forwarder already started")
	}

	fwd, err := b.fwdStart(ctx)
	if err != nil {
		return err
	}
	b.fwd = fwd

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.log.InfoContext(ctx, "events: forwarder started")
		if err := fwd.Run(ctx); err != nil {
			b.log.ErrorContext(ctx, "events: forwarder stopped with error", "error", err)
		} else {
			b.log.InfoContext(ctx, "events: forwarder stopped")
		}
	}()

	select {
	case <-fwd.Running():
	case <-ctx.Done():
		return fmt.Errorf("events: context cancelled waiting for forwarder: %w", ctx.Err())
	}
	return nil
}

// Publish injects the trace context from ctx into every message and sends them to topic.
func (b *EventBus) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	return PublishWith(ctx, b.publisher, topic, msgs...)
}

// PublishWith is Publish against an arbitrary publisher, typically one from NewTxPublisher.
func PublishWith(ctx context.Context, pub message.Publisher, topic string, msgs ...*message.Message) error {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	for _, msg := range msgs {
		for k, v := range carrier {
			msg.Metadata.Set(k, v)
		}
	}
	if err := pub.Publish(topic, msgs...); err != nil { //nolint:contextcheck
		return fmt.Errorf("events: publish to %s: %w", topic, err)
	}
	return nil
}

// NewJSONMessage marshals payload into a message with a fresh UUID.
func NewJSONMessage(payload any) (*message.Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("events: marshal payload: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.Metadata.Set("content-type", "application/json")
	return msg, nil
}

// Subscribe runs handler for every message on topic in a background goroutine.
//
//   - handler returns nil   -> Ack
//   - handler returns error -> retried with backoff (1s, 2s, ...)
//   - retries exhausted     -> Nack and the error is sent on the returned channel
//
// The channel is buffered; errors are dropped with a log line when it is
// full. All in-flight handlers complete before Close returns.
func (b *EventBus) Subscribe(ctx context.Context, topic string, handler Handler) (<-chan error, error) {
	ch, err := b.subscriber.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("events: subscribe to %s: %w", topic, err)
	}

	errCh := make(chan error, errBufferSize)
	propagator := otel.GetTextMapPropagator()
	delay := b.retryDelay
	if delay <= 0 {
		delay = retryBaseDelay
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer close(errCh)

		for msg := range ch {
			carrier := propagation.MapCarrier{}
			for k, v := range msg.Metadata {
				carrier[k] = v
			}
			msgCtx := propagator.Extract(ctx, carrier)

			if err := retryWithBackoff(msgCtx, msg, handler, maxRetries, delay, b.log); err != nil {
				msg.Nack()
				select {
				case errCh <- err:
				default:
					b.log.ErrorContext(msgCtx, "events: error channel full, dropping error",
						"error", err, "topic", topic)
				}
			} else {
				msg.Ack()
			}
		}
	}()

	return errCh, nil
}

func retryWithBackoff(
	ctx context.Context,
	msg *message.Message,
	handler Handler,
	maxRetries int,
	baseDelay time.Duration,
	log logger.Logger,
) error {
	delay := baseDelay
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		if err = handler(ctx, msg); err == nil {
			return nil
		}
		if attempt < maxRetries {
			log.WarnContext(ctx, "events: handler failed, retrying",
				"attempt", attempt,
				"max_retries", maxRetries,
				"next_delay", delay,
				"error", err,
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
	return fmt.Errorf("events: handler failed after %d retries: %w", maxRetries, err)
}

// Ping checks the transport's database. The in-memory transport is always healthy.
func (b *EventBus) Ping(ctx context.Context) error {
	if b.db == nil {
		return nil
	}
	if err := b.db.PingContext(ctx); err != nil {
		return fmt.Errorf("events: ping db: %w", err)
	}
	return nil
}

// Close stops the subscriber, then the forwarder, waits up to 30s for
// in-flight handlers, and finally closes the publisher and database.
func (b *EventBus) Close() error {
	if err := b.subscriber.Close(); err != nil {
		return fmt.Errorf("events: close subscriber: %w", err)
	}

	if b.fwd != nil {
		if err := b.fwd.Close(); err != nil {
			return fmt.Errorf("events: close forwarder: %w", err)
		}
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	select {
	case <-done:
	case <-ctx.Done():
		b.log.Error("events: timed out waiting for in-flight handlers to complete")
	}

	if err := b.publisher.Close(); err != nil {
		return fmt.Errorf("events: close publisher: %w", err)
	}
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}
