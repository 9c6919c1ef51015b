// Package eventbus carries domain events between modules. Events travel over NATS
// when a URL is configured and over an in-process channel otherwise.
package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	nc "github.com/nats-io/nats.go"

	"github.com/predict-it/predict-it/app/observability"
)

const (
	TransportNATS      = "nats"
	TransportInProcess = "gochannel"

	correlationIDKey = "correlation_id"
)

// Config selects and tunes the transport.
type Config struct {
	// NATSURL enables the NATS transport. Empty means in-process delivery.
	NATSURL      string
	CloseTimeout time.Duration
}

// EventBus owns a publisher/subscriber pair.
type EventBus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     *slog.Logger
	transport  string
}

// New creates an event bus for cfg.
func New(cfg Config, logger *slog.Logger) (*EventBus, error) {
	if logger == nil {
		logger = slog.Default()
	}
	wmLogger := watermill.NewSlogLogger(logger)

	if cfg.NATSURL == "" {
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, wmLogger)
		logger.Info("Event bus using in-process transport")
		return &EventBus{publisher: ch, subscriber: ch, logger: logger, transport: TransportInProcess}, nil
	}

	closeTimeout := cfg.CloseTimeout
	if closeTimeout <= 0 {
		closeTimeout = 5 * time.Second
	}
	natsOptions := []nc.Option{
		nc.Name("predict-it"),
		nc.RetryOnFailedConnect(true),
		nc.MaxReconnects(-1),
		nc.ReconnectWait(2 * time.Second),
	}
	marshaler := &nats.NATSMarshaler{}
	// Cache invalidation must reach every instance, so no JetStream consumers and no queue groups.
	jsConfig := nats.JetStreamConfig{Disabled: true}

	publisher, err := nats.NewPublisher(
		nats.PublisherConfig{
			URL:         cfg.NATSURL,
			Marshaler:   marshaler,
			NatsOptions: natsOptions,
			JetStream:   jsConfig,
		},
		wmLogger,
	)
	if err != nil {
		logger.Error("Failed to create NATS publisher", observability.ErrorAttr(err))
		return nil, fmt.Errorf("failed to create NATS publisher: %w", err)
	}

	subscriber, err := nats.NewSubscriber(
		nats.SubscriberConfig{
			URL:          cfg.NATSURL,
			Unmarshaler:  marshaler,
			NatsOptions:  natsOptions,
			CloseTimeout: closeTimeout,
			JetStream:    jsConfig,
		},
		wmLogger,
	)
	if err != nil {
		_ = publisher.Close()
		logger.Error("Failed to create NATS subscriber", observability.ErrorAttr(err))
		return nil, fmt.Errorf("failed to create NATS subscriber: %w", err)
	}

	logger.Info("Event bus using NATS transport", slog.String("url", cfg.NATSURL))
	return &EventBus{publisher: publisher, subscriber: subscriber, logger: logger, transport: TransportNATS}, nil
}

// NewInProcess is shorthand for an event bus without NATS.
func NewInProcess(logger *slog.Logger) *EventBus {
	bus, _ := New(Config{}, logger)
	return bus
}

func (b *EventBus) Publisher() message.Publisher   { return b.publisher }
func (b *EventBus) Subscriber() message.Subscriber { return b.subscriber }
func (b *EventBus) Transport() string              { return b.transport }

// Publish encodes payload as JSON and publishes it on topic.
func (b *EventBus) Publish(ctx context.Context, topic string, payload any) error {
	return Publish(ctx, b.publisher, topic, payload)
}

// Close closes the publisher and, when distinct, the subscriber.
func (b *EventBus) Close() error {
	var errs []error
	if b.publisher != nil {
		if err := b.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if b.subscriber != nil && any(b.subscriber) != any(b.publisher) {
		if err := b.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Publish encodes payload as JSON and publishes it on topic through pub. The
// correlation id in ctx travels as message metadata.
func Publish(ctx context.Context, pub message.Publisher, topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set(correlationIDKey, observability.CorrelationIDFrom(ctx))
	msg.SetContext(ctx)

	if err := pub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	return nil
}

// Decode unmarshals a message payload into T and returns a context carrying the
// message's correlation id.
func Decode[T any](msg *message.Message) (context.Context, *T, error) {
	ctx := observability.WithCorrelationID(msg.Context(), msg.Metadata.Get(correlationIDKey))
	payload := new(T)
	if err := json.Unmarshal(msg.Payload, payload); err != nil {
		return ctx, nil, fmt.Errorf("unmarshal message %s: %w", msg.UUID, err)
	}
	return ctx, payload, nil
}

// NewRouter creates a watermill router with panic recovery.
func NewRouter(logger *slog.Logger, closeTimeout time.Duration) (*message.Router, error) {
	if closeTimeout <= 0 {
		closeTimeout = 5 * time.Second
	}
	router, err := message.NewRouter(message.RouterConfig{CloseTimeout: closeTimeout}, watermill.NewSlogLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}
	router.AddMiddleware(recoverer(logger))
	return router, nil
}

func recoverer(logger *slog.Logger) message.HandlerMiddleware {
	return func(h message.HandlerFunc) message.HandlerFunc {
		return func(msg *message.Message) (msgs []*message.Message, err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic handling message %s: %v", msg.UUID, r)
					logger.Error("Critical panic recovered in event handler", observability.ErrorAttr(err))
				}
			}()
			return h(msg)
		}
	}
}
