// Package consumers contains Kafka consumers for background event processing.
package consumers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ridewave/dispatch/internal/application/dto"
	appservice "github.com/ridewave/dispatch/internal/application/service"
	"github.com/ridewave/dispatch/internal/config"
	"github.com/ridewave/dispatch/pkg/errors"
	"github.com/ridewave/dispatch/pkg/logger"
)

// handleRetries bounds re-processing of a transiently failing event before
// the message is handed back to Kafka via an uncommitted offset.
const handleRetries = 3

// PaymentEvent is the message shape the payment provider publishes on the
// payment topic. It mirrors the webhook payload so both ingestion paths feed
// the same application service.
type PaymentEvent struct {
	EventID   string `json:"event_id"`
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

// PaymentConsumer applies payment events from Kafka to bookings. It is the
// asynchronous sibling of the payment webhook: providers that stream events
// instead of calling back land here, and the confirmed transition they
// trigger is idempotent, so at-least-once delivery is safe.
type PaymentConsumer struct {
	reader   *kafka.Reader
	bookings *appservice.BookingAppService
	logger   logger.Logger
	stop     chan struct{}
}

// NewPaymentConsumer creates the payment event consumer. All service
// instances share the configured group ID, so each event is processed once.
func NewPaymentConsumer(cfg *config.KafkaConfig, bookings *appservice.BookingAppService, log logger.Logger) *PaymentConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.PaymentTopic,
		GroupID:        cfg.GroupID,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
	})

	return &PaymentConsumer{
		reader:   reader,
		bookings: bookings,
		logger:   log.WithComponent("payment_consumer"),
		stop:     make(chan struct{}),
	}
}

// Start runs the consumer loop. It blocks and should run in a goroutine.
func (c *PaymentConsumer) Start(ctx context.Context) {
	c.logger.Info(ctx, "starting payment event consumer")
	for {
		select {
		case <-c.stop:
			c.logger.Info(ctx, "stopping payment event consumer")
			return
		default:
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.logger.Error(ctx, "failed to fetch message from kafka", err)
				continue
			}

			var event PaymentEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				c.logger.Error(ctx, "failed to unmarshal payment event", err,
					logger.String("kafka_message", string(msg.Value)),
				)
				// Commit the poison pill so it is not reprocessed forever.
				_ = c.reader.CommitMessages(ctx, msg)
				continue
			}

			if err := c.handleEvent(ctx, &event); err != nil {
				c.logger.Error(ctx, "failed to apply payment event", err,
					logger.String("event_id", event.EventID),
					logger.String("booking_id", event.BookingID),
				)
				// Leave the offset uncommitted so the event is redelivered.
				continue
			}
			_ = c.reader.CommitMessages(ctx, msg)
		}
	}
}

// handleEvent applies one event, retrying transient failures with a short
// backoff. Non-retryable errors (unknown booking, illegal transition) are
// returned immediately.
func (c *PaymentConsumer) handleEvent(ctx context.Context, event *PaymentEvent) error {
	if event.EventID == "" || event.BookingID == "" {
		c.logger.Warn(ctx, "payment event missing identifiers, skipping",
			logger.String("event_id", event.EventID),
			logger.String("booking_id", event.BookingID),
		)
		return nil
	}

	var err error
	for attempt := 0; attempt < handleRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		_, err = c.bookings.HandlePaymentEvent(ctx, &dto.PaymentWebhookRequest{
			EventID:   event.EventID,
			BookingID: event.BookingID,
			Status:    event.Status,
		})
		if err == nil {
			c.logger.Info(ctx, "payment event applied",
				logger.String("event_id", event.EventID),
				logger.String("booking_id", event.BookingID),
				logger.String("status", event.Status),
			)
			return nil
		}
		if !errors.IsRetryable(err) {
			return err
		}
	}
	return err
}

// Stop shuts the consumer down and closes the Kafka reader.
func (c *PaymentConsumer) Stop() {
	close(c.stop)
	if err := c.reader.Close(); err != nil {
		c.logger.Error(context.Background(), "failed to close kafka reader", err)
	}
}
