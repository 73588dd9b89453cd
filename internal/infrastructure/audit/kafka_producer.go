package audit

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/ridewave/dispatch/internal/config"
	"github.com/ridewave/dispatch/internal/domain/models"
	"github.com/ridewave/dispatch/internal/domain/service"
	"github.com/ridewave/dispatch/pkg/logger"
)

// KafkaProducer publishes audit events to a Kafka topic for consumption by an
// external SIEM or archival pipeline.
type KafkaProducer struct {
	writer    *kafka.Writer
	secretKey string
	logger    logger.Logger
}

// NewKafkaProducer creates a Kafka-backed audit service.
func NewKafkaProducer(cfg *config.KafkaConfig, secretKey string, log logger.Logger) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(cfg.Brokers...),
		Topic:    cfg.AuditTopic,
		Balancer: &kafka.LeastBytes{},
	}
	return &KafkaProducer{
		writer:    writer,
		secretKey: secretKey,
		logger:    log.WithComponent("audit_producer"),
	}
}

var _ service.AuditService = (*KafkaProducer)(nil)

// LogEvent signs and publishes an audit event. Events about the same subject
// share a partition so their relative order survives transport.
func (p *KafkaProducer) LogEvent(ctx context.Context, event models.AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if p.secretKey != "" {
		signature, err := SignAuditEvent(event, p.secretKey)
		if err != nil {
			return err
		}
		event.Signature = signature
	}

	bytes, err := json.Marshal(event)
	if err != nil {
		p.logger.Error(ctx, "failed to marshal audit event", err)
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Subject),
		Value: bytes,
	})
}

// Close closes the underlying Kafka writer.
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
