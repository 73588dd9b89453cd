package audit

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ridewave/dispatch/internal/domain/models"
	"github.com/ridewave/dispatch/internal/domain/service"
)

// GormAuditService stores audit events in the relational database, in the
// audit_events table alongside the records they describe.
type GormAuditService struct {
	db        *gorm.DB
	secretKey string
}

// NewGormAuditService creates a database-backed audit service. An empty
// secretKey disables signing.
func NewGormAuditService(db *gorm.DB, secretKey string) service.AuditService {
	return &GormAuditService{db: db, secretKey: secretKey}
}

// LogEvent signs and saves an audit event.
func (s *GormAuditService) LogEvent(ctx context.Context, event models.AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if s.secretKey != "" {
		signature, err := SignAuditEvent(event, s.secretKey)
		if err != nil {
			return err
		}
		event.Signature = signature
	}
	return s.db.WithContext(ctx).Create(&event).Error
}
