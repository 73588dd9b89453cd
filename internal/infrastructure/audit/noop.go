package audit

import (
	"context"

	"github.com/ridewave/dispatch/internal/domain/models"
	"github.com/ridewave/dispatch/internal/domain/service"
)

type noopAuditService struct{}

// NewNoopAuditService returns an audit service that discards every event.
// Used when auditing is disabled.
func NewNoopAuditService() service.AuditService {
	return noopAuditService{}
}

func (noopAuditService) LogEvent(context.Context, models.AuditEvent) error { return nil }
