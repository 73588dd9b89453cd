package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ridewave/dispatch/internal/domain/models"
)

func newAuditTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.AuditEvent{}))
	return db
}

func TestGormAuditService_PersistsSignedEvent(t *testing.T) {
	db := newAuditTestDB(t)
	svc := NewGormAuditService(db, "audit-secret")

	err := svc.LogEvent(context.Background(), models.AuditEvent{
		Action:  "auth.block_installed",
		Subject: "203.0.113.9",
		Detail:  `{"blocked_until":1756600000000}`,
	})
	require.NoError(t, err)

	var stored models.AuditEvent
	require.NoError(t, db.First(&stored).Error)
	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, "auth.block_installed", stored.Action)
	assert.NotEmpty(t, stored.Signature)
	assert.True(t, VerifyAuditEvent(stored, "audit-secret"))
}

func TestGormAuditService_UnsignedWhenNoSecret(t *testing.T) {
	db := newAuditTestDB(t)
	svc := NewGormAuditService(db, "")

	err := svc.LogEvent(context.Background(), models.AuditEvent{
		Action:  "booking.number_assigned",
		Subject: "b-1",
	})
	require.NoError(t, err)

	var stored models.AuditEvent
	require.NoError(t, db.First(&stored).Error)
	assert.Empty(t, stored.Signature)
}

func TestVerifyAuditEvent_DetectsTampering(t *testing.T) {
	event := models.AuditEvent{
		ID:      "evt-1",
		Action:  "auth.block_lifted",
		Subject: "203.0.113.9",
	}
	signature, err := SignAuditEvent(event, "audit-secret")
	require.NoError(t, err)
	event.Signature = signature
	require.True(t, VerifyAuditEvent(event, "audit-secret"))

	event.Subject = "198.51.100.4"
	assert.False(t, VerifyAuditEvent(event, "audit-secret"))

	event.Subject = "203.0.113.9"
	assert.False(t, VerifyAuditEvent(event, "wrong-secret"))
}

func TestNoopAuditService(t *testing.T) {
	assert.NoError(t, NewNoopAuditService().LogEvent(context.Background(), models.AuditEvent{}))
}
