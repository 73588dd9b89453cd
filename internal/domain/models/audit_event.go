package models

import "time"

// AuditEvent records a security-relevant occurrence: a login block being
// installed or lifted, a booking number being assigned. Events are append-only
// and carry an HMAC signature over their content so after-the-fact tampering
// is detectable.
type AuditEvent struct {
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`

	// Action names the occurrence, e.g. "auth.block_installed".
	Action string `gorm:"type:varchar(64);not null;index" json:"action"`

	// Actor is who triggered the event: an operator user ID or a client
	// identity. Empty when the system acted on its own.
	Actor string `gorm:"type:varchar(255)" json:"actor,omitempty"`

	// Subject is what the event is about: a booking ID, a client identity.
	Subject string `gorm:"type:varchar(255);index" json:"subject"`

	// Detail holds action-specific context as a JSON document.
	Detail string `gorm:"type:text" json:"detail,omitempty"`

	// Signature is the base64 HMAC-SHA256 over the event with this field
	// empty. Blank when signing is not configured.
	Signature string `gorm:"type:varchar(64)" json:"signature,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
