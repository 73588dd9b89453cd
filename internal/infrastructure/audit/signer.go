// Package audit persists security-relevant events to a relational table or a
// Kafka topic, optionally signing each event for tamper evidence.
package audit

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"

	"github.com/ridewave/dispatch/internal/domain/models"
)

// SignAuditEvent calculates the HMAC-SHA256 signature of an event. The
// Signature field is excluded from the signed content.
func SignAuditEvent(event models.AuditEvent, secretKey string) (string, error) {
	event.Signature = ""
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return "", err
	}

	h := hmac.New(sha256.New, []byte(secretKey))
	h.Write(eventBytes)
	return base64.StdEncoding.EncodeToString(h.Sum(nil)), nil
}

// VerifyAuditEvent reports whether an event's signature matches its content.
func VerifyAuditEvent(event models.AuditEvent, secretKey string) bool {
	expected, err := SignAuditEvent(event, secretKey)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(event.Signature))
}
