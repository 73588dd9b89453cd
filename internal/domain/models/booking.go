// Package models defines the domain models of the dispatch service.
package models

import (
	"fmt"
	"time"

	"github.com/ridewave/dispatch/pkg/constants"
)

// Booking represents a transfer booking. BookingNumber is the human-readable
// identifier assigned exactly once, when the booking enters the confirmed
// state. It stays NULL until then and never changes afterwards, including on
// cancellation.
type Booking struct {
	// ID is the internal identifier, a UUID assigned at creation.
	ID string `gorm:"primaryKey;type:varchar(36)" json:"id"`

	// BookingNumber is the sequential human-facing identifier, e.g. "B203".
	// Unique across all bookings; nil until payment confirmation.
	BookingNumber *string `gorm:"uniqueIndex;type:varchar(20)" json:"booking_number,omitempty"`

	// Status is the lifecycle state of the booking.
	Status constants.BookingStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	PickupAddress  string    `gorm:"type:varchar(255);not null" json:"pickup_address"`
	DropoffAddress string    `gorm:"type:varchar(255);not null" json:"dropoff_address"`
	PickupAt       time.Time `gorm:"not null" json:"pickup_at"`

	PassengerName  string `gorm:"type:varchar(120);not null" json:"passenger_name"`
	PassengerPhone string `gorm:"type:varchar(40)" json:"passenger_phone"`
	PassengerEmail string `gorm:"type:varchar(255)" json:"passenger_email"`
	PassengerCount int    `gorm:"default:1" json:"passenger_count"`

	// PriceCents is the agreed fare in minor currency units.
	PriceCents int64  `json:"price_cents"`
	Currency   string `gorm:"type:varchar(3);default:'EUR'" json:"currency"`

	Notes string `gorm:"type:text" json:"notes,omitempty"`

	// CreatedAt is the tie-break for "last assigned" lookups when the sequence
	// is seeded from existing records instead of a dedicated counter row.
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// HasNumber reports whether a booking number has already been assigned.
func (b *Booking) HasNumber() bool {
	return b.BookingNumber != nil && *b.BookingNumber != ""
}

// FormatBookingNumber renders a sequence value as a human-facing number.
func FormatBookingNumber(prefix string, value int64) string {
	return fmt.Sprintf("%s%d", prefix, value)
}

// BookingSequence is the single-row table backing the database sequence
// allocator. LastNumber is the last assigned value; it is read and advanced
// only under a row lock and never decremented.
type BookingSequence struct {
	ID         int   `gorm:"primaryKey" json:"id"`
	LastNumber int64 `gorm:"not null" json:"last_number"`
}

// TableName keeps the table singular; there is exactly one row.
func (BookingSequence) TableName() string {
	return "booking_sequence"
}
