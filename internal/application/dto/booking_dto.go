package dto

import (
	"time"

	"github.com/ridewave/dispatch/internal/domain/models"
)

// CreateBookingRequest is the payload for placing a new booking.
type CreateBookingRequest struct {
	PickupAddress  string    `json:"pickup_address" binding:"required,max=255"`
	DropoffAddress string    `json:"dropoff_address" binding:"required,max=255"`
	PickupAt       time.Time `json:"pickup_at" binding:"required"`
	PassengerName  string    `json:"passenger_name" binding:"required,max=120"`
	PassengerPhone string    `json:"passenger_phone" binding:"omitempty,max=40"`
	PassengerEmail string    `json:"passenger_email" binding:"omitempty,email"`
	PassengerCount int       `json:"passenger_count" binding:"omitempty,min=1,max=16"`
	PriceCents     int64     `json:"price_cents" binding:"omitempty,min=0"`
	Currency       string    `json:"currency" binding:"omitempty,len=3"`
	Notes          string    `json:"notes" binding:"omitempty,max=2000"`
}

// TransitionRequest moves a booking to a new lifecycle status.
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// PaymentWebhookRequest is the payload the payment provider posts on a
// completed payment. EventID deduplicates provider retries.
type PaymentWebhookRequest struct {
	EventID   string `json:"event_id" binding:"required,min=1,max=128"`
	BookingID string `json:"booking_id" binding:"required,uuid"`
	Status    string `json:"status" binding:"required,oneof=succeeded failed"`
}

// BookingResponse is the public view of a booking. BookingNumber is empty
// until payment confirmation assigns one.
type BookingResponse struct {
	ID             string    `json:"id"`
	BookingNumber  string    `json:"booking_number,omitempty"`
	Status         string    `json:"status"`
	PickupAddress  string    `json:"pickup_address"`
	DropoffAddress string    `json:"dropoff_address"`
	PickupAt       time.Time `json:"pickup_at"`
	PassengerName  string    `json:"passenger_name"`
	PassengerPhone string    `json:"passenger_phone,omitempty"`
	PassengerEmail string    `json:"passenger_email,omitempty"`
	PassengerCount int       `json:"passenger_count"`
	PriceCents     int64     `json:"price_cents"`
	Currency       string    `json:"currency"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewBookingResponse maps a booking model to its public view.
func NewBookingResponse(b *models.Booking) *BookingResponse {
	resp := &BookingResponse{
		ID:             b.ID,
		Status:         string(b.Status),
		PickupAddress:  b.PickupAddress,
		DropoffAddress: b.DropoffAddress,
		PickupAt:       b.PickupAt,
		PassengerName:  b.PassengerName,
		PassengerPhone: b.PassengerPhone,
		PassengerEmail: b.PassengerEmail,
		PassengerCount: b.PassengerCount,
		PriceCents:     b.PriceCents,
		Currency:       b.Currency,
		Notes:          b.Notes,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
	if b.HasNumber() {
		resp.BookingNumber = *b.BookingNumber
	}
	return resp
}

// ListBookingsResponse is a page of bookings with paging metadata.
type ListBookingsResponse struct {
	Bookings   []*BookingResponse `json:"bookings"`
	Pagination Pagination         `json:"pagination"`
}

// NewListBookingsResponse maps a page of booking models.
func NewListBookingsResponse(bookings []*models.Booking, limit, offset int, total int64) *ListBookingsResponse {
	out := make([]*BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, NewBookingResponse(b))
	}
	return &ListBookingsResponse{
		Bookings:   out,
		Pagination: Pagination{Limit: limit, Offset: offset, Total: total},
	}
}
