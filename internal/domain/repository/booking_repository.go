// Package repository defines persistence interfaces consumed by the
// application layer. Implementations live under internal/infrastructure.
package repository

import (
	"context"

	"github.com/ridewave/dispatch/internal/domain/models"
	"github.com/ridewave/dispatch/pkg/constants"
)

// BookingRepository persists bookings and owns the transactional boundary of
// the status transition that triggers booking number allocation.
type BookingRepository interface {
	// Create inserts a new booking.
	Create(ctx context.Context, booking *models.Booking) error

	// FindByID retrieves a booking by its internal ID.
	FindByID(ctx context.Context, id string) (*models.Booking, error)

	// FindByNumber retrieves a booking by its assigned number.
	FindByNumber(ctx context.Context, number string) (*models.Booking, error)

	// List returns a page of bookings ordered by creation time, newest first,
	// together with the total count.
	List(ctx context.Context, limit, offset int) ([]*models.Booking, int64, error)

	// Transition sets the booking status inside a single transaction. Entering
	// the confirmed state allocates a booking number if none is assigned yet;
	// the allocation and the status write commit or roll back together. The
	// operation is idempotent with respect to number assignment: a booking that
	// already carries a number keeps it unchanged.
	Transition(ctx context.Context, bookingID string, newStatus constants.BookingStatus) (*models.Booking, error)
}
