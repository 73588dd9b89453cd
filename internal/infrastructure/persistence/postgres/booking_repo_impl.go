package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/ridewave/dispatch/internal/config"
	"github.com/ridewave/dispatch/internal/domain/models"
	"github.com/ridewave/dispatch/internal/domain/repository"
	"github.com/ridewave/dispatch/internal/domain/service"
	"github.com/ridewave/dispatch/pkg/constants"
	"github.com/ridewave/dispatch/pkg/errors"
	"github.com/ridewave/dispatch/pkg/logger"
)

var _ repository.BookingRepository = (*BookingRepo)(nil)

// BookingRepo is the GORM implementation of repository.BookingRepository.
// It owns the transaction around status transitions so that booking number
// allocation and the status write are a single atomic unit.
type BookingRepo struct {
	db     *gorm.DB
	seq    service.SequenceAllocator
	cfg    *config.SequenceConfig
	logger logger.Logger
}

// NewBookingRepository creates a booking repository backed by db. The
// allocator assigns numbers when bookings enter the confirmed state.
func NewBookingRepository(db *gorm.DB, seq service.SequenceAllocator, cfg *config.SequenceConfig, log logger.Logger) *BookingRepo {
	return &BookingRepo{
		db:     db,
		seq:    seq,
		cfg:    cfg,
		logger: log.WithComponent("booking_repository"),
	}
}

// Create inserts a new booking.
func (r *BookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		return errors.ErrServerError("failed to create booking").WithCause(err)
	}
	return nil
}

// FindByID retrieves a booking by its internal ID.
func (r *BookingRepo) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.ErrBookingNotFound(id)
	}
	if err != nil {
		return nil, errors.ErrServerError("failed to load booking").WithCause(err)
	}
	return &booking, nil
}

// FindByNumber retrieves a booking by its assigned number.
func (r *BookingRepo) FindByNumber(ctx context.Context, number string) (*models.Booking, error) {
	var booking models.Booking
	err := r.db.WithContext(ctx).Where("booking_number = ?", number).First(&booking).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errors.ErrBookingNotFound(number)
	}
	if err != nil {
		return nil, errors.ErrServerError("failed to load booking").WithCause(err)
	}
	return &booking, nil
}

// List returns a page of bookings, newest first, with the total count.
func (r *BookingRepo) List(ctx context.Context, limit, offset int) ([]*models.Booking, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Booking{}).Count(&total).Error; err != nil {
		return nil, 0, errors.ErrServerError("failed to count bookings").WithCause(err)
	}

	var bookings []*models.Booking
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, errors.ErrServerError("failed to list bookings").WithCause(err)
	}
	return bookings, total, nil
}

// Transition sets the booking status inside a single transaction. The booking
// row is locked for the duration, so concurrent transitions of the same
// booking serialize and the idempotency check on the number cannot race.
func (r *BookingRepo) Transition(ctx context.Context, bookingID string, newStatus constants.BookingStatus) (*models.Booking, error) {
	if !newStatus.IsValid() {
		return nil, errors.ErrInvalidRequest("unknown booking status: " + string(newStatus))
	}

	var result *models.Booking
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var booking models.Booking
		err := forUpdate(tx).Where("id = ?", bookingID).First(&booking).Error
		if err == gorm.ErrRecordNotFound {
			return errors.ErrBookingNotFound(bookingID)
		}
		if err != nil {
			return errors.ErrServerError("failed to load booking").WithCause(err)
		}

		if newStatus == constants.BookingStatusConfirmed && !booking.HasNumber() {
			value, aerr := r.allocator(tx).Next(ctx)
			if aerr != nil {
				return aerr
			}
			number := models.FormatBookingNumber(r.cfg.Prefix, value)
			booking.BookingNumber = &number
			r.logger.Info(ctx, "booking number assigned",
				logger.String("booking_id", booking.ID),
				logger.String("booking_number", number),
			)
		}

		booking.Status = newStatus
		if err := tx.Save(&booking).Error; err != nil {
			return errors.ErrServerError("failed to update booking").WithCause(err)
		}
		result = &booking
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// allocator binds the sequence allocator to tx when the database backend is
// in use, so the sequence advance commits with the booking write. The Redis
// backend has no transaction to join and is returned as-is.
func (r *BookingRepo) allocator(tx *gorm.DB) service.SequenceAllocator {
	if g, ok := r.seq.(*GormAllocator); ok {
		return g.WithTx(tx)
	}
	return r.seq
}
