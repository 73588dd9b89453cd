package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ridewave/dispatch/internal/application/dto"
	"github.com/ridewave/dispatch/internal/domain/models"
	"github.com/ridewave/dispatch/internal/domain/repository"
	"github.com/ridewave/dispatch/internal/domain/service"
	"github.com/ridewave/dispatch/internal/infrastructure/monitoring"
	"github.com/ridewave/dispatch/pkg/constants"
	"github.com/ridewave/dispatch/pkg/errors"
	"github.com/ridewave/dispatch/pkg/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// BookingAppService orchestrates the booking lifecycle. Status transitions
// are validated here; the repository owns the transactional write and the
// number allocation it may trigger.
type BookingAppService struct {
	bookings repository.BookingRepository
	audit    service.AuditService
	metrics  *monitoring.Metrics
	logger   logger.Logger
}

// NewBookingAppService wires the booking application service.
func NewBookingAppService(bookings repository.BookingRepository, audit service.AuditService, metrics *monitoring.Metrics, log logger.Logger) *BookingAppService {
	return &BookingAppService{
		bookings: bookings,
		audit:    audit,
		metrics:  metrics,
		logger:   log.WithComponent("booking_service"),
	}
}

// CreateBooking places a new booking in the created state.
func (s *BookingAppService) CreateBooking(ctx context.Context, req *dto.CreateBookingRequest) (*dto.BookingResponse, error) {
	booking := &models.Booking{
		ID:             uuid.NewString(),
		Status:         constants.BookingStatusCreated,
		PickupAddress:  req.PickupAddress,
		DropoffAddress: req.DropoffAddress,
		PickupAt:       req.PickupAt,
		PassengerName:  req.PassengerName,
		PassengerPhone: req.PassengerPhone,
		PassengerEmail: req.PassengerEmail,
		PassengerCount: req.PassengerCount,
		PriceCents:     req.PriceCents,
		Currency:       req.Currency,
		Notes:          req.Notes,
	}
	if booking.PassengerCount < 1 {
		booking.PassengerCount = 1
	}
	if booking.Currency == "" {
		booking.Currency = "EUR"
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "booking created", logger.String("booking_id", booking.ID))
	return dto.NewBookingResponse(booking), nil
}

// GetBooking retrieves a booking by internal ID.
func (s *BookingAppService) GetBooking(ctx context.Context, id string) (*dto.BookingResponse, error) {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewBookingResponse(booking), nil
}

// GetBookingByNumber retrieves a booking by its assigned number, e.g. "B203".
func (s *BookingAppService) GetBookingByNumber(ctx context.Context, number string) (*dto.BookingResponse, error) {
	booking, err := s.bookings.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return dto.NewBookingResponse(booking), nil
}

// ListBookings returns a page of bookings, newest first.
func (s *BookingAppService) ListBookings(ctx context.Context, limit, offset int) (*dto.ListBookingsResponse, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	bookings, total, err := s.bookings.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return dto.NewListBookingsResponse(bookings, limit, offset, total), nil
}

// TransitionStatus moves a booking to a new lifecycle status. Entering the
// confirmed state assigns the booking number; replays keep the existing one.
func (s *BookingAppService) TransitionStatus(ctx context.Context, bookingID string, newStatus constants.BookingStatus) (*dto.BookingResponse, error) {
	if !newStatus.IsValid() {
		return nil, errors.ErrInvalidRequest("unknown booking status: " + string(newStatus))
	}

	current, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(newStatus) {
		return nil, errors.ErrInvalidRequest(
			"cannot transition booking from " + string(current.Status) + " to " + string(newStatus))
	}

	start := time.Now()
	updated, err := s.bookings.Transition(ctx, bookingID, newStatus)
	if err != nil {
		s.metrics.RecordTransition(string(newStatus), "error", time.Since(start))
		if errors.IsAllocationConflict(err) {
			s.metrics.RecordAllocation("conflict")
		}
		return nil, err
	}
	s.metrics.RecordTransition(string(newStatus), "success", time.Since(start))

	if newStatus == constants.BookingStatusConfirmed && !current.HasNumber() && updated.HasNumber() {
		s.metrics.RecordAllocation("success")
		if err := s.audit.LogEvent(ctx, models.AuditEvent{
			Action:  "booking.number_assigned",
			Subject: bookingID,
			Detail:  `{"booking_number":"` + *updated.BookingNumber + `"}`,
		}); err != nil {
			s.logger.Warn(ctx, "failed to record audit event", logger.Error(err))
		}
	}

	s.logger.Info(ctx, "booking transitioned",
		logger.String("booking_id", bookingID),
		logger.String("from", string(current.Status)),
		logger.String("to", string(newStatus)),
	)
	return dto.NewBookingResponse(updated), nil
}

// HandlePaymentEvent applies a payment provider notification. A succeeded
// payment confirms the booking; a failed one leaves it pending so the
// customer can retry payment.
func (s *BookingAppService) HandlePaymentEvent(ctx context.Context, event *dto.PaymentWebhookRequest) (*dto.BookingResponse, error) {
	if event.Status != "succeeded" {
		s.logger.Info(ctx, "payment failed, booking left pending",
			logger.String("booking_id", event.BookingID),
			logger.String("event_id", event.EventID),
		)
		return s.GetBooking(ctx, event.BookingID)
	}
	return s.TransitionStatus(ctx, event.BookingID, constants.BookingStatusConfirmed)
}
