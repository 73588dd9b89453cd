package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ridewave/dispatch/internal/application/dto"
	"github.com/ridewave/dispatch/internal/config"
	"github.com/ridewave/dispatch/internal/infrastructure/audit"
	"github.com/ridewave/dispatch/internal/infrastructure/monitoring"
	"github.com/ridewave/dispatch/internal/infrastructure/persistence/postgres"
	"github.com/ridewave/dispatch/pkg/constants"
	"github.com/ridewave/dispatch/pkg/errors"
	"github.com/ridewave/dispatch/pkg/logger"
)

func newBookingTestService(t *testing.T) *BookingAppService {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, postgres.Migrate(db))

	log := logger.NewNoopLogger()
	cfg := &config.SequenceConfig{Backend: "database", Start: 203, Prefix: "B"}
	alloc := postgres.NewGormAllocator(db, cfg, log)
	repo := postgres.NewBookingRepository(db, alloc, cfg, log)
	return NewBookingAppService(repo, audit.NewGormAuditService(db, ""), monitoring.NewMetrics(prometheus.NewRegistry()), log)
}

func createRequest() *dto.CreateBookingRequest {
	return &dto.CreateBookingRequest{
		PickupAddress:  "12 Harbour Road",
		DropoffAddress: "Airport Terminal 2",
		PickupAt:       time.Now().Add(24 * time.Hour),
		PassengerName:  "Lena Voss",
		PriceCents:     4500,
	}
}

func confirmBooking(t *testing.T, svc *BookingAppService, id string) *dto.BookingResponse {
	t.Helper()
	ctx := context.Background()
	_, err := svc.TransitionStatus(ctx, id, constants.BookingStatusPendingPayment)
	require.NoError(t, err)
	confirmed, err := svc.TransitionStatus(ctx, id, constants.BookingStatusConfirmed)
	require.NoError(t, err)
	return confirmed
}

func TestCreateBooking_Defaults(t *testing.T) {
	svc := newBookingTestService(t)

	resp, err := svc.CreateBooking(context.Background(), createRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, string(constants.BookingStatusCreated), resp.Status)
	assert.Empty(t, resp.BookingNumber, "no number before payment confirmation")
	assert.Equal(t, 1, resp.PassengerCount)
	assert.Equal(t, "EUR", resp.Currency)
}

func TestTransitionStatus_ConfirmAssignsFirstNumber(t *testing.T) {
	svc := newBookingTestService(t)

	created, err := svc.CreateBooking(context.Background(), createRequest())
	require.NoError(t, err)

	confirmed := confirmBooking(t, svc, created.ID)
	assert.Equal(t, "B203", confirmed.BookingNumber)
	assert.Equal(t, string(constants.BookingStatusConfirmed), confirmed.Status)
}

func TestTransitionStatus_ConsecutiveNumbers(t *testing.T) {
	svc := newBookingTestService(t)
	ctx := context.Background()

	first, err := svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)
	second, err := svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)

	assert.Equal(t, "B203", confirmBooking(t, svc, first.ID).BookingNumber)
	assert.Equal(t, "B204", confirmBooking(t, svc, second.ID).BookingNumber)
}

func TestTransitionStatus_ReplayKeepsNumber(t *testing.T) {
	svc := newBookingTestService(t)
	ctx := context.Background()

	created, err := svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)
	confirmed := confirmBooking(t, svc, created.ID)

	replayed, err := svc.TransitionStatus(ctx, created.ID, constants.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, confirmed.BookingNumber, replayed.BookingNumber)
}

func TestTransitionStatus_CancelKeepsNumber(t *testing.T) {
	svc := newBookingTestService(t)
	ctx := context.Background()

	created, err := svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)
	confirmed := confirmBooking(t, svc, created.ID)

	cancelled, err := svc.TransitionStatus(ctx, created.ID, constants.BookingStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, confirmed.BookingNumber, cancelled.BookingNumber)

	reinstated, err := svc.TransitionStatus(ctx, created.ID, constants.BookingStatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, confirmed.BookingNumber, reinstated.BookingNumber)
}

func TestTransitionStatus_RejectsIllegalMove(t *testing.T) {
	svc := newBookingTestService(t)
	ctx := context.Background()

	created, err := svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)

	// A booking cannot be confirmed before it is pending payment.
	_, err = svc.TransitionStatus(ctx, created.ID, constants.BookingStatusConfirmed)
	require.Error(t, err)

	_, err = svc.TransitionStatus(ctx, created.ID, constants.BookingStatus("bogus"))
	require.Error(t, err)
}

func TestTransitionStatus_UnknownBooking(t *testing.T) {
	svc := newBookingTestService(t)
	_, err := svc.TransitionStatus(context.Background(), "missing-id", constants.BookingStatusCancelled)
	require.Error(t, err)
	assert.True(t, errors.IsNotFoundError(err))
}

func TestHandlePaymentEvent_SucceededConfirms(t *testing.T) {
	svc := newBookingTestService(t)
	ctx := context.Background()

	created, err := svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)
	_, err = svc.TransitionStatus(ctx, created.ID, constants.BookingStatusPendingPayment)
	require.NoError(t, err)

	resp, err := svc.HandlePaymentEvent(ctx, &dto.PaymentWebhookRequest{
		EventID:   "evt-1",
		BookingID: created.ID,
		Status:    "succeeded",
	})
	require.NoError(t, err)
	assert.Equal(t, string(constants.BookingStatusConfirmed), resp.Status)
	assert.Equal(t, "B203", resp.BookingNumber)
}

func TestHandlePaymentEvent_FailedLeavesPending(t *testing.T) {
	svc := newBookingTestService(t)
	ctx := context.Background()

	created, err := svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)
	_, err = svc.TransitionStatus(ctx, created.ID, constants.BookingStatusPendingPayment)
	require.NoError(t, err)

	resp, err := svc.HandlePaymentEvent(ctx, &dto.PaymentWebhookRequest{
		EventID:   "evt-2",
		BookingID: created.ID,
		Status:    "failed",
	})
	require.NoError(t, err)
	assert.Equal(t, string(constants.BookingStatusPendingPayment), resp.Status)
	assert.Empty(t, resp.BookingNumber)
}

func TestListBookings_PagingAndClamp(t *testing.T) {
	svc := newBookingTestService(t)
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		_, err := svc.CreateBooking(ctx, createRequest())
		require.NoError(t, err)
	}

	page, err := svc.ListBookings(ctx, 5, 0)
	require.NoError(t, err)
	assert.Len(t, page.Bookings, 5)
	assert.Equal(t, int64(7), page.Pagination.Total)

	// Zero limit falls back to the default page size.
	all, err := svc.ListBookings(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all.Bookings, 7)
	assert.Equal(t, defaultPageSize, all.Pagination.Limit)
}

func TestGetBookingByNumber(t *testing.T) {
	svc := newBookingTestService(t)
	ctx := context.Background()

	created, err := svc.CreateBooking(ctx, createRequest())
	require.NoError(t, err)
	confirmBooking(t, svc, created.ID)

	resp, err := svc.GetBookingByNumber(ctx, "B203")
	require.NoError(t, err)
	assert.Equal(t, created.ID, resp.ID)
}
