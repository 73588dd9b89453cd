package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ridewave/dispatch/internal/application/dto"
	appservice "github.com/ridewave/dispatch/internal/application/service"
	"github.com/ridewave/dispatch/pkg/constants"
)

// BookingHandler serves the booking lifecycle endpoints.
type BookingHandler struct {
	bookings *appservice.BookingAppService
}

// NewBookingHandler creates the booking handler.
func NewBookingHandler(bookings *appservice.BookingAppService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

// Create handles POST /api/v1/bookings.
func (h *BookingHandler) Create(c *gin.Context) {
	var req dto.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.bookings.CreateBooking(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get handles GET /api/v1/bookings/:id.
func (h *BookingHandler) Get(c *gin.Context) {
	resp, err := h.bookings.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, resp)
}

// GetByNumber handles GET /api/v1/bookings/number/:number.
func (h *BookingHandler) GetByNumber(c *gin.Context) {
	resp, err := h.bookings.GetBookingByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, resp)
}

// List handles GET /api/v1/bookings.
func (h *BookingHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	resp, err := h.bookings.ListBookings(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, resp)
}

// Transition handles POST /api/v1/bookings/:id/status.
func (h *BookingHandler) Transition(c *gin.Context) {
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.bookings.TransitionStatus(c.Request.Context(), c.Param("id"), constants.BookingStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, resp)
}

// PaymentWebhook handles POST /api/v1/webhooks/payment. The idempotency
// middleware has already filtered duplicate deliveries by event ID.
func (h *BookingHandler) PaymentWebhook(c *gin.Context) {
	var req dto.PaymentWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	resp, err := h.bookings.HandlePaymentEvent(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"status": "processed", "booking": resp})
}
