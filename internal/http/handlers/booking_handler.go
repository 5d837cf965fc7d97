// README: Booking handlers for create/get/confirm/cancel and status history.
package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"skybook/internal/modules/booking"
	"skybook/internal/modules/flight"
	"skybook/internal/modules/pricing"
	"skybook/internal/types"
)

type BookingHandler struct {
	bookings *booking.Service
	flights  *flight.Service
}

func NewBookingHandler(bookingSvc *booking.Service, flightSvc *flight.Service) *BookingHandler {
	return &BookingHandler{bookings: bookingSvc, flights: flightSvc}
}

// flexibleID accepts both "1001" and 1001.
type flexibleID string

func (f *flexibleID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexibleID(n.String())
	return nil
}

type passengerReq struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phoneNumber"`
	PassportNumber string `json:"passportNumber"`
	DateOfBirth    string `json:"dateOfBirth"`
}

type createBookingReq struct {
	FlightID   flexibleID   `json:"flightId" binding:"required"`
	SeatClass  string       `json:"seatClass"`
	SeatNumber string       `json:"seatNumber"`
	Passenger  passengerReq `json:"passengerDetails"`
}

type passengerView struct {
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phoneNumber"`
	PassportNumber string `json:"passportNumber"`
	DateOfBirth    string `json:"dateOfBirth"`
}

type bookingView struct {
	Reference    string                 `json:"bookingReference"`
	Status       booking.Status         `json:"status"`
	FlightID     types.ID               `json:"flightId"`
	Flight       *flight.Flight         `json:"flight,omitempty"`
	Passenger    passengerView          `json:"passenger"`
	SeatClass    pricing.CabinClass     `json:"seatClass"`
	SeatNumber   *string                `json:"seatNumber"`
	TotalPrice   moneyView              `json:"totalPrice"`
	Breakdown    pricing.PriceBreakdown `json:"priceBreakdown"`
	BookingDate  time.Time              `json:"bookingDate"`
	ConfirmedAt  *time.Time             `json:"confirmedAt,omitempty"`
	CancelledAt  *time.Time             `json:"cancelledAt,omitempty"`
	CancelReason *string                `json:"cancellationReason,omitempty"`
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req createBookingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid booking request: "+err.Error())
		return
	}
	class, err := parseClass(req.SeatClass)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	var birth time.Time
	if req.Passenger.DateOfBirth != "" {
		birth, err = time.Parse(dateLayout, req.Passenger.DateOfBirth)
		if err != nil {
			writeJSON(c, http.StatusBadRequest, errorResponse{
				Error:  "invalid passenger details",
				Fields: map[string]string{"dateOfBirth": "must be YYYY-MM-DD"},
			})
			return
		}
	}

	b, err := h.bookings.Create(c.Request.Context(), booking.CreateCommand{
		FlightID: types.ID(req.FlightID),
		Class:    class,
		Passenger: booking.Passenger{
			FirstName:      req.Passenger.FirstName,
			LastName:       req.Passenger.LastName,
			Email:          req.Passenger.Email,
			Phone:          req.Passenger.PhoneNumber,
			PassportNumber: req.Passenger.PassportNumber,
			BirthDate:      birth,
		},
		SeatNumber: req.SeatNumber,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.Header("Location", "/api/bookings/"+b.Reference)
	writeJSON(c, http.StatusCreated, h.view(c, b))
}

func (h *BookingHandler) Get(c *gin.Context) {
	b, err := h.bookings.Get(c.Request.Context(), c.Param("reference"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, h.view(c, b))
}

func (h *BookingHandler) Confirm(c *gin.Context) {
	b, err := h.bookings.Confirm(c.Request.Context(), c.Param("reference"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, h.view(c, b))
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	if _, err := h.bookings.Cancel(c.Request.Context(), c.Param("reference"), c.Query("reason")); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type eventView struct {
	From      booking.Status `json:"from"`
	To        booking.Status `json:"to"`
	Reason    *string        `json:"reason,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (h *BookingHandler) Events(c *gin.Context) {
	events, err := h.bookings.Events(c.Request.Context(), c.Param("reference"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	out := make([]eventView, 0, len(events))
	for _, e := range events {
		out = append(out, eventView{From: e.FromStatus, To: e.ToStatus, Reason: e.Reason, CreatedAt: e.CreatedAt})
	}
	writeJSON(c, http.StatusOK, gin.H{"events": out})
}

// view renders b with its flight; a missing flight degrades to flightId only.
func (h *BookingHandler) view(c *gin.Context, b *booking.Booking) bookingView {
	v := bookingView{
		Reference: b.Reference,
		Status:    b.Status,
		FlightID:  b.FlightID,
		Passenger: passengerView{
			FirstName:      b.Passenger.FirstName,
			LastName:       b.Passenger.LastName,
			Email:          b.Passenger.Email,
			PhoneNumber:    b.Passenger.Phone,
			PassportNumber: b.Passenger.PassportNumber,
			DateOfBirth:    b.Passenger.BirthDate.Format(dateLayout),
		},
		SeatClass:    b.CabinClass,
		SeatNumber:   b.SeatNumber,
		TotalPrice:   newMoneyView(b.TotalPrice),
		Breakdown:    b.Breakdown,
		BookingDate:  b.CreatedAt,
		ConfirmedAt:  b.ConfirmedAt,
		CancelledAt:  b.CancelledAt,
		CancelReason: b.CancelReason,
	}
	if h.flights != nil {
		f, err := h.flights.Get(c.Request.Context(), b.FlightID)
		if err != nil {
			slog.WarnContext(c.Request.Context(), "booking flight lookup failed", "reference", b.Reference, "error", err)
		} else {
			v.Flight = f
		}
	}
	return v
}
