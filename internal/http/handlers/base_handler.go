// README: Base handler utilities (JSON helpers, error mapping, price views).
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"skybook/internal/modules/booking"
	"skybook/internal/modules/flight"
	"skybook/internal/modules/pricing"
	"skybook/internal/types"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type moneyView struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Formatted string `json:"formatted"`
}

func newMoneyView(m types.Money) moneyView {
	return moneyView{Amount: m.Amount, Currency: m.Currency, Formatted: m.Format()}
}

func writeJSON(c *gin.Context, status int, v any) {
	c.JSON(status, v)
}

func writeError(c *gin.Context, status int, msg string) {
	writeJSON(c, status, errorResponse{Error: msg})
}

// writeServiceError maps module errors to HTTP statuses. Unknown errors are logged and hidden.
func writeServiceError(c *gin.Context, err error) {
	var verr *booking.ValidationError
	if errors.As(err, &verr) {
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: "invalid passenger details", Fields: verr.Fields})
		return
	}

	switch {
	case errors.Is(err, flight.ErrBadRequest),
		errors.Is(err, booking.ErrBadRequest),
		errors.Is(err, pricing.ErrUnknownCabinClass),
		errors.Is(err, pricing.ErrInvalidFare):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, flight.ErrNotFound),
		errors.Is(err, flight.ErrSeatNotFound),
		errors.Is(err, booking.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, pricing.ErrClassNotOffered),
		errors.Is(err, booking.ErrFlightNotBookable):
		writeError(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, booking.ErrInvalidState),
		errors.Is(err, booking.ErrConflict),
		errors.Is(err, booking.ErrSoldOut),
		errors.Is(err, booking.ErrSeatUnavailable):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, booking.ErrReferenceExhausted):
		writeError(c, http.StatusServiceUnavailable, err.Error())
	default:
		slog.ErrorContext(c.Request.Context(), "request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

// parseClass reads an optional cabin class; an empty value means "any".
func parseClass(raw string) (*pricing.CabinClass, error) {
	if raw == "" {
		return nil, nil
	}
	class, err := pricing.ParseCabinClass(raw)
	if err != nil {
		return nil, err
	}
	return &class, nil
}
