// README: Flight handlers for airports, search, details, quotes and seat maps.
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"skybook/internal/modules/flight"
	"skybook/internal/modules/pricing"
	"skybook/internal/types"
)

const dateLayout = "2006-01-02"

type FlightHandler struct {
	flights  *flight.Service
	loc      *time.Location
	currency string
}

func NewFlightHandler(svc *flight.Service, loc *time.Location, currency string) *FlightHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &FlightHandler{flights: svc, loc: loc, currency: currency}
}

func (h *FlightHandler) Airports(c *gin.Context) {
	airports, err := h.flights.Airports(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"airports": airports})
}

type searchFiltersReq struct {
	TimeOfDay []flight.TimeOfDay `json:"timeOfDay"`
	MinPrice  *int64             `json:"minPrice" binding:"omitempty,gte=0"`
	MaxPrice  *int64             `json:"maxPrice" binding:"omitempty,gte=0"`
	Airlines  []string           `json:"airlines"`
	MinSeats  int                `json:"minSeats" binding:"gte=0"`
}

type searchReq struct {
	Origin      string           `json:"departureAirportCode" binding:"required,len=3"`
	Destination string           `json:"arrivalAirportCode" binding:"required,len=3"`
	Date        string           `json:"departureDate" binding:"required"`
	Passengers  int              `json:"passengers" binding:"gte=0,lte=9"`
	SeatClass   string           `json:"seatClass"`
	Filters     searchFiltersReq `json:"filters"`
	Sort        struct {
		Field string `json:"field"`
		Order string `json:"order"`
	} `json:"sort"`
}

func (h *FlightHandler) Search(c *gin.Context) {
	var req searchReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid search request: "+err.Error())
		return
	}
	date, err := time.ParseInLocation(dateLayout, req.Date, h.loc)
	if err != nil {
		writeError(c, http.StatusBadRequest, "departureDate must be YYYY-MM-DD")
		return
	}
	class, err := parseClass(req.SeatClass)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	res, err := h.flights.Search(c.Request.Context(), flight.SearchQuery{
		Origin:      req.Origin,
		Destination: req.Destination,
		Date:        date,
		Passengers:  req.Passengers,
		Class:       class,
		Filters: flight.Filters{
			TimeOfDay: req.Filters.TimeOfDay,
			MinPrice:  req.Filters.MinPrice,
			MaxPrice:  req.Filters.MaxPrice,
			Airlines:  req.Filters.Airlines,
			MinSeats:  req.Filters.MinSeats,
		},
		Sort: flight.SortOption{Field: req.Sort.Field, Order: req.Sort.Order},
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, res)
}

func (h *FlightHandler) Get(c *gin.Context) {
	f, err := h.flights.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{
		"flight":          f,
		"durationMinutes": f.DurationMinutes(),
		"seatStatus":      flight.SeatStatus(f.TotalSeats()),
		"timeOfDay":       f.TimeOfDay(h.loc),
	})
}

type quoteResp struct {
	FlightID  types.ID               `json:"flightId"`
	SeatClass pricing.CabinClass     `json:"seatClass"`
	Breakdown pricing.PriceBreakdown `json:"priceBreakdown"`
	Total     moneyView              `json:"totalPrice"`
}

// Quote prices one cabin class of the flight as of now. seatClass defaults to ECONOMY.
func (h *FlightHandler) Quote(c *gin.Context) {
	class := pricing.Economy
	if raw := c.Query("seatClass"); raw != "" {
		parsed, err := pricing.ParseCabinClass(raw)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		class = parsed
	}
	f, quote, err := h.flights.Quote(c.Request.Context(), types.ID(c.Param("id")), class)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, quoteResp{
		FlightID:  f.ID,
		SeatClass: class,
		Breakdown: quote,
		Total:     newMoneyView(types.Money{Amount: quote.Total, Currency: h.currency}),
	})
}

func (h *FlightHandler) Seats(c *gin.Context) {
	class, err := parseClass(c.Query("seatClass"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	id := types.ID(c.Param("id"))
	seats, err := h.flights.Seats(c.Request.Context(), id, class)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"flightId": id, "seats": seats})
}
