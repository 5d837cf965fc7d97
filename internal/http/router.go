// README: HTTP router registration on gin with CORS, request IDs, logging and recovery.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"skybook/internal/http/handlers"
	"skybook/internal/http/middleware"
	"skybook/internal/modules/booking"
	"skybook/internal/modules/flight"
)

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

type RouterDeps struct {
	Flights     *flight.Service
	Bookings    *booking.Service
	Location    *time.Location
	Currency    string
	CORSOrigins []string
	Health      map[string]HealthCheck
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logging(), middleware.Recovery())
	if len(deps.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  deps.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", middleware.RequestIDHeader},
			ExposeHeaders: []string{"Location", middleware.RequestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	r.GET("/health", healthHandler(deps.Health))

	api := r.Group("/api")

	flightHandler := handlers.NewFlightHandler(deps.Flights, deps.Location, deps.Currency)
	api.GET("/airports", flightHandler.Airports)
	api.POST("/flights/search", flightHandler.Search)
	api.GET("/flights/:id", flightHandler.Get)
	api.GET("/flights/:id/quote", flightHandler.Quote)
	api.GET("/flights/:id/seats", flightHandler.Seats)

	bookingHandler := handlers.NewBookingHandler(deps.Bookings, deps.Flights)
	api.POST("/bookings", bookingHandler.Create)
	api.GET("/bookings/:reference", bookingHandler.Get)
	api.GET("/bookings/:reference/events", bookingHandler.Events)
	api.PUT("/bookings/:reference/confirm", bookingHandler.Confirm)
	api.DELETE("/bookings/:reference", bookingHandler.Cancel)

	return r
}

func healthHandler(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		state := "ok"
		if status != http.StatusOK {
			state = "degraded"
		}
		c.JSON(status, gin.H{"status": state, "checks": results})
	}
}
