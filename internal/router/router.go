// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/stayloft/lodging-reservation/internal/handler"
	"github.com/stayloft/lodging-reservation/internal/middleware"
)

// RegisterRoutes registers routes that require no authentication beyond
// what load balancers need. Currently only the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers the unauthenticated availability and quote
// endpoints. cache should be the Redis response cache middleware (or a
// passthrough when Redis is unavailable); quotes are read-heavy and
// identical for every guest, so they are the only cached surface.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1/room-types", cache)
	g.GET("/:id/availability", p.GetAvailability)
	g.GET("/:id/quote", p.GetQuote)
}

// RegisterGuest registers the guest-facing reservation endpoints behind
// JWT auth with role GUEST. Reservation creation additionally passes the
// rate limiter: it is the only write that contends on inventory.
func RegisterGuest(e *echo.Echo, h *handler.GuestReservationHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("GUEST"))

	g.POST("/reservations", h.Create, limiter)
	g.GET("/my-reservations", h.List)
	g.GET("/reservations/:id", h.Get)
	g.DELETE("/reservations/:id", h.Cancel)
	g.POST("/reservations/:id/payment-proof", h.AttachProof)
	g.POST("/reservations/:id/review", h.CreateReview)
}

// RegisterHost registers the host-facing lifecycle and override endpoints
// behind JWT auth with role HOST.
func RegisterHost(e *echo.Echo, res *handler.HostReservationHandler, ov *handler.HostOverrideHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("HOST"))

	g.POST("/reservations/:id/payment-proof/verify", res.VerifyProof)
	g.POST("/reservations/:id/payment-proof/reject", res.RejectProof)
	g.POST("/reservations/:id/complete", res.Complete)

	g.PUT("/room-types/:id/calendar/:date", ov.UpsertCalendarOverride)
	g.DELETE("/room-types/:id/calendar/:date", ov.DeleteCalendarOverride)
	g.POST("/room-types/:id/rate-overrides", ov.CreateRateOverride)
	g.GET("/room-types/:id/rate-overrides", ov.ListRateOverrides)
	g.DELETE("/rate-overrides/:id", ov.DeleteRateOverride)
}
