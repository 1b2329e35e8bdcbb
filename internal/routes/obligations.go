package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/obligo/obligo/internal/obligations"
)

// RegisterObligationRoutes wires obligation endpoints. Transition
// submissions pass through the rate limiter; reads do not.
func RegisterObligationRoutes(r fiber.Router, h *obligations.Handler, submitLimiter fiber.Handler) {
	r.Get("/obligations", h.List)
	r.Get("/obligations/:linearId", h.Get)
	r.Get("/obligations/:linearId/history", h.History)

	r.Post("/obligations", submitLimiter, h.Issue)
	r.Post("/obligations/:linearId/transfer", submitLimiter, h.Transfer)
	r.Post("/obligations/:linearId/settle", submitLimiter, h.Settle)
}
