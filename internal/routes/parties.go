package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/obligo/obligo/internal/registry"
)

// RegisterPartyRoutes wires party registry endpoints.
func RegisterPartyRoutes(r fiber.Router, h *registry.Handler) {
	r.Post("/parties", h.Register)
	r.Post("/parties/verify", h.VerifySecret)
	r.Get("/parties/:key", h.Lookup)
}
