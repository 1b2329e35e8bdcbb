package registry

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes party registry endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a registry HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type registerRequest struct {
	Name   string `json:"name"`
	Secret string `json:"secret"`
}

type partyResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
}

// Register creates a party and returns its minted owning key.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	party, err := h.service.Register(c.UserContext(), Credentials{Name: req.Name, Secret: req.Secret})
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(toResponse(party))
}

// Lookup resolves a party by owning key.
func (h *Handler) Lookup(c *fiber.Ctx) error {
	party, err := h.service.Lookup(c.UserContext(), c.Params("key"))
	if err != nil {
		if errors.Is(err, ErrPartyNotFound) {
			return fiber.NewError(http.StatusNotFound, "party not found")
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(toResponse(party))
}

// VerifySecret checks a party credential and returns the party on success.
func (h *Handler) VerifySecret(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	party, err := h.service.Verify(c.UserContext(), Credentials{Name: req.Name, Secret: req.Secret})
	if err != nil {
		if errors.Is(err, ErrPartyNotFound) {
			return fiber.NewError(http.StatusNotFound, "party not found")
		}
		return fiber.NewError(http.StatusUnauthorized, "invalid secret")
	}
	return c.Status(http.StatusOK).JSON(toResponse(party))
}

func toResponse(party Party) partyResponse {
	return partyResponse{ID: party.ID, Name: party.Name, Key: party.Key, CreatedAt: party.CreatedAt}
}
