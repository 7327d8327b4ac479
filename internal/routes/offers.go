package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mobiclear/mobiclear/internal/agreement"
)

// RegisterOfferRoutes wires offer collection and acceptance endpoints.
func RegisterOfferRoutes(r fiber.Router, h *agreement.Handler) {
	r.Post("/offers/collect", h.Collect)
	r.Post("/offers/accept", h.Accept)
}
