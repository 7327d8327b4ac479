package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mobiclear/mobiclear/internal/guarantee"
)

// RegisterAccountRoutes wires account endpoints.
func RegisterAccountRoutes(r fiber.Router, h *guarantee.Handler) {
	r.Post("/accounts", h.InitAccount)
	r.Get("/accounts/:id", h.GetAccount)
}
