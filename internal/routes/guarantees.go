package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/mobiclear/mobiclear/internal/guarantee"
)

// RegisterGuaranteeRoutes wires guarantee endpoints.
func RegisterGuaranteeRoutes(r fiber.Router, h *guarantee.Handler) {
	r.Post("/guarantees/issue", h.Issue)
	r.Post("/guarantees/revoke", h.Revoke)
}
