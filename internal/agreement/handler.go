package agreement

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mobiclear/mobiclear/internal/ledger"
	"github.com/mobiclear/mobiclear/internal/messaging"
	"github.com/mobiclear/mobiclear/internal/model"
	"github.com/mobiclear/mobiclear/internal/offering"
)

// Handler exposes offer collection and acceptance for the hosted consumer.
type Handler struct {
	acceptor  *Acceptor
	transport messaging.Transport
	consumer  model.Party
	providers []model.Party
}

// NewHandler constructs an agreement handler collecting from the given
// providers.
func NewHandler(acceptor *Acceptor, transport messaging.Transport, consumer model.Party, providers []model.Party) *Handler {
	return &Handler{acceptor: acceptor, transport: transport, consumer: consumer, providers: providers}
}

// Collect gathers offers for the requested commitment from all known
// providers. The body is a kind-tagged commitment envelope.
func (h *Handler) Collect(c *fiber.Ctx) error {
	var request model.Commitment
	if err := c.BodyParser(&request); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	offers, err := offering.Collect(c.UserContext(), h.transport, h.consumer, h.providers, request)
	if err != nil {
		if errors.Is(err, messaging.ErrNoRoute) {
			return fiber.NewError(http.StatusBadGateway, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(fiber.Map{"offers": offers})
}

type acceptRequest struct {
	Offer        model.Offer `json:"offer"`
	GuaranteeIDs []uuid.UUID `json:"guarantee_ids"`
}

// Accept accepts a previously collected offer, consuming the listed
// guarantees.
func (h *Handler) Accept(c *fiber.Ctx) error {
	var req acceptRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	id, err := h.acceptor.Accept(c.UserContext(), req.Offer, req.GuaranteeIDs)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"agreement_id": id})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrCountMismatch),
		errors.Is(err, ErrAmountMismatch), errors.Is(err, ErrUntrustedGuarantor):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrMissingGuarantee):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrStaleReference), errors.Is(err, ledger.ErrRecordConsumed),
		errors.Is(err, ErrSignatureRefused):
		return fiber.NewError(http.StatusConflict, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
