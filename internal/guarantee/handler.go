package guarantee

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/mobiclear/mobiclear/internal/ledger"
	"github.com/mobiclear/mobiclear/internal/model"
)

// Handler exposes account and guarantee endpoints for the hosted requester.
type Handler struct {
	requester *Requester
	operator  model.Party
	store     ledger.Store
}

// NewHandler constructs a guarantee handler talking to the given operator.
func NewHandler(requester *Requester, operator model.Party, store ledger.Store) *Handler {
	return &Handler{requester: requester, operator: operator, store: store}
}

type initAccountRequest struct {
	InitialBalance int64 `json:"initial_balance"`
}

// InitAccount bootstraps an account at the operator.
func (h *Handler) InitAccount(c *fiber.Ctx) error {
	var req initAccountRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	id, err := h.requester.InitAccount(c.UserContext(), h.operator, req.InitialBalance)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"account_id": id})
}

// GetAccount returns the current unconsumed version of an account.
func (h *Handler) GetAccount(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid account id")
	}
	recs, err := h.store.FetchUnconsumed(c.UserContext(), ledger.KindAccount, []uuid.UUID{id})
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	if len(recs) == 0 {
		return fiber.NewError(http.StatusNotFound, "account not found")
	}
	account, ok := recs[0].Body.(model.Account)
	if !ok {
		return fiber.NewError(http.StatusInternalServerError, "malformed account record")
	}
	return c.JSON(fiber.Map{
		"account_id": recs[0].ID,
		"version":    recs[0].Version,
		"owner":      account.Owner,
		"balance":    account.Balance,
	})
}

type issueRequest struct {
	AccountID uuid.UUID `json:"account_id"`
	Amounts   []int64   `json:"amounts"`
}

// Issue requests one guarantee per amount against the account.
func (h *Handler) Issue(c *fiber.Ctx) error {
	var req issueRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	ids, err := h.requester.Issue(c.UserContext(), h.operator, req.AccountID, req.Amounts)
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"guarantee_ids": ids})
}

type revokeRequest struct {
	GuaranteeIDs []uuid.UUID `json:"guarantee_ids"`
}

// Revoke releases the listed guarantees back to their accounts.
func (h *Handler) Revoke(c *fiber.Ctx) error {
	var req revokeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err := h.requester.Revoke(c.UserContext(), h.operator, req.GuaranteeIDs); err != nil {
		return mapError(err)
	}
	return c.JSON(fiber.Map{"revoked": len(req.GuaranteeIDs)})
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInsufficientFunds):
		return fiber.NewError(http.StatusBadRequest, "insufficient funds")
	case errors.Is(err, ledger.ErrStaleReference), errors.Is(err, ledger.ErrRecordConsumed), errors.Is(err, ErrAllOrNothing):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, ErrSignatureRefused):
		return fiber.NewError(http.StatusConflict, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
