package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/UnicloudAfrica/uniclo-sub010/internal/checkout"
	"github.com/UnicloudAfrica/uniclo-sub010/internal/ledger"
	"github.com/UnicloudAfrica/uniclo-sub010/internal/middleware"
	"github.com/UnicloudAfrica/uniclo-sub010/internal/models"
)

// CheckoutHandler exposes checkout sessions over HTTP.
type CheckoutHandler struct {
	manager *checkout.Manager
	logger  *zap.Logger
}

func NewCheckoutHandler(manager *checkout.Manager, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{manager: manager, logger: logger}
}

// Open starts or re-attaches to the session of a transaction.
// POST /checkout/sessions
func (h *CheckoutHandler) Open(c echo.Context) error {
	var req models.OpenSessionRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid request body")
	}
	req.TransactionID = strings.TrimSpace(req.TransactionID)
	if req.TransactionID == "" {
		return errorResponse(c, http.StatusBadRequest, "transaction_id is required")
	}

	s, err := h.manager.Open(c.Request().Context(), middleware.Credential(c), req.TransactionID)
	if err != nil {
		return h.fail(c, "Failed to open checkout session", err)
	}
	return successResponse(c, "Checkout session opened", s.Snapshot())
}

// Get returns the current snapshot.
// GET /checkout/sessions/:id
func (h *CheckoutHandler) Get(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.fail(c, "Checkout session not available", err)
	}
	return successResponse(c, "", s.Snapshot())
}

// Close tears the session down.
// DELETE /checkout/sessions/:id
func (h *CheckoutHandler) Close(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.fail(c, "Checkout session not available", err)
	}
	if err := h.manager.Close(s.TransactionID()); err != nil {
		return h.fail(c, "Checkout session not available", err)
	}
	return successResponse(c, "Checkout session closed", nil)
}

// SelectMode switches between card, bank transfer and saved card.
// PUT /checkout/sessions/:id/mode
func (h *CheckoutHandler) SelectMode(c echo.Context) error {
	var req models.SelectModeRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid request body")
	}
	return h.mutate(c, "Payment mode updated", func(s *checkout.Session) error {
		return s.SelectMode(req.Mode)
	})
}

// SelectOption picks a gateway option in the active mode.
// PUT /checkout/sessions/:id/option
func (h *CheckoutHandler) SelectOption(c echo.Context) error {
	var req models.SelectOptionRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid request body")
	}
	return h.mutate(c, "Payment option updated", func(s *checkout.Session) error {
		return s.SelectOption(req.OptionID)
	})
}

// SelectCard picks a saved card.
// PUT /checkout/sessions/:id/card
func (h *CheckoutHandler) SelectCard(c echo.Context) error {
	var req models.SelectCardRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid request body")
	}
	return h.mutate(c, "Saved card selected", func(s *checkout.Session) error {
		return s.SelectCard(req.CardID)
	})
}

// SetSaveCard toggles saving the card used on the hosted gateway.
// PUT /checkout/sessions/:id/save-card
func (h *CheckoutHandler) SetSaveCard(c echo.Context) error {
	var req models.SaveCardRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, http.StatusBadRequest, "Invalid request body")
	}
	return h.mutate(c, "Preference saved", func(s *checkout.Session) error {
		s.SetSaveCard(req.Save)
		return nil
	})
}

// Confirm confirms a bank transfer or charges the selected saved card,
// depending on the active mode.
// POST /checkout/sessions/:id/confirm
func (h *CheckoutHandler) Confirm(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.fail(c, "Checkout session not available", err)
	}

	ctx := c.Request().Context()
	var ok bool
	switch s.Snapshot().ActiveMode {
	case models.ModeBankTransfer:
		ok = s.ConfirmBankTransfer(ctx)
	case models.ModeSavedCard:
		ok = s.ConfirmSavedCard(ctx)
	default:
		return errorResponse(c, http.StatusConflict, "Card payments are confirmed through the hosted gateway")
	}

	snap := s.Snapshot()
	if !ok {
		return c.JSON(http.StatusOK, models.APIResponse{Status: false, Msg: snap.Message, Obj: snap})
	}
	return successResponse(c, snap.Message, snap)
}

// CancelRetry stops the hosted confirmation loop, e.g. when the payer leaves the page.
// DELETE /checkout/sessions/:id/retry
func (h *CheckoutHandler) CancelRetry(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.fail(c, "Checkout session not available", err)
	}
	if !s.CancelRetry() {
		return c.JSON(http.StatusOK, models.APIResponse{Status: false, Msg: "No confirmation in progress", Obj: s.Snapshot()})
	}
	return successResponse(c, "Confirmation stopped", s.Snapshot())
}

// CheckStatus polls the ledger on demand.
// POST /checkout/sessions/:id/status
func (h *CheckoutHandler) CheckStatus(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.fail(c, "Checkout session not available", err)
	}
	if !s.CheckStatus(c.Request().Context()) {
		return c.JSON(http.StatusOK, models.APIResponse{Status: false, Msg: "Status check skipped", Obj: s.Snapshot()})
	}
	return successResponse(c, "Status checked", s.Snapshot())
}

// RefreshCards re-reads the saved cards.
// POST /checkout/sessions/:id/cards/refresh
func (h *CheckoutHandler) RefreshCards(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.fail(c, "Checkout session not available", err)
	}
	if !s.RefreshCards(c.Request().Context()) {
		return errorResponse(c, http.StatusBadGateway, "Failed to refresh saved cards")
	}
	return successResponse(c, "Saved cards refreshed", s.Snapshot())
}

// RemoveCard deletes a saved card.
// DELETE /checkout/sessions/:id/cards/:card
func (h *CheckoutHandler) RemoveCard(c echo.Context) error {
	s, err := h.session(c)
	if err != nil {
		return h.fail(c, "Checkout session not available", err)
	}
	if !s.RemoveCard(c.Request().Context(), c.Param("card")) {
		return errorResponse(c, http.StatusBadGateway, "Failed to remove saved card")
	}
	return successResponse(c, "Saved card removed", s.Snapshot())
}

// session resolves the :id session for the caller's credential.
func (h *CheckoutHandler) session(c echo.Context) (*checkout.Session, error) {
	return h.manager.Attach(c.Request().Context(), middleware.Credential(c), c.Param("id"))
}

func (h *CheckoutHandler) mutate(c echo.Context, msg string, fn func(*checkout.Session) error) error {
	s, err := h.session(c)
	if err != nil {
		return h.fail(c, "Checkout session not available", err)
	}
	if err := fn(s); err != nil {
		return h.fail(c, err.Error(), err)
	}
	return successResponse(c, msg, s.Snapshot())
}

func (h *CheckoutHandler) fail(c echo.Context, msg string, err error) error {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.String("transaction_id", c.Param("id")), zap.Error(err))
	}
	return errorResponse(c, code, msg)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, checkout.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, checkout.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, checkout.ErrSessionClosed):
		return http.StatusConflict
	case errors.Is(err, checkout.ErrModeUnavailable),
		errors.Is(err, checkout.ErrOptionNotFound),
		errors.Is(err, checkout.ErrCardNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ledger.ErrUnauthorized), errors.Is(err, ledger.ErrMissingCredential):
		return http.StatusUnauthorized
	case errors.Is(err, ledger.ErrMissingIdentifier):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
