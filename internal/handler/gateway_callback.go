package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/UnicloudAfrica/uniclo-sub010/internal/checkout"
	"github.com/UnicloudAfrica/uniclo-sub010/internal/middleware"
	"github.com/UnicloudAfrica/uniclo-sub010/internal/models"
)

const sessionKey = "checkout_session"

// GatewayCallbackHandler receives the hosted card widget's success and close
// callbacks. Neither is trusted: both start the confirmation retry loop and
// the ledger decides the outcome.
type GatewayCallbackHandler struct {
	manager *checkout.Manager
	logger  *zap.Logger
}

// NewGatewayCallbackHandler creates a new gateway callback handler.
func NewGatewayCallbackHandler(manager *checkout.Manager, logger *zap.Logger) *GatewayCallbackHandler {
	return &GatewayCallbackHandler{manager: manager, logger: logger}
}

// Success handles POST /checkout/sessions/:id/gateway/success.
func (h *GatewayCallbackHandler) Success(c echo.Context) error {
	var req models.GatewayCallbackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.APIResponse{Status: false, Msg: "Invalid callback body"})
	}
	h.logger.Info("Hosted gateway reported success",
		zap.String("transaction_id", c.Param("id")),
		zap.String("tx_ref", req.TxRef),
		zap.String("gateway_status", req.Status))
	return h.drive(c, (*checkout.Session).HostedSuccess)
}

// Close handles POST /checkout/sessions/:id/gateway/close.
func (h *GatewayCallbackHandler) Close(c echo.Context) error {
	h.logger.Info("Hosted gateway closed", zap.String("transaction_id", c.Param("id")))
	return h.drive(c, (*checkout.Session).HostedClose)
}

// Authorize resolves the :id session for the caller. It runs ahead of the
// callback dedup so a rejected caller cannot use up a callback key.
func (h *GatewayCallbackHandler) Authorize(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		s, err := h.manager.Attach(c.Request().Context(), middleware.Credential(c), c.Param("id"))
		if err != nil {
			return h.reject(c, err)
		}
		c.Set(sessionKey, s)
		return next(c)
	}
}

func (h *GatewayCallbackHandler) drive(c echo.Context, start func(*checkout.Session) bool) error {
	s, ok := c.Get(sessionKey).(*checkout.Session)
	if !ok {
		var err error
		if s, err = h.manager.Attach(c.Request().Context(), middleware.Credential(c), c.Param("id")); err != nil {
			return h.reject(c, err)
		}
	}

	if !start(s) {
		return c.JSON(http.StatusConflict, models.APIResponse{Status: false, Msg: "Checkout session already settled", Obj: s.Snapshot()})
	}
	return c.JSON(http.StatusAccepted, models.APIResponse{Status: true, Msg: "Confirming payment", Obj: s.Snapshot()})
}

func (h *GatewayCallbackHandler) reject(c echo.Context, err error) error {
	if errors.Is(err, checkout.ErrForbidden) {
		return c.JSON(http.StatusForbidden, models.APIResponse{Status: false, Msg: "Credential not accepted for this checkout session"})
	}
	return c.JSON(http.StatusNotFound, models.APIResponse{Status: false, Msg: "Checkout session not available"})
}
