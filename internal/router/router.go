package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/UnicloudAfrica/uniclo-sub010/internal/checkout"
	"github.com/UnicloudAfrica/uniclo-sub010/internal/handler"
	"github.com/UnicloudAfrica/uniclo-sub010/internal/handler/api"
	"github.com/UnicloudAfrica/uniclo-sub010/internal/middleware"
)

// Setup configures all routes for the Echo server.
// attempts may be nil when no database is configured.
func Setup(
	e *echo.Echo,
	manager *checkout.Manager,
	attempts api.AttemptLister,
	logger *zap.Logger,
	apiKey string,
	callbackDeduper middleware.CallbackDeduper,
) {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger(logger))

	checkoutHandler := api.NewCheckoutHandler(manager, logger)
	callbackHandler := handler.NewGatewayCallbackHandler(manager, logger)

	// Session routes act on behalf of the payer; the bearer token is forwarded to the ledger.
	sessions := e.Group("/checkout/sessions")
	sessions.Use(middleware.BearerCredential())
	sessions.POST("", checkoutHandler.Open)
	sessions.GET("/:id", checkoutHandler.Get)
	sessions.DELETE("/:id", checkoutHandler.Close)
	sessions.PUT("/:id/mode", checkoutHandler.SelectMode)
	sessions.PUT("/:id/option", checkoutHandler.SelectOption)
	sessions.PUT("/:id/card", checkoutHandler.SelectCard)
	sessions.PUT("/:id/save-card", checkoutHandler.SetSaveCard)
	sessions.POST("/:id/confirm", checkoutHandler.Confirm)
	sessions.POST("/:id/status", checkoutHandler.CheckStatus)
	sessions.DELETE("/:id/retry", checkoutHandler.CancelRetry)
	sessions.POST("/:id/cards/refresh", checkoutHandler.RefreshCards)
	sessions.DELETE("/:id/cards/:card", checkoutHandler.RemoveCard)

	// Hosted gateway callbacks (caller checked first, then deduplicated by transaction, event and tx_ref)
	sessions.POST("/:id/gateway/success", callbackHandler.Success, callbackHandler.Authorize, middleware.GatewayCallbackDedup(callbackDeduper))
	sessions.POST("/:id/gateway/close", callbackHandler.Close, callbackHandler.Authorize, middleware.GatewayCallbackDedup(callbackDeduper))

	// Operator routes
	if attempts != nil {
		attemptHandler := api.NewAttemptHandler(attempts, logger)
		admin := e.Group("/checkout/attempts")
		admin.Use(middleware.APIAuth(apiKey))
		admin.GET("", attemptHandler.List)
		admin.GET("/:id", attemptHandler.ForTransaction)
	} else {
		logger.Info("Payment attempt routes disabled (no database configured)")
	}

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]interface{}{"status": "ok", "sessions": manager.Len()})
	})
}
