package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/UnicloudAfrica/uniclo-sub010/internal/models"
)

// AttemptLister reads the attempt audit trail. *repository.AttemptRepository satisfies it.
type AttemptLister interface {
	FindAll(limit, page int, query string) ([]models.PaymentAttempt, int64, error)
	FindByTransaction(txID string) ([]models.PaymentAttempt, error)
}

// AttemptHandler serves the payment attempt audit trail to operators.
type AttemptHandler struct {
	repo   AttemptLister
	logger *zap.Logger
}

func NewAttemptHandler(repo AttemptLister, logger *zap.Logger) *AttemptHandler {
	return &AttemptHandler{repo: repo, logger: logger}
}

// List returns attempts with pagination and search.
// GET /checkout/attempts?limit=&page=&q=
func (h *AttemptHandler) List(c echo.Context) error {
	limit := queryInt(c, "limit", 50)
	page := queryInt(c, "page", 1)
	if limit <= 0 {
		limit = 50
	}
	if limit > 1000 {
		limit = 1000
	}
	if page <= 0 {
		page = 1
	}

	attempts, total, err := h.repo.FindAll(limit, page, c.QueryParam("q"))
	if err != nil {
		h.logger.Error("Failed to list payment attempts", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to retrieve payment attempts")
	}
	return successResponse(c, "Successful", paginatedResponse(attempts, total, page, limit))
}

// ForTransaction returns every attempt of one transaction.
// GET /checkout/attempts/:id
func (h *AttemptHandler) ForTransaction(c echo.Context) error {
	attempts, err := h.repo.FindByTransaction(c.Param("id"))
	if err != nil {
		h.logger.Error("Failed to read payment attempts", zap.String("transaction_id", c.Param("id")), zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to retrieve payment attempts")
	}
	return successResponse(c, "Successful", attempts)
}
