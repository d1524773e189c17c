package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/UnicloudAfrica/uniclo-sub010/internal/models"
)

// Response helpers; every endpoint answers with the {status, msg, obj} envelope.
func successResponse(c echo.Context, msg string, obj interface{}) error {
	return c.JSON(http.StatusOK, models.APIResponse{
		Status: true,
		Msg:    msg,
		Obj:    obj,
	})
}

func errorResponse(c echo.Context, code int, msg string) error {
	return c.JSON(code, models.APIResponse{
		Status: false,
		Msg:    msg,
		Obj:    nil,
	})
}

func paginatedResponse(data interface{}, total int64, page, limit int) models.PaginatedResponse {
	return models.PaginatedResponse{
		Data:       data,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		limit = 50
	}
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	if pages == 0 {
		pages = 1
	}
	return pages
}

// queryInt reads an integer query parameter, falling back to defaultVal.
func queryInt(c echo.Context, key string, defaultVal int) int {
	if v, err := strconv.Atoi(c.QueryParam(key)); err == nil {
		return v
	}
	return defaultVal
}
