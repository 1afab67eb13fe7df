package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/attic-directory/internal/dto"
	"github.com/octobees/attic-directory/internal/entity"
	"github.com/octobees/attic-directory/internal/logger"
)

// DemandReporter aggregates logged low-result searches.
type DemandReporter interface {
	Demand(ctx context.Context, filter dto.SearchLogFilter) ([]entity.SearchDemand, error)
}

// SearchLogHandler exposes the admin demand report.
type SearchLogHandler struct {
	reporter DemandReporter
}

// NewSearchLogHandler constructs a SearchLogHandler.
func NewSearchLogHandler(reporter DemandReporter) *SearchLogHandler {
	return &SearchLogHandler{reporter: reporter}
}

// Demand handles GET /admin/search-logs requests.
func (h *SearchLogHandler) Demand(c echo.Context) error {
	filter := dto.SearchLogFilter{
		Limit: parseIntDefault(strings.TrimSpace(c.QueryParam("limit")), 0),
	}

	if sinceParam := strings.TrimSpace(c.QueryParam("since")); sinceParam != "" {
		since, err := time.Parse(time.RFC3339, sinceParam)
		if err != nil {
			return Error(c, http.StatusBadRequest, "since must be an RFC3339 timestamp")
		}
		filter.Since = &since
	}

	ctx := c.Request().Context()
	demand, err := h.reporter.Demand(ctx, filter)
	if err != nil {
		logger.FromContext(ctx).Error("search demand report failed", zap.Error(err))
		return Error(c, http.StatusInternalServerError, "unable to load search demand")
	}
	return Success(c, http.StatusOK, "", demand)
}
