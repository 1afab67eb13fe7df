package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/attic-directory/internal/dto"
	"github.com/octobees/attic-directory/internal/entity"
)

// Searcher runs a directory search. Implementations never fail; problems are
// reported as an empty response.
type Searcher interface {
	Search(ctx context.Context, req dto.SearchRequest) entity.SearchResponse
}

// SearchHandler exposes the public search endpoint.
type SearchHandler struct {
	searcher Searcher
}

// NewSearchHandler constructs a SearchHandler.
func NewSearchHandler(searcher Searcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

// Search handles GET /api/search requests. The payload is not wrapped in the
// shared envelope and the status is always 200.
func (h *SearchHandler) Search(c echo.Context) error {
	req := dto.SearchRequest{
		Query:   c.QueryParam("q"),
		Service: c.QueryParam("service"),
		Sort:    c.QueryParam("sort"),
	}
	resp := h.searcher.Search(c.Request().Context(), req)
	return c.JSON(http.StatusOK, resp)
}
