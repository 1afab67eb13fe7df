package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/octobees/attic-directory/internal/entity"
	"github.com/octobees/attic-directory/internal/logger"
	"github.com/octobees/attic-directory/internal/service"
)

// Directory serves the browseable city and listing pages.
type Directory interface {
	ListCities(ctx context.Context) ([]entity.City, error)
	CityListings(ctx context.Context, citySlug string) (*entity.CityListings, error)
	ListingDetail(ctx context.Context, citySlug, companySlug string) (*entity.ListingDetail, error)
}

// DirectoryHandler exposes the city and listing endpoints.
type DirectoryHandler struct {
	directory Directory
}

// NewDirectoryHandler constructs a DirectoryHandler.
func NewDirectoryHandler(directory Directory) *DirectoryHandler {
	return &DirectoryHandler{directory: directory}
}

// ListCities handles GET /cities requests.
func (h *DirectoryHandler) ListCities(c echo.Context) error {
	ctx := c.Request().Context()
	cities, err := h.directory.ListCities(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("list cities failed", zap.Error(err))
		return Error(c, http.StatusInternalServerError, "unable to load cities")
	}
	return Success(c, http.StatusOK, "", cities)
}

// ShowCity handles GET /cities/:citySlug requests.
func (h *DirectoryHandler) ShowCity(c echo.Context) error {
	ctx := c.Request().Context()
	page, err := h.directory.CityListings(ctx, c.Param("citySlug"))
	if err != nil {
		if errors.Is(err, service.ErrCityNotFound) {
			return Error(c, http.StatusNotFound, "city not found")
		}
		logger.FromContext(ctx).Error("load city failed", zap.String("city_slug", c.Param("citySlug")), zap.Error(err))
		return Error(c, http.StatusInternalServerError, "unable to load city")
	}
	return Success(c, http.StatusOK, "", page)
}

// ShowListing handles GET /cities/:citySlug/:companySlug requests.
func (h *DirectoryHandler) ShowListing(c echo.Context) error {
	ctx := c.Request().Context()
	detail, err := h.directory.ListingDetail(ctx, c.Param("citySlug"), c.Param("companySlug"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCityNotFound):
			return Error(c, http.StatusNotFound, "city not found")
		case errors.Is(err, service.ErrListingNotFound):
			return Error(c, http.StatusNotFound, "listing not found")
		}
		logger.FromContext(ctx).Error("load listing failed",
			zap.String("city_slug", c.Param("citySlug")),
			zap.String("company_slug", c.Param("companySlug")),
			zap.Error(err),
		)
		return Error(c, http.StatusInternalServerError, "unable to load listing")
	}
	return Success(c, http.StatusOK, "", detail)
}
