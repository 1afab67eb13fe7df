package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/octobees/attic-directory/internal/auth"
	"github.com/octobees/attic-directory/internal/config"
	"github.com/octobees/attic-directory/internal/handler"
	middlewarepkg "github.com/octobees/attic-directory/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Health     *handler.HealthHandler
	Auth       *handler.AuthHandler
	Search     *handler.SearchHandler
	Directory  *handler.DirectoryHandler
	SearchLogs *handler.SearchLogHandler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, handlers Handlers) {
	e.GET("/healthz", handlers.Health.Check)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.GET(middlewarepkg.SearchPath, handlers.Search.Search, middlewarepkg.SearchRateLimiter(cfg.RateLimitSearch))

	e.GET("/cities", handlers.Directory.ListCities)
	e.GET("/cities/:citySlug", handlers.Directory.ShowCity)
	e.GET("/cities/:citySlug/:companySlug", handlers.Directory.ShowListing)

	e.POST("/auth/login", handlers.Auth.Login)

	admin := e.Group("/admin", middlewarepkg.JWT(jwtManager), middlewarepkg.RequireRole(middlewarepkg.RoleAdmin))
	admin.GET("/search-logs", handlers.SearchLogs.Demand)
}
