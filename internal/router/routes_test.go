package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/octobees/attic-directory/internal/auth"
	"github.com/octobees/attic-directory/internal/config"
	"github.com/octobees/attic-directory/internal/dto"
	"github.com/octobees/attic-directory/internal/entity"
	"github.com/octobees/attic-directory/internal/handler"
	"github.com/octobees/attic-directory/internal/middleware"
	"github.com/octobees/attic-directory/internal/service"
	"github.com/octobees/attic-directory/internal/service/search"
)

type okPinger struct{}

func (okPinger) Ping(ctx context.Context) error { return nil }

type emptySearcher struct{}

func (emptySearcher) Search(ctx context.Context, req dto.SearchRequest) entity.SearchResponse {
	return search.EmptyResponse(strings.TrimSpace(req.Query))
}

type emptyDirectory struct{}

func (emptyDirectory) ListCities(ctx context.Context) ([]entity.City, error) {
	return []entity.City{}, nil
}

func (emptyDirectory) CityListings(ctx context.Context, citySlug string) (*entity.CityListings, error) {
	return nil, service.ErrCityNotFound
}

func (emptyDirectory) ListingDetail(ctx context.Context, citySlug, companySlug string) (*entity.ListingDetail, error) {
	return nil, service.ErrListingNotFound
}

type emptyReporter struct{}

func (emptyReporter) Demand(ctx context.Context, filter dto.SearchLogFilter) ([]entity.SearchDemand, error) {
	return []entity.SearchDemand{}, nil
}

func newTestServer(t *testing.T) (*echo.Echo, *auth.JWTManager) {
	t.Helper()

	cfg := &config.Config{RateLimitSearch: config.RateLimitConfig{Requests: 100, Interval: time.Minute}}
	jwtManager := auth.NewJWTManager("secret", time.Hour)

	e := echo.New()
	Register(e, cfg, jwtManager, Handlers{
		Health:     handler.NewHealthHandler(okPinger{}),
		Auth:       handler.NewAuthHandler(service.NewAuthService(nil, jwtManager)),
		Search:     handler.NewSearchHandler(emptySearcher{}),
		Directory:  handler.NewDirectoryHandler(emptyDirectory{}),
		SearchLogs: handler.NewSearchLogHandler(emptyReporter{}),
	})
	return e, jwtManager
}

func serve(e *echo.Echo, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRegister_PublicRoutes(t *testing.T) {
	e, _ := newTestServer(t)

	tests := []struct {
		target string
		status int
	}{
		{target: "/healthz", status: http.StatusOK},
		{target: "/metrics", status: http.StatusOK},
		{target: "/api/search?q=85004", status: http.StatusOK},
		{target: "/cities", status: http.StatusOK},
		{target: "/cities/phoenix-az", status: http.StatusNotFound},
		{target: "/cities/phoenix-az/acme-attics", status: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := serve(e, http.MethodGet, tt.target, "")
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRegister_AdminRequiresAdminRole(t *testing.T) {
	e, jwtManager := newTestServer(t)

	if rec := serve(e, http.MethodGet, "/admin/search-logs", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	viewer, err := jwtManager.GenerateToken("operator-2", "viewer@example.com", "viewer")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if rec := serve(e, http.MethodGet, "/admin/search-logs", viewer); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}

	admin, err := jwtManager.GenerateToken("operator-1", "ops@example.com", middleware.RoleAdmin)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	if rec := serve(e, http.MethodGet, "/admin/search-logs", admin); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d: %s", rec.Code, rec.Body.String())
	}
}
