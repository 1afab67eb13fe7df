package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/octobees/attic-directory/internal/config"
	"github.com/octobees/attic-directory/internal/entity"
	"github.com/octobees/attic-directory/internal/logger"
)

func TestLoggingMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	base := zap.New(core)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(ContextKeyRequestID, "rid-123")

	err := Logging(base)(func(c echo.Context) error {
		logger.FromContext(c.Request().Context()).Info("inside handler")
		return c.String(http.StatusOK, "ok")
	})(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected handler and request log lines, got %d", len(entries))
	}
	for _, entry := range entries {
		if entry.ContextMap()["request_id"] != "rid-123" {
			t.Fatalf("expected request id on every line, got %v", entry.ContextMap())
		}
	}
	last := entries[1].ContextMap()
	if last["path"] != "/healthz" || last["status"] != int64(http.StatusOK) {
		t.Fatalf("unexpected request fields: %v", last)
	}

	// ensure errors are propagated and logged
	rec = httptest.NewRecorder()
	c = e.NewContext(req, rec)
	c.Set(ContextKeyRequestID, "rid-456")
	expected := errors.New("boom")
	err = Logging(base)(func(c echo.Context) error {
		return expected
	})(c)
	if !errors.Is(err, expected) {
		t.Fatalf("expected error to bubble up")
	}
	errorLines := logs.FilterField(zap.String("request_id", "rid-456")).FilterMessage("http request").All()
	if len(errorLines) != 1 || errorLines[0].Level != zapcore.ErrorLevel {
		t.Fatalf("expected one error level line, got %+v", errorLines)
	}
}

func newSearchContext(e *echo.Echo, ip string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, SearchPath+"?q=phoenix", nil)
	req.Header.Set(echo.HeaderXRealIP, ip)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath(SearchPath)
	return c, rec
}

func TestSearchRateLimiter(t *testing.T) {
	cfg := config.RateLimitConfig{Requests: 1, Interval: time.Minute}
	mw := SearchRateLimiter(cfg)

	e := echo.New()
	nextCalls := 0
	next := func(c echo.Context) error {
		nextCalls++
		return c.NoContent(http.StatusOK)
	}

	c, rec := newSearchContext(e, "203.0.113.1")
	_ = mw(next)(c)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}

	c2, rec2 := newSearchContext(e, "203.0.113.1")
	_ = mw(next)(c2)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected throttled search to keep status 200, got %d", rec2.Code)
	}
	if nextCalls != 1 {
		t.Fatalf("expected throttled request to skip the handler, got %d calls", nextCalls)
	}
	if rec2.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected Retry-After 60, got %q", rec2.Header().Get("Retry-After"))
	}
	var throttled entity.SearchResponse
	if err := json.Unmarshal(rec2.Body.Bytes(), &throttled); err != nil {
		t.Fatalf("decode throttled response: %v", err)
	}
	if throttled.Results == nil || len(throttled.Results) != 0 || !throttled.Meta.Expanded ||
		throttled.Meta.RadiusMiles != 50 || throttled.Meta.Query != "phoenix" || throttled.Meta.Location != nil {
		t.Fatalf("expected empty search response, got %s", rec2.Body.String())
	}

	// another client has its own bucket
	c3, rec3 := newSearchContext(e, "198.51.100.7")
	_ = mw(next)(c3)
	if rec3.Code != http.StatusOK {
		t.Fatalf("expected other client to pass, got %d", rec3.Code)
	}

	// Other paths bypass the limiter.
	req4 := httptest.NewRequest(http.MethodGet, "/cities", nil)
	req4.Header.Set(echo.HeaderXRealIP, "203.0.113.1")
	rec4 := httptest.NewRecorder()
	c4 := e.NewContext(req4, rec4)
	c4.SetPath("/cities")
	_ = mw(next)(c4)
	if rec4.Code != http.StatusOK {
		t.Fatalf("expected non-search request to pass")
	}

	// zero config should behave as passthrough
	mw = SearchRateLimiter(config.RateLimitConfig{})
	for i := 0; i < 3; i++ {
		c5, rec5 := newSearchContext(e, "203.0.113.1")
		_ = mw(next)(c5)
		if rec5.Code != http.StatusOK {
			t.Fatalf("expected passthrough when limiter disabled")
		}
	}
	if nextCalls != 6 {
		t.Fatalf("expected next handler to be invoked 6 times, got %d", nextCalls)
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	mw := RequireRole(RoleAdmin)

	t.Run("missing role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		_ = mw(func(c echo.Context) error { return nil })(c)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("incorrect role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(ContextKeyUserRole, "user")

		_ = mw(func(c echo.Context) error { return nil })(c)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("success", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(ContextKeyUserRole, RoleAdmin)

		called := false
		if err := mw(func(c echo.Context) error {
			called = true
			return c.NoContent(http.StatusOK)
		})(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !called {
			t.Fatalf("expected handler to run")
		}
	})

	t.Run("any of several roles", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(ContextKeyUserRole, "analyst")

		called := false
		_ = RequireRole(RoleAdmin, "analyst")(func(c echo.Context) error {
			called = true
			return nil
		})(c)
		if !called {
			t.Fatalf("expected handler to run for second allowed role")
		}
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	e := echo.New()
	handler := RequestID()

	t.Run("reuse incoming header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-ID", "incoming")
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := handler(func(c echo.Context) error {
			if RequestIDFromContext(c) != "incoming" {
				t.Fatalf("expected request id to be stored")
			}
			return c.NoContent(http.StatusOK)
		})(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if rec.Header().Get("X-Request-ID") != "incoming" {
			t.Fatalf("expected response header to propagate request id")
		}
	})

	t.Run("generate when missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := handler(func(c echo.Context) error {
			rid := RequestIDFromContext(c)
			if rid == "" {
				t.Fatalf("expected generated request id")
			}
			return c.NoContent(http.StatusOK)
		})(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if rec.Header().Get("X-Request-ID") == "" {
			t.Fatalf("expected response header set")
		}
	})

	t.Run("replace unusable header", func(t *testing.T) {
		for _, bad := range []string{"has space", strings.Repeat("x", 200)} {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("X-Request-ID", bad)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			_ = handler(func(c echo.Context) error {
				if RequestIDFromContext(c) == bad {
					t.Fatalf("expected %q to be replaced", bad)
				}
				return nil
			})(c)
		}
	})
}
