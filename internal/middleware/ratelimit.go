package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/octobees/attic-directory/internal/config"
	"github.com/octobees/attic-directory/internal/logger"
	"github.com/octobees/attic-directory/internal/service/search"
)

// SearchPath is the route protected by SearchRateLimiter.
const SearchPath = "/api/search"

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SearchRateLimiter applies a token bucket per client IP to the search endpoint.
// A throttled client still gets HTTP 200 with the empty search response and a
// Retry-After hint, so search callers only ever see one payload shape.
func SearchRateLimiter(cfg config.RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Requests <= 0 || cfg.Interval <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				return next(c)
			}
		}
	}

	perRequest := cfg.Interval / time.Duration(cfg.Requests)
	if perRequest <= 0 {
		perRequest = time.Second
	}
	idleAfter := 3 * cfg.Interval
	retryAfter := strconv.Itoa(int(math.Ceil(perRequest.Seconds())))

	var (
		mu        sync.Mutex
		clients   = make(map[string]*clientLimiter)
		lastSweep = time.Now()
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() != SearchPath {
				return next(c)
			}

			now := time.Now()
			ip := c.RealIP()

			mu.Lock()
			if now.Sub(lastSweep) > idleAfter {
				for key, cl := range clients {
					if now.Sub(cl.lastSeen) > idleAfter {
						delete(clients, key)
					}
				}
				lastSweep = now
			}
			cl, ok := clients[ip]
			if !ok {
				cl = &clientLimiter{limiter: rate.NewLimiter(rate.Every(perRequest), cfg.Requests)}
				clients[ip] = cl
			}
			cl.lastSeen = now
			allowed := cl.limiter.Allow()
			mu.Unlock()

			if !allowed {
				query := search.NormalizeQuery(c.QueryParam("q"))
				logger.FromContext(c.Request().Context()).Warn("search rate limited",
					zap.String("client_ip", ip),
					zap.String("query", query),
				)
				c.Response().Header().Set("Retry-After", retryAfter)
				return c.JSON(http.StatusOK, search.EmptyResponse(query))
			}

			return next(c)
		}
	}
}
