package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/octobees/attic-directory/internal/logger"
)

// Logging writes one structured line per HTTP request and stores a
// request-scoped logger in the request context for downstream services.
func Logging(base *zap.Logger) echo.MiddlewareFunc {
	if base == nil {
		base = zap.NewNop()
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			rid := RequestIDFromContext(c)
			reqLogger := base.With(zap.String("request_id", rid))
			req := c.Request()
			c.SetRequest(req.WithContext(logger.ContextWithLogger(req.Context(), reqLogger)))

			err := next(c)
			if err != nil {
				c.Error(err)
			}
			latency := time.Since(start)

			status := c.Response().Status
			level := zapcore.InfoLevel
			switch {
			case status >= 500:
				level = zapcore.ErrorLevel
			case status >= 400:
				level = zapcore.WarnLevel
			}

			if ce := reqLogger.Check(level, "http request"); ce != nil {
				fields := []zap.Field{
					zap.String("method", req.Method),
					zap.String("path", req.URL.Path),
					zap.Int("status", status),
					zap.Duration("latency", latency),
				}
				if err != nil {
					fields = append(fields, zap.Error(err))
				}
				ce.Write(fields...)
			}

			return err
		}
	}
}
