package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/MananJK/echo-TTS/internal/errors"
	"github.com/MananJK/echo-TTS/internal/platform/correlation"
)

func (s *Server) registerRoutes() {
	s.echo.Use(correlationMiddleware())
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(apperrors.Middleware())

	s.echo.GET("/callback", s.handleCallback)
	s.echo.GET("/auth-complete", s.handleAuthComplete)
	s.echo.POST("/auth/token", s.handleTokenExchange)
	s.echo.POST("/auth/refresh", s.handleTokenRefresh)

	s.echo.POST("/webhooks/eventsub", s.handleEventSub)
	s.echo.GET("/webhooks/youtube", s.handleFeedChallenge)
	s.echo.POST("/webhooks/youtube", s.handleFeedNotification)

	if s.sinkHandler != nil {
		s.echo.GET("/events", echo.WrapHandler(s.sinkHandler))
	}
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// correlationMiddleware stamps every request context with a fresh ID so
// all log lines from one delivery can be tied together.
func correlationMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := correlation.WithID(req.Context(), correlation.NewID())
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.InfoContext(c.Request().Context(), "Request", attrs...)
			return nil
		},
	})
}
