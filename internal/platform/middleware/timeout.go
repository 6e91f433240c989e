package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestTimeout bounds each request with a context deadline. Storage calls
// observe the deadline; when the handler returns after it expired without
// having written a response, the client gets 504 {"error": ...}.
// File downloads stream and are not bounded.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Method == http.MethodGet && strings.TrimSuffix(req.URL.Path, "/") == "/api/v1/files" {
				return next(c)
			}

			ctx, cancel := context.WithTimeout(req.Context(), timeout)
			defer cancel()
			c.SetRequest(req.WithContext(ctx))

			err := next(c)
			if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Response().Committed {
				return c.JSON(http.StatusGatewayTimeout, map[string]string{
					"error": "request exceeded " + timeout.String(),
				})
			}
			return err
		}
	}
}
