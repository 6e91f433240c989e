package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// UploadPath receives multipart patient images and gets its own body limit.
const UploadPath = "/api/v1/files"

func isUpload(c echo.Context) bool {
	return c.Request().Method == http.MethodPost &&
		strings.TrimSuffix(c.Request().URL.Path, "/") == UploadPath
}

// BodyLimit caps request bodies at defaultLimit, or uploadLimit for image
// uploads. Limits use echo's notation ("4M", "512K"). Oversized bodies fail
// with 413.
func BodyLimit(defaultLimit, uploadLimit string) echo.MiddlewareFunc {
	uploads := echomw.BodyLimitWithConfig(echomw.BodyLimitConfig{
		Limit:   uploadLimit,
		Skipper: func(c echo.Context) bool { return !isUpload(c) },
	})
	others := echomw.BodyLimitWithConfig(echomw.BodyLimitConfig{
		Limit:   defaultLimit,
		Skipper: isUpload,
	})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return uploads(others(next))
	}
}
