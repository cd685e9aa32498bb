package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// APIKey guards the admin read surface with a static key. Operator
// authentication proper is out of scope; this only keeps the projections
// off the open internet.
func APIKey(apiKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if apiKey == "" {
				return echo.NewHTTPError(http.StatusServiceUnavailable, "admin api key not configured")
			}

			provided := c.Request().Header.Get("X-Api-Key")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid api key")
			}

			return next(c)
		}
	}
}
