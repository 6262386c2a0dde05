package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// HeaderAPIKey is the header clients authenticate with.
const HeaderAPIKey = "X-Api-Key"

// APIKey returns middleware that rejects requests whose X-Api-Key header does
// not match key. Comparison is constant-time.
func APIKey(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			got := c.Request().Header.Get(HeaderAPIKey)
			if subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				return c.JSON(http.StatusUnauthorized, map[string]interface{}{
					"status":  http.StatusUnauthorized,
					"message": "Unauthorized",
				})
			}
			return next(c)
		}
	}
}
