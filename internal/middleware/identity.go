package middleware

import (
	"fmt"

	"github.com/labstack/echo/v4"
)

// contextUserKey renders the authenticated user id set by JWTAuth as a
// string for rate limit keys. Unauthenticated requests share the
// "anon" bucket per IP.
func contextUserKey(c echo.Context) string {
	v := c.Get("user_id")
	if v == nil {
		return "anon"
	}
	switch t := v.(type) {
	case string:
		if t == "" {
			return "anon"
		}
		return t
	case float64:
		return fmt.Sprintf("%.0f", t)
	default:
		return fmt.Sprint(t)
	}
}
