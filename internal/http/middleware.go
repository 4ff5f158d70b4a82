package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/anchorword/internal/platform"
)

const (
	// UserHeader carries the player's session as set by the fronting proxy.
	UserHeader    = "X-Anchor-User"
	AdminHeader   = "X-Admin-Token"
	userKey       = "username"
	anonymousUser = platform.Anonymous
)

// IdentityMiddleware resolves the player and stores the username on the
// context.
func IdentityMiddleware(users platform.UserDirectory) gin.HandlerFunc {
	return func(c *gin.Context) {
		username, err := users.Username(c.Request.Context(), c.GetHeader(UserHeader))
		if err != nil {
			abortError(c, http.StatusBadRequest, "InvalidUser", "Invalid user")
			return
		}
		c.Set(userKey, username)
		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	return c.GetString(userKey)
}

// AdminAuthMiddleware checks the X-Admin-Token header. With no token
// configured every admin request is refused.
func AdminAuthMiddleware(token func() string) gin.HandlerFunc {
	return func(c *gin.Context) {
		required := token()
		if required == "" {
			abortError(c, http.StatusForbidden, "Forbidden", "Forbidden: admin access is disabled")
			return
		}

		supplied := c.GetHeader(AdminHeader)
		if supplied == "" {
			abortError(c, http.StatusUnauthorized, "Unauthorized", "Unauthorized: Admin token required")
			return
		}
		if subtle.ConstantTimeCompare([]byte(supplied), []byte(required)) != 1 {
			abortError(c, http.StatusForbidden, "Forbidden", "Forbidden: Invalid admin token")
			return
		}
		c.Next()
	}
}

// SecurityHeadersMiddleware adds basic security headers. The API serves no
// HTML so the CSP locks everything down.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		c.Next()
	}
}
