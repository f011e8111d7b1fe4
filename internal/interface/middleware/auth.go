package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sikshyalaya/backend/pkg/helpers"
	"github.com/sikshyalaya/backend/pkg/response"
)

// Context keys set by Auth.
const (
	CtxUserIDKey   = "userID"
	CtxUserRoleKey = "userRole"
)

// Auth validates the access token and injects the caller's identity into the
// Gin context. The cookie takes precedence; the Authorization header is the
// fallback for non-browser clients.
func Auth(jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			response.Error[any](c, http.StatusUnauthorized, "missing access token", nil)
			c.Abort()
			return
		}
		claims, err := jwt.ParseToken(token)
		if err != nil {
			response.Error[any](c, http.StatusUnauthorized, "invalid access token", err.Error())
			c.Abort()
			return
		}
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxUserRoleKey, claims.Role)
		c.Next()
	}
}

// RequireRoles rejects callers whose role is not in the allow list. Roles are
// flat; there is no implied hierarchy.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role := c.GetString(CtxUserRoleKey)
		if _, ok := allowed[role]; !ok {
			response.Error[any](c, http.StatusForbidden, "insufficient role: "+role, nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(helpers.AccessCookie); err == nil && token != "" {
		return token
	}
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}
