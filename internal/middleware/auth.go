package middleware

import (
	"net/http"
	"strings"

	"kantong/internal/util"

	"github.com/gin-gonic/gin"
)

// Context keys set by the middleware and handlers.
const (
	GatewayKey  = "gateway"
	ChatUserKey = "chatUser"
)

// tokenFrom reads the bearer token from the Authorization header, then the
// ?token= query parameter (file downloads), then the kt_token cookie.
func tokenFrom(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		parts := strings.SplitN(h, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if t := c.Query("token"); t != "" {
		return t
	}
	if cookie, err := c.Cookie("kt_token"); err == nil {
		return cookie
	}
	return ""
}

// AuthMiddleware accepts requests carrying a gateway token signed with
// secret and puts the gateway name in the context.
func AuthMiddleware(secret, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			util.AbortError(c, http.StatusServiceUnavailable, util.CodeAuth, "auth secret is not configured")
			return
		}
		tokenStr := tokenFrom(c)
		if tokenStr == "" {
			util.AbortError(c, http.StatusUnauthorized, util.CodeAuth, "missing token")
			return
		}
		claims, err := util.ParseToken(secret, issuer, tokenStr)
		if err != nil {
			util.AbortError(c, http.StatusUnauthorized, util.CodeAuth, "invalid or expired token")
			return
		}
		c.Set(GatewayKey, claims.Gateway)
		c.Next()
	}
}
