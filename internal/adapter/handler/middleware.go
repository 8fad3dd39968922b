package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/invoice-dashboard/internal/adapter/identity"
	"github.com/rl1809/invoice-dashboard/internal/core/domain"
)

type SessionVerifier interface {
	Verify(raw string) (*identity.Claims, error)
}

// RequireSession rejects requests without a valid session token and puts the
// caller's user id on the request context.
func RequireSession(verifier SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := sessionToken(c)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, messageResponse{Message: "authentication required"})
			return
		}

		claims, err := verifier.Verify(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, messageResponse{Message: "invalid session"})
			return
		}

		c.Request = c.Request.WithContext(domain.WithCaller(c.Request.Context(), claims.Subject))
		c.Next()
	}
}

func sessionToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}
