package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campusbook/auth/internal/tokens"
)

const claimsContextKey = "auth.claims"

// RequireAuth guards routes that need a valid access token. Verified
// claims are stashed in the request context for the handler.
func (s *Service) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		value, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || value == "" {
			authFailure(c, http.StatusUnauthorized, "No access token provided")
			c.Abort()
			return
		}

		claims, err := s.signer.Verify(value)
		if err != nil {
			if errors.Is(err, tokens.ErrTokenExpired) {
				authFailure(c, http.StatusUnauthorized, "Access token expired")
			} else {
				authFailure(c, http.StatusUnauthorized, "Invalid access token")
			}
			c.Abort()
			return
		}

		c.Set(claimsContextKey, claims)
		c.Next()
	}
}

// ClaimsFromContext returns the claims RequireAuth stored, or nil when
// the route was not guarded.
func ClaimsFromContext(c *gin.Context) *tokens.Claims {
	v, ok := c.Get(claimsContextKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*tokens.Claims)
	return claims
}
