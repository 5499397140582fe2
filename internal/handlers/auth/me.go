package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/campusbook/auth/internal/storage"
)

// handleMe returns the profile of the authenticated user. The refresh
// response deliberately omits this payload; clients that lost their
// state fetch it here with a valid access token.
func (s *Service) handleMe(c *gin.Context) {
	claims := ClaimsFromContext(c)
	if claims == nil {
		authFailure(c, http.StatusUnauthorized, "No access token provided")
		return
	}

	user, err := storage.GetUserByUsername(s.db, claims.Subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Token subject no longer exists; account was removed.
			authFailure(c, http.StatusUnauthorized, "Invalid access token")
			return
		}
		logger.Error().Err(err).Msg("Database error during profile lookup")
		c.String(http.StatusInternalServerError, "Database error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"fullName":        user.FullName,
		"email":           user.Username,
		"role":            user.Role,
		"dob":             user.DateOfBirth,
		"gender":          user.Gender,
		"isAuthenticated": true,
		"user_id":         user.ID,
	})
}

// handleJWKS returns the JSON Web Key Set for access token verification.
func (s *Service) handleJWKS(c *gin.Context) {
	jwks := map[string]interface{}{
		"keys": []interface{}{s.signer.PublicKey()},
	}
	c.JSON(http.StatusOK, jwks)
}
