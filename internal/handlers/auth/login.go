package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/campusbook/auth/internal/storage"
)

type loginParams struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Service) handleLogin(c *gin.Context) {
	params := &loginParams{}

	if err := c.ShouldBindJSON(params); err != nil {
		c.String(http.StatusBadRequest, "Missing required parameters")
		return
	}

	user, err := storage.GetUserByUsername(s.db, params.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same message as a wrong password, so responses do not
			// reveal which emails have accounts.
			logger.Info().Str("email", params.Email).Msg("Login for unknown user")
			authFailure(c, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		logger.Error().Err(err).Msg("Database error during login")
		c.String(http.StatusInternalServerError, "Database error")
		return
	}

	if !user.CheckPassword(params.Password) {
		logger.Info().Str("email", params.Email).Msg("Login with wrong password")
		authFailure(c, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	accessToken, err := s.signer.Issue(user.Username, user.Role)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to issue access token")
		c.String(http.StatusInternalServerError, "Failed to issue access token")
		return
	}

	refreshToken, err := storage.CreateRefreshToken(s.db, user, s.refreshTokenValidity())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create refresh token")
		c.String(http.StatusInternalServerError, "Failed to create refresh token")
		return
	}

	s.setRefreshCookie(c, refreshToken.Token)

	c.JSON(http.StatusOK, gin.H{
		"accessToken":     accessToken,
		"fullName":        user.FullName,
		"email":           user.Username,
		"role":            user.Role,
		"isAuthenticated": true,
		"user_id":         user.ID,
	})
}

// The refresh token travels only in an HttpOnly cookie, never in a JSON
// body, so client script cannot read it.
func (s *Service) setRefreshCookie(c *gin.Context, value string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, value, int(s.refreshTokenValidity().Seconds()), "/", "", s.config.CookieSecure, true)
}

func (s *Service) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, "", -1, "/", "", s.config.CookieSecure, true)
}
