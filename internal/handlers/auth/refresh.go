package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/campusbook/auth/internal/storage"
)

func (s *Service) handleRefresh(c *gin.Context) {
	value, err := c.Cookie(refreshCookieName)
	if err != nil || value == "" {
		authFailure(c, http.StatusUnauthorized, "No refresh token provided")
		return
	}

	old, err := storage.GetRefreshTokenByValue(s.db, value)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if s.rotated.Seen(value) {
				// A rotated or revoked token came back; a stolen cookie
				// or a badly behaving client.
				logger.Warn().Msg("Replay of an invalidated refresh token")
			}
			authFailure(c, http.StatusForbidden, "Invalid refresh token")
			return
		}
		logger.Error().Err(err).Msg("Database error during refresh token lookup")
		c.String(http.StatusInternalServerError, "Database error")
		return
	}

	if old.Expired(time.Now()) {
		// Self-cleaning: expired tokens are removed the moment they are
		// presented.
		if err := storage.DeleteRefreshToken(s.db, old.Token); err != nil {
			logger.Error().Err(err).Msg("Failed to delete expired refresh token")
		}
		s.rotated.Add(old.Token)
		authFailure(c, http.StatusForbidden, "Expired refresh token")
		return
	}

	fresh, err := storage.RotateRefreshToken(s.db, old, s.refreshTokenValidity())
	if err != nil {
		if errors.Is(err, storage.ErrRotationConflict) {
			// A logout revoked the token while we were rotating it.
			authFailure(c, http.StatusForbidden, "Invalid refresh token")
			return
		}
		logger.Error().Err(err).Msg("Failed to rotate refresh token")
		c.String(http.StatusInternalServerError, "Failed to rotate refresh token")
		return
	}
	s.rotated.Add(old.Token)

	accessToken, err := s.signer.Issue(old.User.Username, old.User.Role)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to issue access token")
		c.String(http.StatusInternalServerError, "Failed to issue access token")
		return
	}

	s.setRefreshCookie(c, fresh.Token)

	// No profile payload here; the client already has it from login.
	c.JSON(http.StatusOK, gin.H{
		"newAccessToken": accessToken,
	})
}
