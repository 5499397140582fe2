package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/campusbook/auth/internal/storage"
)

type logoutParams struct {
	Email string `json:"email" binding:"required"`
}

func (s *Service) handleLogout(c *gin.Context) {
	params := &logoutParams{}

	if err := c.ShouldBindJSON(params); err != nil {
		c.String(http.StatusBadRequest, "Missing required parameters")
		return
	}

	user, err := storage.GetUserByUsername(s.db, params.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			authFailure(c, http.StatusNotFound, "User not found")
			return
		}
		logger.Error().Err(err).Msg("Database error during logout")
		c.String(http.StatusInternalServerError, "Database error")
		return
	}

	// Feed the replay cache before the bulk delete so a revoked cookie
	// presented later is logged as a replay.
	revoked, err := storage.ListRefreshTokensForUser(s.db, user.ID)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list refresh tokens during logout")
	}

	if err := storage.DeleteRefreshTokensForUser(s.db, user.ID); err != nil {
		logger.Error().Err(err).Msg("Failed to revoke refresh tokens")
		c.String(http.StatusInternalServerError, "Failed to revoke refresh tokens")
		return
	}

	for _, t := range revoked {
		s.rotated.Add(t.Token)
	}

	// Logging out with no active session is still a success.
	s.clearRefreshCookie(c)

	c.JSON(http.StatusOK, gin.H{
		"message":         "Logged out",
		"isAuthenticated": false,
	})
}
