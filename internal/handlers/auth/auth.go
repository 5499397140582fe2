// Package auth implements the session protocol: signup, login, refresh
// and logout, plus the bearer-token guard for protected routes.
package auth

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/campusbook/auth/internal/gormw"
	"github.com/campusbook/auth/internal/storage"
	"github.com/campusbook/auth/internal/tokens"
)

var (
	logger = log.With().Str("component", "auth").Logger()
)

const refreshCookieName = "refreshToken"

type Config struct {
	Tokens tokens.Config `yaml:"tokens"`

	// RefreshTokenValidityDays is how long a refresh token lives before
	// it must be re-obtained through login.
	RefreshTokenValidityDays int `yaml:"refresh_token_validity_days"`

	// CookieSecure must be true in any deployment serving HTTPS.
	CookieSecure bool `yaml:"cookie_secure"`
}

func (c *Config) Validate() {
	c.Tokens.Validate()

	if c.RefreshTokenValidityDays <= 0 {
		c.RefreshTokenValidityDays = 7
	}
}

type Service struct {
	config *Config
	db     *gormw.DB

	signer  *tokens.Signer
	rotated *storage.RotatedTokenCache
}

func NewService(config *Config, db *gormw.DB) *Service {
	signer, err := tokens.NewSigner(&config.Tokens)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create token signer")
	}

	return &Service{
		config:  config,
		db:      db,
		signer:  signer,
		rotated: storage.NewRotatedTokenCache(),
	}
}

func (s *Service) refreshTokenValidity() time.Duration {
	return time.Duration(s.config.RefreshTokenValidityDays) * 24 * time.Hour
}

func (s *Service) RegisterHandlers(rg *gin.RouterGroup) {
	api := rg.Group("/api/auth")
	{
		api.POST("/signup", s.handleSignup)
		api.POST("/login", s.handleLogin)
		api.GET("/refresh", s.handleRefresh)
		api.POST("/logout", s.handleLogout)

		// Resource servers verify access tokens against this key set.
		api.GET("/.well-known/jwks.json", s.handleJWKS)

		api.GET("/me", s.RequireAuth(), s.handleMe)
	}
}
