package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/campusbook/auth/internal/models"
	"github.com/campusbook/auth/internal/storage"
)

type signupParams struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	DOB      string `json:"dob" binding:"required"`
	Gender   string `json:"gender" binding:"required"`
}

func (s *Service) handleSignup(c *gin.Context) {
	params := &signupParams{}

	if err := c.ShouldBindJSON(params); err != nil {
		c.String(http.StatusBadRequest, "Missing required parameters")
		return
	}

	if err := validateSignup(params); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	// Check if a user with this email already exists.
	_, err := storage.GetUserByUsername(s.db, params.Email)
	if err == nil {
		c.String(http.StatusConflict, "User already exists.")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Error().Err(err).Msg("Error checking email existence")
		c.String(http.StatusInternalServerError, "Database error.")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to hash password")
		c.String(http.StatusInternalServerError, "Error processing registration.")
		return
	}

	newUser := &models.User{
		Username:       params.Email,
		FullName:       params.FullName,
		HashedPassword: string(hashedPassword),
		DateOfBirth:    params.DOB,
		Gender:         params.Gender,
		Role:           models.DefaultRole,
	}

	if err := storage.CreateUser(s.db, newUser); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race against a concurrent signup for the same email.
			c.String(http.StatusConflict, "User already exists.")
			return
		}
		logger.Error().Err(err).Msg("Failed to create user")
		c.String(http.StatusInternalServerError, "Failed to create user.")
		return
	}

	c.String(http.StatusOK, "User registered successfully.")
}
