package storage

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/campusbook/auth/internal/gormw"
	"github.com/campusbook/auth/internal/models"
)

var (
	logger = log.With().Str("component", "storage").Logger()

	// ErrRotationConflict is returned when the token being rotated was
	// removed by a concurrent revocation before the rotation committed.
	ErrRotationConflict = errors.New("refresh token removed during rotation")
)

const (
	// 32 bytes of entropy per token, well above the 128-bit floor.
	tokenRawSize = 32

	createAttempts = 3
)

func newTokenValue() (string, error) {
	raw := make([]byte, tokenRawSize)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// CreateRefreshToken mints and persists a new refresh token for the user.
// A duplicate-key insert means the generated value collided with a live
// token; retry with fresh randomness rather than ever reusing a value.
func CreateRefreshToken(db *gormw.DB, user *models.User, validity time.Duration) (*models.RefreshToken, error) {
	now := time.Now()

	for i := 0; i < createAttempts; i++ {
		value, err := newTokenValue()
		if err != nil {
			return nil, fmt.Errorf("failed to generate refresh token: %w", err)
		}

		token := &models.RefreshToken{
			Token:     value,
			UserID:    user.ID,
			CreatedAt: now,
			ExpiresAt: now.Add(validity),
		}

		err = db.Create(token).Error
		if err == nil {
			token.User = *user
			return token, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		logger.Warn().Uint("user_id", user.ID).Msg("Refresh token collision, regenerating")
	}

	return nil, errors.New("failed to generate a unique refresh token")
}

// GetRefreshTokenByValue is a point lookup on the primary-key column with
// the owning user loaded eagerly; callers always need the owner next.
func GetRefreshTokenByValue(db *gormw.DB, value string) (*models.RefreshToken, error) {
	o := &models.RefreshToken{}
	err := db.Joins("User").Where("refresh_tokens.token = ?", value).First(o).Error
	return o, err
}

// DeleteRefreshToken removes a token by value. Deleting an absent token
// is not an error.
func DeleteRefreshToken(db *gormw.DB, value string) error {
	return db.Where("token = ?", value).Delete(&models.RefreshToken{}).Error
}

// ListRefreshTokensForUser returns every live refresh token the user owns.
func ListRefreshTokensForUser(db *gormw.DB, userID uint) ([]models.RefreshToken, error) {
	var list []models.RefreshToken
	err := db.Where("user_id = ?", userID).Find(&list).Error
	return list, err
}

// DeleteRefreshTokensForUser revokes every refresh token the user owns.
func DeleteRefreshTokensForUser(db *gormw.DB, userID uint) error {
	return db.Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error
}

// RotateRefreshToken replaces old with a freshly minted token for the same
// owner. The insert and the delete commit together: if a concurrent logout
// already removed the old row the whole rotation aborts, so a revoked
// session cannot be resurrected. If the process dies before commit the old
// token stays valid, which beats leaving the user with none.
func RotateRefreshToken(db *gormw.DB, old *models.RefreshToken, validity time.Duration) (*models.RefreshToken, error) {
	var fresh *models.RefreshToken

	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		fresh, err = CreateRefreshToken(&gormw.DB{DB: tx}, &old.User, validity)
		if err != nil {
			return err
		}

		res := tx.Where("token = ?", old.Token).Delete(&models.RefreshToken{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRotationConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return fresh, nil
}

// Expired tokens are deleted on touch, but a token nobody presents again
// would sit in the table forever without a cleaner.
func RegisterRefreshTokensCleaner(scheduler gocron.Scheduler, db *gormw.DB) {
	_, _ = scheduler.NewJob(
		gocron.CronJob(
			// 4am Daily
			"0 4 * * *",
			false,
		),
		gocron.NewTask(
			func() {
				logger.Info().Msg("Cleaning up expired refresh tokens")
				yesterday := time.Now().AddDate(0, 0, -1)
				db.Where("expires_at < ?", yesterday).Delete(&models.RefreshToken{})
			},
		),
	)
}
