package storage

import (
	"github.com/campusbook/auth/internal/gormw"
	"github.com/campusbook/auth/internal/models"
)

func GetUserByUsername(db *gormw.DB, username string) (*models.User, error) {
	user := &models.User{}
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func GetUserByID(db *gormw.DB, id uint) (*models.User, error) {
	user := &models.User{}
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func CreateUser(db *gormw.DB, user *models.User) error {
	return db.Create(user).Error
}
