package models

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultRole is assigned to every user at signup. Role changes are
// handled by out-of-scope admin flows.
const DefaultRole = "student"

type User struct {
	gorm.Model
	Username       string `gorm:"uniqueIndex"` // the user's email address
	FullName       string
	HashedPassword string
	DateOfBirth    string
	Gender         string
	Role           string
}

func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password)) == nil
}
