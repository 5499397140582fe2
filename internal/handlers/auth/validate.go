package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/badoux/checkmail"
	"github.com/hashicorp/go-set/v3"
)

var allowedGenders = set.From([]string{"male", "female", "other", "m", "f", "o"})

func validatePassword(password string) error {
	if len(password) < 8 {
		return errors.New("Password must be at least 8 characters long.")
	}
	return nil
}

func validateSignup(params *signupParams) error {
	if err := checkmail.ValidateFormat(params.Email); err != nil {
		return errors.New("Invalid email format.")
	}

	if err := validatePassword(params.Password); err != nil {
		return err
	}

	if !allowedGenders.Contains(strings.ToLower(params.Gender)) {
		return errors.New("Invalid gender value.")
	}

	if _, err := time.Parse("2006-01-02", params.DOB); err != nil {
		return errors.New("Invalid date of birth, expected YYYY-MM-DD.")
	}

	return nil
}
