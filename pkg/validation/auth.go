package validation

import (
	"errors"
	"fmt"
	"regexp"
	"unicode/utf8"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// RegisterInput carries the fields of a registration request
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// AuthRequestValidator validates authentication-related requests
type AuthRequestValidator struct{}

// NewAuthRequestValidator creates a new AuthRequestValidator
func NewAuthRequestValidator() *AuthRequestValidator {
	return &AuthRequestValidator{}
}

// ValidateUsername allows 3-50 letters, digits, underscores and hyphens
func (v *AuthRequestValidator) ValidateUsername(username string) error {
	switch n := len(username); {
	case n == 0:
		return errors.New("username cannot be empty")
	case n < 3:
		return fmt.Errorf("username must be at least 3 characters long, got %d", n)
	case n > 50:
		return fmt.Errorf("username must be at most 50 characters long, got %d", n)
	}
	if !usernamePattern.MatchString(username) {
		return errors.New("username can only contain letters, numbers, underscores, and hyphens")
	}
	return nil
}

// ValidatePassword allows 6-128 bytes. bcrypt ignores anything past 72.
func (v *AuthRequestValidator) ValidatePassword(password string) error {
	switch n := len(password); {
	case n == 0:
		return errors.New("password cannot be empty")
	case n < 6:
		return fmt.Errorf("password must be at least 6 characters long, got %d", n)
	case n > 128:
		return fmt.Errorf("password must be at most 128 characters long, got %d", n)
	}
	return nil
}

// ValidateEmail validates an optional email address
func (v *AuthRequestValidator) ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	if len(email) > 255 {
		return fmt.Errorf("email must be at most 255 characters long, got %d", len(email))
	}
	if !emailPattern.MatchString(email) {
		return errors.New("invalid email format")
	}
	return nil
}

// ValidateName validates an optional display name field
func (v *AuthRequestValidator) ValidateName(field, name string) error {
	if n := utf8.RuneCountInString(name); n > 100 {
		return fmt.Errorf("%s must be at most 100 characters long, got %d", field, n)
	}
	return nil
}

// ValidateLoginRequest validates a login request
func (v *AuthRequestValidator) ValidateLoginRequest(username, password string) error {
	if username == "" {
		return errors.New("username cannot be empty")
	}
	if password == "" {
		return errors.New("password cannot be empty")
	}
	return nil
}

// ValidateRegisterRequest validates a registration request
func (v *AuthRequestValidator) ValidateRegisterRequest(in RegisterInput) error {
	if err := v.ValidateUsername(in.Username); err != nil {
		return err
	}
	if err := v.ValidateEmail(in.Email); err != nil {
		return err
	}
	if err := v.ValidatePassword(in.Password); err != nil {
		return err
	}
	if err := v.ValidateName("firstName", in.FirstName); err != nil {
		return err
	}
	return v.ValidateName("lastName", in.LastName)
}
