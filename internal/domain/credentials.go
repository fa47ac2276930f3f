package domain

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	UsernameMinLength = 3
	UsernameMaxLength = 20
	PasswordMinLength = 6
	PasswordMaxLength = 50
)

// Credentials is a username/password pair as submitted by a client.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ValidateRegistration checks the length limits a new account must meet.
func (c Credentials) ValidateRegistration() error {
	return wrapValidation(validation.ValidateStruct(&c,
		validation.Field(&c.Username,
			validation.Required.Error("username is required"),
			validation.RuneLength(UsernameMinLength, UsernameMaxLength).
				Error(fmt.Sprintf("username must be between %d and %d characters", UsernameMinLength, UsernameMaxLength)),
		),
		validation.Field(&c.Password,
			validation.Required.Error("password is required"),
			validation.RuneLength(PasswordMinLength, PasswordMaxLength).
				Error(fmt.Sprintf("password must be between %d and %d characters", PasswordMinLength, PasswordMaxLength)),
		),
	))
}

// ValidateLogin only requires both fields to be present.
func (c Credentials) ValidateLogin() error {
	return wrapValidation(validation.ValidateStruct(&c,
		validation.Field(&c.Username, validation.Required.Error("username is required")),
		validation.Field(&c.Password, validation.Required.Error("password is required")),
	))
}

// ValidationError reports per-field problems. It matches ErrInvalidInput
// under errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, k := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func wrapValidation(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	fields := make(map[string]string, len(errs))
	for name, fieldErr := range errs {
		fields[name] = fieldErr.Error()
	}
	return &ValidationError{Fields: fields}
}
