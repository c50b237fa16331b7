package validation_test

import (
	"errors"
	"testing"

	"authd/internal/auth"
	"authd/internal/models"
	"authd/internal/validation"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

func newValidator(t *testing.T) *validator.Validate {
	t.Helper()
	v := validator.New()
	v.SetTagName("binding")
	require.NoError(t, validation.Register(v))
	return v
}

func strPtr(s string) *string {
	return &s
}

func TestRegisterRequestValidation(t *testing.T) {
	v := newValidator(t)

	valid := func() models.RegisterRequest {
		return models.RegisterRequest{
			Email:     "example@gmail.com",
			Password:  "Strongpassword1@",
			FirstName: "John",
			Code:      123456,
		}
	}

	tests := []struct {
		name    string
		mutate  func(r *models.RegisterRequest)
		wantMsg string
	}{
		{
			name:   "Valid",
			mutate: func(r *models.RegisterRequest) {},
		},
		{
			name:   "Valid With Last Name",
			mutate: func(r *models.RegisterRequest) { r.LastName = strPtr("Doe") },
		},
		{
			name:    "Invalid Email",
			mutate:  func(r *models.RegisterRequest) { r.Email = "not-an-email" },
			wantMsg: auth.ErrInvalidEmail.Error(),
		},
		{
			name:    "Weak Password",
			mutate:  func(r *models.RegisterRequest) { r.Password = "weakpassword" },
			wantMsg: auth.ErrWeakPassword.Error(),
		},
		{
			name:    "Short First Name",
			mutate:  func(r *models.RegisterRequest) { r.FirstName = "J" },
			wantMsg: "FirstName must be at least 2 characters long",
		},
		{
			name:    "Short Last Name",
			mutate:  func(r *models.RegisterRequest) { r.LastName = strPtr("D") },
			wantMsg: "LastName must be at least 2 characters long",
		},
		{
			name:    "Missing Code",
			mutate:  func(r *models.RegisterRequest) { r.Code = 0 },
			wantMsg: "Code is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)

			err := v.Struct(req)
			if tt.wantMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.Equal(t, tt.wantMsg, validation.Message(err))
		})
	}
}

func TestLoginRequestValidation(t *testing.T) {
	v := newValidator(t)

	tests := []struct {
		name    string
		req     models.LoginRequest
		wantMsg string
	}{
		{
			name: "Valid Without Strength Rules",
			req:  models.LoginRequest{Email: "Example@Gmail.com", Password: "lowercase"},
		},
		{
			name:    "Short Password",
			req:     models.LoginRequest{Email: "example@gmail.com", Password: "short"},
			wantMsg: "Password must be at least 8 characters long",
		},
		{
			name:    "Missing Email",
			req:     models.LoginRequest{Password: "password123"},
			wantMsg: "Email is required",
		},
		{
			name:    "No TLD",
			req:     models.LoginRequest{Email: "example@gmail", Password: "password123"},
			wantMsg: auth.ErrInvalidEmail.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.req)
			if tt.wantMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Equal(t, tt.wantMsg, validation.Message(err))
		})
	}
}

func TestMessage_NonValidationError(t *testing.T) {
	require.Equal(t, "unexpected EOF", validation.Message(errors.New("unexpected EOF")))
}
