package auth_test

import (
	"strings"
	"testing"

	"authd/internal/auth"

	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		want    string
		wantErr bool
	}{
		{name: "Simple", email: "example@gmail.com", want: "example@gmail.com"},
		{name: "Uppercase Is Lowered", email: "John.Doe@Example.COM", want: "john.doe@example.com"},
		{name: "Plus And Percent", email: "a+b%c_d-e@mail.co.uk", want: "a+b%c_d-e@mail.co.uk"},
		{name: "Subdomain", email: "user@mx.mail.example.org", want: "user@mx.mail.example.org"},
		{name: "Missing At", email: "example.gmail.com", wantErr: true},
		{name: "No TLD", email: "example@gmail", wantErr: true},
		{name: "One Letter TLD", email: "example@gmail.c", wantErr: true},
		{name: "Numeric TLD", email: "example@gmail.123", wantErr: true},
		{name: "Space In Local Part", email: "ex ample@gmail.com", wantErr: true},
		{name: "Invalid Character", email: "ex!ample@gmail.com", wantErr: true},
		{name: "Double At", email: "a@b@gmail.com", wantErr: true},
		{name: "Empty", email: "", wantErr: true},
		{name: "Too Long", email: strings.Repeat("a", 250) + "@x.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.NormalizeEmail(tt.email)
			if tt.wantErr {
				require.ErrorIs(t, err, auth.ErrInvalidEmail)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "Strong", password: "Strongpassword1@"},
		{name: "Exactly Eight", password: "Abcdef1!"},
		{name: "Too Short", password: "Abc1!", wantErr: true},
		{name: "Seven Characters", password: "Abcde1!", wantErr: true},
		{name: "No Uppercase", password: "strongpassword1@", wantErr: true},
		{name: "No Lowercase", password: "STRONGPASSWORD1@", wantErr: true},
		{name: "No Digit", password: "Strongpassword@", wantErr: true},
		{name: "No Symbol", password: "Strongpassword1", wantErr: true},
		{name: "Symbol Outside Set", password: "Strongpassword1_", wantErr: true},
		{name: "Empty", password: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidatePassword(tt.password)
			if tt.wantErr {
				require.ErrorIs(t, err, auth.ErrWeakPassword)
				require.Contains(t, err.Error(), "one uppercase letter, one lowercase letter, one number, and one special character")
				return
			}
			require.NoError(t, err)
		})
	}
}
