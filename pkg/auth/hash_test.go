package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	hashService := &HashService{Cost: bcrypt.MinCost}

	tests := []struct {
		name          string
		password      string
		expectedError error
	}{
		{
			name:     "Valid password",
			password: "securepassword",
		},
		{
			name:          "Empty password",
			password:      "",
			expectedError: ErrEmptyPassword,
		},
		{
			name:          "Password longer than bcrypt input",
			password:      strings.Repeat("a", maxPasswordBytes+1),
			expectedError: ErrPasswordTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hashedPassword, err := hashService.HashPassword(tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, hashedPassword)
				return
			}
			assert.NoError(t, err)
			cost, err := bcrypt.Cost([]byte(hashedPassword))
			assert.NoError(t, err)
			assert.Equal(t, bcrypt.MinCost, cost)
		})
	}
}

func TestHashPassword_DefaultCost(t *testing.T) {
	hashed, err := (&HashService{}).HashPassword("securepassword")
	assert.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hashed))
	assert.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}

func TestComparePassword(t *testing.T) {
	hashService := &HashService{Cost: bcrypt.MinCost}
	hashed, err := hashService.HashPassword("securepassword")
	assert.NoError(t, err)

	tests := []struct {
		name           string
		password       string
		hashedPassword string
		expectMatch    bool
	}{
		{
			name:           "Matching password",
			password:       "securepassword",
			hashedPassword: hashed,
			expectMatch:    true,
		},
		{
			name:           "Non-matching password",
			password:       "wrongpassword",
			hashedPassword: hashed,
		},
		{
			name:     "Missing hash",
			password: "securepassword",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectMatch, hashService.ComparePassword(tt.hashedPassword, tt.password))
		})
	}
}
