package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mainmast/fleet-ledger/internal/models"
)

func TestNewService(t *testing.T) {
	service := NewService("test-secret", time.Hour)
	assert.NotNil(t, service)
	assert.Equal(t, []byte("test-secret"), service.jwtSecret)
	assert.Equal(t, time.Hour, service.tokenExp)
}

func TestNewService_Defaults(t *testing.T) {
	service := NewService("", 0)
	assert.NotEmpty(t, service.jwtSecret)
	assert.Equal(t, 24*time.Hour, service.tokenExp)
}

func TestService_HashSecret(t *testing.T) {
	service := NewService("test-secret", time.Hour)

	secret := "testpassword123"
	hash, err := service.HashSecret(secret)

	assert.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, secret, hash)
}

func TestService_CheckSecret(t *testing.T) {
	service := NewService("test-secret", time.Hour)

	secret := "testpassword123"
	hash, _ := service.HashSecret(secret)

	assert.True(t, service.CheckSecret(secret, hash))
	assert.False(t, service.CheckSecret("wrongpassword", hash))
}

func TestService_GenerateToken(t *testing.T) {
	service := NewService("test-secret", time.Hour)

	session := models.Session{
		Identity:     "ka01ab1234@logifi.com",
		Role:         models.RoleDriver,
		VehiclePlate: "KA01AB1234",
	}

	token, err := service.GenerateToken(session)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestService_ValidateToken(t *testing.T) {
	service := NewService("test-secret", time.Hour)

	session := models.Session{
		Identity:     "ka01ab1234@logifi.com",
		Role:         models.RoleDriver,
		VehiclePlate: "KA01AB1234",
	}

	token, _ := service.GenerateToken(session)

	// Test valid token
	claims, err := service.ValidateToken(token)
	assert.NoError(t, err)
	assert.NotNil(t, claims)
	assert.Equal(t, session.Identity, claims.Identity)
	assert.Equal(t, session.Role, claims.Role)
	assert.Equal(t, session.VehiclePlate, claims.VehiclePlate)
	assert.Equal(t, session, claims.Session())

	// Test invalid token
	_, err = service.ValidateToken("invalid-token")
	assert.Error(t, err)
	assert.Equal(t, ErrInvalidToken, err)

	// Test token with Bearer prefix
	_, err = service.ValidateToken("Bearer " + token)
	assert.NoError(t, err)
}

func TestService_ValidateToken_Expired(t *testing.T) {
	service := NewService("test-secret", -time.Minute)

	session := models.Session{Identity: "admin@mainmast.com", Role: models.RoleAdmin}
	token, err := service.GenerateToken(session)
	assert.NoError(t, err)

	_, err = service.ValidateToken(token)
	assert.Equal(t, ErrExpiredToken, err)
}

func TestService_ValidateToken_WrongSecret(t *testing.T) {
	service := NewService("test-secret", time.Hour)
	other := NewService("other-secret", time.Hour)

	session := models.Session{Identity: "admin@mainmast.com", Role: models.RoleAdmin}
	token, _ := service.GenerateToken(session)

	_, err := other.ValidateToken(token)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestService_ExtractTokenFromHeader(t *testing.T) {
	service := NewService("test-secret", time.Hour)

	// Test valid header
	token := "valid-token"
	extracted, err := service.ExtractTokenFromHeader("Bearer " + token)
	assert.NoError(t, err)
	assert.Equal(t, token, extracted)

	// Test empty header
	_, err = service.ExtractTokenFromHeader("")
	assert.Error(t, err)
	assert.Equal(t, ErrInvalidToken, err)

	// Test invalid format
	_, err = service.ExtractTokenFromHeader("InvalidFormat")
	assert.Error(t, err)
	assert.Equal(t, ErrInvalidToken, err)

	// Test missing token
	_, err = service.ExtractTokenFromHeader("Bearer ")
	assert.Error(t, err)
	assert.Equal(t, ErrInvalidToken, err)
}

func TestService_ValidatePassword(t *testing.T) {
	service := NewService("test-secret", time.Hour)

	assert.NoError(t, service.ValidatePassword("validpassword123"))
	assert.Error(t, service.ValidatePassword("short"))
}
