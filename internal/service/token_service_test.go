package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/barbershop-api/internal/models"
	appErrors "github.com/noah-isme/barbershop-api/pkg/errors"
)

func signToken(t *testing.T, method jwt.SigningMethod, secret string, claims models.JWTClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func barberClaims(issuer string, expires time.Time) models.JWTClaims {
	return models.JWTClaims{
		UserID:  "user-1",
		Role:    models.RoleBarber,
		StaffID: "staff-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
}

func TestTokenServiceValidateToken(t *testing.T) {
	svc := NewTokenService("secret", "auth.barbershop")
	token := signToken(t, jwt.SigningMethodHS256, "secret", barberClaims("auth.barbershop", time.Now().Add(time.Hour)))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleBarber, claims.Role)
	assert.Equal(t, "staff-1", claims.StaffID)
	assert.Equal(t, "user-1", claims.Identity())
}

func TestTokenServiceRejectsBadTokens(t *testing.T) {
	svc := NewTokenService("secret", "auth.barbershop")
	future := time.Now().Add(time.Hour)

	cases := map[string]string{
		"wrong secret":    signToken(t, jwt.SigningMethodHS256, "other", barberClaims("auth.barbershop", future)),
		"wrong issuer":    signToken(t, jwt.SigningMethodHS256, "secret", barberClaims("elsewhere", future)),
		"expired":         signToken(t, jwt.SigningMethodHS256, "secret", barberClaims("auth.barbershop", time.Now().Add(-time.Minute))),
		"other algorithm": signToken(t, jwt.SigningMethodHS512, "secret", barberClaims("auth.barbershop", future)),
		"garbage":         "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
		})
	}

	roleless := barberClaims("auth.barbershop", future)
	roleless.Role = ""
	_, err := svc.ValidateToken(signToken(t, jwt.SigningMethodHS256, "secret", roleless))
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestTokenServiceWithoutIssuer(t *testing.T) {
	svc := NewTokenService("secret", "")
	token := signToken(t, jwt.SigningMethodHS256, "secret", barberClaims("anyone", time.Now().Add(time.Hour)))

	_, err := svc.ValidateToken(token)
	assert.NoError(t, err)
}
