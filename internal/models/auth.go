package models

import "github.com/golang-jwt/jwt/v5"

// UserRole is the role claim issued by the auth provider.
type UserRole string

const (
	RoleOwner  UserRole = "owner"
	RoleAdmin  UserRole = "admin"
	RoleBarber UserRole = "barber"
	RoleClient UserRole = "client"
)

// JWTClaims is the access token payload. Tokens are issued by the external
// auth provider; this service only validates them.
type JWTClaims struct {
	UserID  string   `json:"user_id"`
	Role    UserRole `json:"role"`
	StaffID string   `json:"staff_id,omitempty"`
	jwt.RegisteredClaims
}

// Identity returns the user id, falling back to the subject claim.
func (c *JWTClaims) Identity() string {
	if c == nil {
		return ""
	}
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}
