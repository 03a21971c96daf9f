package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role mirrors the role claim stamped by the auth provider.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsValid checks the role against the known set.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// AccessTokenClaims represents the typed JWT the auth provider issues to
// NestTask clients. The edge only verifies; it never mints production tokens.
type AccessTokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   Role      `json:"role"`
	jwt.RegisteredClaims
}
