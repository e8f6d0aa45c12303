package models

import "github.com/golang-jwt/jwt/v5"

// IdentityClaims is what the auth collaborator signs into an access token.
// The core only verifies the signature and reads the subject; it never mints
// tokens.
type IdentityClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}
