package jwt

import (
	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Claims is the subset of a session token payload the portal looks at.
type Claims struct {
	Phone string `json:"phone,omitempty"`
	City  string `json:"city,omitempty"`
	jwtlib.RegisteredClaims
}

// ensure Claims implements jwtlib.Claims interface
var _ jwtlib.Claims = (*Claims)(nil)
