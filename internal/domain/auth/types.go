package auth

import "time"

// Config drives token verification.
type Config struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

// Claims are extracted from the JWT token.
type Claims struct {
	UserID         string
	Name           string
	Email          string
	Level          int
	BusinessNumber string
	ExpiresAt      time.Time
}

// Identity is the user an access token is issued for.
type Identity struct {
	UserID         string
	Name           string
	Email          string
	Level          int
	BusinessNumber string
}
