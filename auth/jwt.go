// Package auth turns a Neon Auth JWT into the display name shown on the score board.
package auth

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates EdDSA tokens issued by one Neon Auth instance.
type Verifier struct {
	issuer  string
	keyfunc jwt.Keyfunc
}

// NewVerifier fetches the JWKS of baseURL (e.g. from NEON_AUTH_BASE_URL). The key set
// is refreshed in the background for the life of the process.
func NewVerifier(baseURL string) (*Verifier, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("NEON_AUTH_BASE_URL is not set")
	}
	issuer, err := issuerOf(baseURL)
	if err != nil {
		return nil, err
	}
	jwks, err := keyfunc.NewDefault([]string{strings.TrimRight(baseURL, "/") + "/.well-known/jwks.json"})
	if err != nil {
		return nil, err
	}
	return &Verifier{issuer: issuer, keyfunc: jwks.Keyfunc}, nil
}

func issuerOf(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	return u.Scheme + "://" + u.Host, nil
}

// Validate parses tokenString and returns its claims.
func (v *Verifier) Validate(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, v.keyfunc,
		jwt.WithIssuer(v.issuer),
		jwt.WithValidMethods([]string{"EdDSA"}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// DisplayNameFromClaims returns the first word of the "name" claim cut to max runes,
// or "" when the claim is missing.
func DisplayNameFromClaims(claims jwt.MapClaims, max int) string {
	name, _ := claims["name"].(string)
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return ""
	}
	first := parts[0]
	if max > 0 && utf8.RuneCountInString(first) > max {
		first = string([]rune(first)[:max])
	}
	return first
}

// UserIDFromClaims returns the user id from claims ("sub" or "id").
func UserIDFromClaims(claims jwt.MapClaims) string {
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub
	}
	if id, ok := claims["id"].(string); ok && id != "" {
		return id
	}
	return ""
}
