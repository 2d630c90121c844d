package server

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var errMissingExpiry = errors.New("token has no exp claim")

type tokenClaims struct {
	Subject   string
	Email     string
	Scopes    []string
	ExpiresAt time.Time
}

// decodeClaims reads the claims of token WITHOUT verifying its signature. It
// must only be called on a token the identity provider has just accepted.
func decodeClaims(token string) (*tokenClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token claims: %w", err)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("invalid exp claim: %w", err)
	}
	if exp == nil {
		return nil, errMissingExpiry
	}

	sub, _ := claims.GetSubject()
	email, _ := claims["email"].(string)

	scopes := scopeList(claims["scopes"])
	if len(scopes) == 0 {
		scopes = scopeList(claims["scope"])
	}

	return &tokenClaims{
		Subject:   sub,
		Email:     email,
		Scopes:    scopes,
		ExpiresAt: exp.Time,
	}, nil
}

// scopeList accepts a JSON array of strings or a space separated string.
func scopeList(v any) []string {
	var out []string
	switch s := v.(type) {
	case string:
		out = strings.Fields(s)
	case []any:
		for _, item := range s {
			if str, ok := item.(string); ok && str != "" {
				out = append(out, str)
			}
		}
	case []string:
		out = append(out, s...)
	}

	slices.Sort(out)
	return slices.Compact(out)
}
