package models

import "github.com/golang-jwt/jwt/v5"

// Scopes recognised by the metric API.
const (
	ScopeMetricsRead  = "metrics:read"
	ScopeMetricsAdmin = "metrics:admin"
)

// JWTClaims represents the JWT payload for access tokens issued by the
// external identity provider.
type JWTClaims struct {
	UserID string   `json:"user_id"`
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

// HasScope reports whether the token carries the requested scope.
func (c *JWTClaims) HasScope(scope string) bool {
	if c == nil {
		return false
	}
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}
