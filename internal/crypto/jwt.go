package crypto

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token has expired")
)

// Claims are the fields the portal reads from a backend session token.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Expiry returns the exp claim, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// ParseSessionToken reads the claims of a token issued by the auth backend.
// With an empty secret the signature is not checked; with a secret the token
// must carry a valid HMAC signature. A well-formed token whose exp is in the
// past yields its claims together with ErrTokenExpired.
func ParseSessionToken(tokenString, secret string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	if secret == "" {
		if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
			return nil, ErrInvalidToken
		}
		if exp := claims.Expiry(); !exp.IsZero() && time.Now().After(exp) {
			return claims, ErrTokenExpired
		}
		return claims, nil
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	// Claims are only validated once the signature checked out.
	if errors.Is(err, jwt.ErrTokenExpired) {
		return claims, ErrTokenExpired
	}
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
