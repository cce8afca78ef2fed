// Package token reads the claims of signed device tokens.
//
// The device cannot verify tenant signatures; the backend does. Claims are
// read unverified and used only for display and bookkeeping (expiry, tenant,
// token ID). Tokens that are not JWTs are valid opaque tokens.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrOpaque marks a token that carries no readable claims.
var ErrOpaque = errors.New("token is opaque")

// Claims are the fields the device reads from a signed device token.
type Claims struct {
	Tenant string `json:"tenant,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Info is the decoded, display-safe view of a token.
type Info struct {
	ID        string
	Tenant    string
	Role      string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

// Expired reports whether the token carries an expiry at or before now.
func (i Info) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

var parser = jwt.NewParser()

// Inspect decodes the claims of a signed device token without verifying it.
func Inspect(signed string) (Info, error) {
	if signed == "" {
		return Info{}, ErrOpaque
	}
	var claims Claims
	if _, _, err := parser.ParseUnverified(signed, &claims); err != nil {
		return Info{}, errors.Join(ErrOpaque, err)
	}
	info := Info{
		ID:     claims.ID,
		Tenant: claims.Tenant,
		Role:   claims.Role,
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	return info, nil
}
