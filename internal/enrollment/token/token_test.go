package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("tenant-secret"))
	require.NoError(t, err)
	return tok
}

func TestInspect(t *testing.T) {
	exp := time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC)

	t.Run("reads claims without verifying the signature", func(t *testing.T) {
		tok := signed(t, Claims{
			Tenant: "acme",
			Role:   "manager",
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        "jti-1",
				ExpiresAt: jwt.NewNumericDate(exp),
			},
		})

		info, err := Inspect(tok)
		require.NoError(t, err)
		assert.Equal(t, "acme", info.Tenant)
		assert.Equal(t, "manager", info.Role)
		assert.Equal(t, "jti-1", info.ID)
		assert.True(t, info.ExpiresAt.Equal(exp))
		assert.False(t, info.Expired(exp.Add(-time.Second)))
		assert.True(t, info.Expired(exp))
	})

	t.Run("opaque tokens are reported as such", func(t *testing.T) {
		_, err := Inspect("dvc_7f3a9c")
		assert.ErrorIs(t, err, ErrOpaque)

		_, err = Inspect("")
		assert.ErrorIs(t, err, ErrOpaque)
	})

	t.Run("token without expiry never expires", func(t *testing.T) {
		info, err := Inspect(signed(t, Claims{Tenant: "globex"}))
		require.NoError(t, err)
		assert.False(t, info.Expired(time.Now()))
	})
}
