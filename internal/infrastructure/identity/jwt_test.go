package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainidentity "github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/infrastructure/config"
)

const testSecret = "test-secret-key-at-least-32-chars"

func newTestVerifier() *TokenVerifier {
	return NewTokenVerifier(config.JWTConfig{
		Secret:   testSecret,
		Issuer:   "accounts.storefront",
		TokenTTL: 15 * time.Minute,
	})
}

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func TestTokenVerifier_MintAndVerify(t *testing.T) {
	v := newTestVerifier()

	token, expiresAt, err := v.Mint("user-7")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), expiresAt, 5*time.Second)

	id, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, domainidentity.User("user-7"), id)
}

func TestTokenVerifier_SubjectFallback(t *testing.T) {
	v := newTestVerifier()
	token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), jwt.RegisteredClaims{
		Issuer:    "accounts.storefront",
		Subject:   "user-9",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	})

	id, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-9", id.UserID)
}

func TestTokenVerifier_Rejects(t *testing.T) {
	v := newTestVerifier()
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{
			name:  "garbage",
			token: "not.a.jwt",
			want:  ErrInvalidToken,
		},
		{
			name: "wrong secret",
			token: sign(t, jwt.SigningMethodHS256, []byte("another-secret-key-of-32-chars!!"), &Claims{
				RegisteredClaims: jwt.RegisteredClaims{Issuer: "accounts.storefront", ExpiresAt: future},
				UserID:           "u1",
			}),
			want: ErrInvalidToken,
		},
		{
			name: "wrong algorithm",
			token: sign(t, jwt.SigningMethodHS512, []byte(testSecret), &Claims{
				RegisteredClaims: jwt.RegisteredClaims{Issuer: "accounts.storefront", ExpiresAt: future},
				UserID:           "u1",
			}),
			want: ErrInvalidToken,
		},
		{
			name: "wrong issuer",
			token: sign(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{
				RegisteredClaims: jwt.RegisteredClaims{Issuer: "elsewhere", ExpiresAt: future},
				UserID:           "u1",
			}),
			want: ErrInvalidToken,
		},
		{
			name: "expired",
			token: sign(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{
				RegisteredClaims: jwt.RegisteredClaims{
					Issuer:    "accounts.storefront",
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
				},
				UserID: "u1",
			}),
			want: ErrExpiredToken,
		},
		{
			name: "not yet valid",
			token: sign(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{
				RegisteredClaims: jwt.RegisteredClaims{
					Issuer:    "accounts.storefront",
					NotBefore: future,
				},
				UserID: "u1",
			}),
			want: ErrTokenNotYetValid,
		},
		{
			name: "no user",
			token: sign(t, jwt.SigningMethodHS256, []byte(testSecret), &Claims{
				RegisteredClaims: jwt.RegisteredClaims{Issuer: "accounts.storefront", ExpiresAt: future},
			}),
			want: ErrMissingUserID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := v.Verify(tt.token)
			assert.ErrorIs(t, err, tt.want)
			assert.False(t, id.Authenticated)
		})
	}
}

func TestTokenVerifier_MintRequiresUser(t *testing.T) {
	_, _, err := newTestVerifier().Mint("")
	assert.ErrorIs(t, err, ErrMissingUserID)
}
