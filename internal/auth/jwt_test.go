package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret"

func TestGenerateAndValidateToken(t *testing.T) {
	actor := Actor{ID: uuid.New(), Role: RoleStaff}

	token, err := GenerateToken(actor, testSecret, 24*time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := ValidateToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, actor, *got)
}

func TestValidateToken(t *testing.T) {
	actor := Actor{ID: uuid.New(), Role: RoleAdmin}

	validToken, err := GenerateToken(actor, testSecret, 24*time.Hour)
	require.NoError(t, err)

	expiredToken, err := GenerateToken(actor, testSecret, -1*time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name      string
		token     string
		secret    string
		wantErrIs error
	}{
		{
			name:      "expired token",
			token:     expiredToken,
			secret:    testSecret,
			wantErrIs: jwt.ErrTokenExpired,
		},
		{
			name:      "wrong secret",
			token:     validToken,
			secret:    "wrong-secret",
			wantErrIs: jwt.ErrTokenSignatureInvalid,
		},
		{
			name:      "malformed token",
			token:     "not.a.valid.jwt",
			secret:    testSecret,
			wantErrIs: jwt.ErrTokenMalformed,
		},
		{
			name:      "empty token",
			token:     "",
			secret:    testSecret,
			wantErrIs: jwt.ErrTokenMalformed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateToken(tc.token, tc.secret)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErrIs)
		})
	}
}

func TestValidateToken_RejectsNonHMAC(t *testing.T) {
	// Algorithm confusion: a token signed with "none" should be rejected
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		ActorID: uuid.NewString(),
		Role:    string(RoleAdmin),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ValidateToken(signed, testSecret)
	require.Error(t, err)
}

func TestValidateToken_RejectsUnknownRole(t *testing.T) {
	token, err := GenerateToken(Actor{ID: uuid.New(), Role: Role("root")}, testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(token, testSecret)
	require.Error(t, err)
}

func TestActorContext(t *testing.T) {
	_, ok := ActorFromContext(context.Background())
	assert.False(t, ok)

	a := Actor{ID: uuid.New(), Role: RoleStaff}
	got, ok := ActorFromContext(ContextWithActor(context.Background(), a))
	require.True(t, ok)
	assert.Equal(t, a, got)
}
