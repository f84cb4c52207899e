package utils

import (
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    string
		wantErr error
	}{
		{"missing header", "", "", ErrTokenMissing},
		{"scheme without token", "Bearer ", "", ErrTokenMissing},
		{"scheme with token", "Bearer abc.def.ghi", "abc.def.ghi", nil},
		{"bare token accepted", "abc.def.ghi", "abc.def.ghi", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractBearerToken(tt.header)
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	userID := primitive.NewObjectID().Hex()
	token, err := GenerateToken(userID)
	require.NoError(t, err)

	got, err := VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestVerifyTokenExpired(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": primitive.NewObjectID().Hex(),
		"exp":     time.Now().Add(-time.Hour).Unix(),
	})
	raw, err := expired.SignedString([]byte("unit-test-secret"))
	require.NoError(t, err)

	_, err = VerifyToken(raw)
	assert.Equal(t, ErrTokenExpired, err)
}

func TestVerifyTokenWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": primitive.NewObjectID().Hex(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	raw, err := forged.SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	_, err = VerifyToken(raw)
	assert.Equal(t, ErrTokenInvalid, err)
}

func TestVerifyTokenGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	for _, raw := range []string{"not-a-token", "a.b.c", ""} {
		_, err := VerifyToken(raw)
		assert.Equal(t, ErrTokenInvalid, err)
	}
}

func TestVerifyTokenMissingSubject(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := token.SignedString([]byte("unit-test-secret"))
	require.NoError(t, err)

	_, err = VerifyToken(raw)
	assert.Equal(t, ErrTokenInvalid, err)
}
