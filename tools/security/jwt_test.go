package security

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerifyRoundTrip(t *testing.T) {
	opts := DefaultOptions([]byte("test-secret"))

	token, exp, err := Generate(opts, "user-42")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), exp, time.Minute)

	sub, err := Verify(opts, token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", sub)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, _, err := Generate(DefaultOptions([]byte("right")), "user-42")
	require.NoError(t, err)

	_, err = Verify(DefaultOptions([]byte("wrong")), token)
	require.Error(t, err)
}

func TestVerifyRejectsExpired(t *testing.T) {
	secret := []byte("test-secret")
	past := time.Now().Add(-time.Hour)
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": "user-42",
		"iat": past.Add(-time.Hour).Unix(),
		"exp": past.Unix(),
	})
	signed, err := tok.SignedString(secret)
	require.NoError(t, err)

	_, err = Verify(DefaultOptions(secret), signed)
	require.Error(t, err)
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, jwtlib.MapClaims{"sub": "user-42"})
	signed, err := tok.SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = Verify(DefaultOptions([]byte("s")), signed)
	require.Error(t, err)
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	secret := []byte("s")
	tok := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := tok.SignedString(secret)
	require.NoError(t, err)

	_, err = Verify(DefaultOptions(secret), signed)
	require.Error(t, err)
}
