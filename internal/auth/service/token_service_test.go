package service

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenServiceGenerateToken(t *testing.T) {
	svc := NewTokenService()

	plain, hash, err := svc.GenerateToken()
	require.NoError(t, err)

	raw, err := base64.URLEncoding.DecodeString(plain)
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	expected := sha256.Sum256([]byte(plain))
	assert.Equal(t, hex.EncodeToString(expected[:]), hash)

	plain2, hash2, err := svc.GenerateToken()
	require.NoError(t, err)
	assert.NotEqual(t, plain, plain2)
	assert.NotEqual(t, hash, hash2)
}

func TestTokenServiceHashTokenIsDeterministic(t *testing.T) {
	svc := NewTokenService()

	assert.Equal(t, svc.HashToken("abc"), svc.HashToken("abc"))
	assert.NotEqual(t, svc.HashToken("abc"), svc.HashToken("abd"))
}
