package utils

import (
	"crypto/ed25519"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveAddress(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	addr, err := DeriveAddress(pub)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(addr, "0x"))
	assert.Len(t, addr, 42)

	// Deterministic
	again, err := DeriveAddress(pub)
	require.NoError(t, err)
	assert.Equal(t, addr, again)

	// Different keys get different addresses
	otherPub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	otherAddr, err := DeriveAddress(otherPub)
	require.NoError(t, err)
	assert.NotEqual(t, addr, otherAddr)
}

func TestDeriveAddress_InvalidKey(t *testing.T) {
	_, err := DeriveAddress([]byte("too short"))
	assert.Error(t, err)
}

func TestServiceAddress(t *testing.T) {
	resale := ServiceAddress("resale")
	register := ServiceAddress("register")

	assert.True(t, strings.HasPrefix(resale, "0x"))
	assert.Len(t, resale, 42)
	assert.NotEqual(t, resale, register)
	assert.Equal(t, resale, ServiceAddress("resale"))
}

func TestHashMessage(t *testing.T) {
	digest := HashMessage([]byte("GATE-7"))
	assert.Len(t, digest, 32)
	assert.Equal(t, digest, HashMessage([]byte("GATE-7")))
	assert.NotEqual(t, digest, HashMessage([]byte("GATE-8")))
}

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(16)
	require.NoError(t, err)
	assert.Len(t, code, 32)
	assert.Equal(t, strings.ToUpper(code), code)
}
