package testutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/allisson/careportal/internal/crypto/domain"
	cryptoService "github.com/allisson/careportal/internal/crypto/service"
)

// NewFieldKey returns an AES-GCM field key filled with seed. Tests that need two
// distinct keys pass different seeds.
func NewFieldKey(t testing.TB, seed byte) *cryptoDomain.FieldKey {
	t.Helper()

	key, err := cryptoDomain.NewFieldKey(bytes.Repeat([]byte{seed}, cryptoDomain.KeySize), cryptoDomain.AESGCM, false)
	require.NoError(t, err)
	return key
}

// NewFieldAccessor returns a FieldAccessor bound to NewFieldKey(t, seed).
func NewFieldAccessor(t testing.TB, seed byte) *cryptoService.FieldAccessor {
	t.Helper()

	accessor, err := cryptoService.NewFieldAccessorFromKey(NewFieldKey(t, seed))
	require.NoError(t, err)
	return accessor
}
