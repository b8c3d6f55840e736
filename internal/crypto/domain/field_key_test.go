package domain

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/careportal/internal/errors"
)

func TestDecodeFieldKey(t *testing.T) {
	t.Run("valid 32 byte key", func(t *testing.T) {
		key, err := DecodeFieldKey(DevelopmentFieldKey)
		require.NoError(t, err)
		assert.Len(t, key, KeySize)
	})

	t.Run("not base64", func(t *testing.T) {
		_, err := DecodeFieldKey("not base64 at all!")
		assert.ErrorIs(t, err, ErrInvalidKeyEncoding)
		assert.True(t, apperrors.Is(err, apperrors.ErrConfiguration))
	})

	t.Run("wrong length", func(t *testing.T) {
		_, err := DecodeFieldKey(base64.StdEncoding.EncodeToString(make([]byte, 16)))
		assert.ErrorIs(t, err, ErrInvalidKeySize)
	})
}

func TestNewFieldKey(t *testing.T) {
	raw := make([]byte, KeySize)
	for i := range raw {
		raw[i] = byte(i)
	}

	t.Run("copies key material", func(t *testing.T) {
		key, err := NewFieldKey(raw, AESGCM, false)
		require.NoError(t, err)

		raw[0] = 0xFF
		assert.Equal(t, byte(0), key.Bytes()[0])
		assert.Equal(t, AESGCM, key.Algorithm())
		assert.False(t, key.IsFallback())
	})

	t.Run("rejects short key", func(t *testing.T) {
		_, err := NewFieldKey(raw[:31], AESGCM, false)
		assert.ErrorIs(t, err, ErrInvalidKeySize)
	})

	t.Run("rejects unknown algorithm", func(t *testing.T) {
		_, err := NewFieldKey(raw, Algorithm("rot13"), false)
		assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
	})

	t.Run("close zeroes key", func(t *testing.T) {
		key, err := NewFieldKey(raw, ChaCha20, true)
		require.NoError(t, err)
		assert.True(t, key.IsFallback())

		key.Close()
		assert.Equal(t, make([]byte, KeySize), key.Bytes())
	})
}

func TestParseAlgorithm(t *testing.T) {
	alg, err := ParseAlgorithm("")
	require.NoError(t, err)
	assert.Equal(t, AESGCM, alg)

	alg, err = ParseAlgorithm("chacha20-poly1305")
	require.NoError(t, err)
	assert.Equal(t, ChaCha20, alg)

	_, err = ParseAlgorithm("aes-cbc")
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)
}

func TestCorruptRecordError(t *testing.T) {
	err := &CorruptRecordError{
		RecordType: "Doctor",
		RecordID:   "0190a1b2",
		Fields: map[string]error{
			"Phone": ErrAuthenticationFailure,
			"Email": ErrAuthenticationFailure,
		},
	}

	assert.Equal(t, []string{"Email", "Phone"}, err.FieldNames())
	assert.Equal(t, "corrupt Doctor record 0190a1b2: unreadable fields [Email, Phone]", err.Error())
	assert.True(t, errors.Is(err, ErrAuthenticationFailure))

	var target *CorruptRecordError
	assert.True(t, errors.As(error(err), &target))
}

func TestZero(t *testing.T) {
	b := []byte{1, 2, 3, 4, 5}
	Zero(b)
	assert.Equal(t, []byte{0, 0, 0, 0, 0}, b)
	assert.NotPanics(t, func() { Zero(nil) })
}
