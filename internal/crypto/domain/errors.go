package domain

import (
	"github.com/allisson/careportal/internal/errors"
)

// Field encryption errors.
//
// Configuration errors are fatal and only surface while the process starts.
// ErrAuthenticationFailure is returned by every failed decrypt, whatever the cause,
// so callers cannot tell a wrong key from a tampered or truncated envelope.
var (
	// ErrFieldKeyMissing indicates FIELD_ENC_KEY is unset in production mode.
	ErrFieldKeyMissing = errors.Wrap(errors.ErrConfiguration, "field encryption key is not configured")

	// ErrInvalidKeyEncoding indicates FIELD_ENC_KEY is not valid base64.
	ErrInvalidKeyEncoding = errors.Wrap(errors.ErrConfiguration, "field encryption key is not valid base64")

	// ErrInvalidKeySize indicates the decoded field key is not exactly 32 bytes.
	ErrInvalidKeySize = errors.Wrap(errors.ErrConfiguration, "field encryption key must be 32 bytes")

	// ErrUnsupportedAlgorithm indicates FIELD_ENC_ALGORITHM names an unknown AEAD.
	ErrUnsupportedAlgorithm = errors.Wrap(errors.ErrConfiguration, "unsupported field encryption algorithm")

	// ErrUnsupportedKMSScheme indicates FIELD_ENC_KMS_KEY_URI uses a provider with no driver.
	ErrUnsupportedKMSScheme = errors.Wrap(errors.ErrConfiguration, "unsupported KMS key URI scheme")

	// ErrKeyUnwrapFailed indicates the KMS could not decrypt the wrapped field key.
	ErrKeyUnwrapFailed = errors.Wrap(errors.ErrConfiguration, "failed to unwrap field encryption key")

	// ErrAuthenticationFailure indicates an envelope could not be opened.
	ErrAuthenticationFailure = errors.New("envelope authentication failed")
)
