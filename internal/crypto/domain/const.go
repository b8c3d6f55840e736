// Package domain defines the field encryption key, envelope layout and error taxonomy
// shared by every component that stores personally identifiable data.
package domain

// Algorithm represents the AEAD used to seal field envelopes.
//
// Both algorithms take a 256-bit key, a 12-byte nonce and produce a 16-byte tag, so
// the envelope layout is identical regardless of the configured algorithm.
type Algorithm string

const (
	// AESGCM is AES-256 in Galois/Counter Mode. It is the default.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 is ChaCha20-Poly1305, preferred on hosts without AES-NI.
	ChaCha20 Algorithm = "chacha20-poly1305"
)

// Envelope layout: base64(nonce || tag || ciphertext).
const (
	// KeySize is the required field key length in bytes.
	KeySize = 32
	// NonceSize is the length of the random nonce that prefixes every envelope.
	NonceSize = 12
	// TagSize is the length of the authentication tag that follows the nonce.
	TagSize = 16
	// EnvelopeOverhead is the number of raw bytes an envelope adds to its plaintext.
	EnvelopeOverhead = NonceSize + TagSize
)

// ParseAlgorithm converts a configuration value into an Algorithm.
func ParseAlgorithm(value string) (Algorithm, error) {
	switch Algorithm(value) {
	case AESGCM, "":
		return AESGCM, nil
	case ChaCha20:
		return ChaCha20, nil
	default:
		return "", ErrUnsupportedAlgorithm
	}
}
