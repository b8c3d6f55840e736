package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	cryptoDomain "github.com/allisson/careportal/internal/crypto/domain"
)

// KeyLoaderOptions holds the configuration consulted when loading the field key.
type KeyLoaderOptions struct {
	// Encoded is FIELD_ENC_KEY: the base64 key, or the base64 KMS ciphertext of the key
	// when KMSKeyURI is set.
	Encoded    string
	Algorithm  string
	KMSKeyURI  string
	Production bool
}

// LoadFieldKey resolves the field key once at startup.
//
// In production a missing key is fatal. Elsewhere the development key is used and a
// warning is logged, since anything sealed with it is readable by anyone with the source.
func LoadFieldKey(
	ctx context.Context,
	opts KeyLoaderOptions,
	kms KMSService,
	logger *slog.Logger,
) (*cryptoDomain.FieldKey, error) {
	alg, err := cryptoDomain.ParseAlgorithm(opts.Algorithm)
	if err != nil {
		return nil, err
	}

	if opts.Encoded == "" {
		if opts.Production {
			return nil, cryptoDomain.ErrFieldKeyMissing
		}
		logger.Warn(
			"FIELD_ENC_KEY is not set, using the built-in development key; encrypted data is NOT protected",
			slog.String("algorithm", string(alg)),
		)
		raw, err := cryptoDomain.DecodeFieldKey(cryptoDomain.DevelopmentFieldKey)
		if err != nil {
			return nil, err
		}
		defer cryptoDomain.Zero(raw)
		return cryptoDomain.NewFieldKey(raw, alg, true)
	}

	var raw []byte
	if opts.KMSKeyURI != "" {
		raw, err = unwrapFieldKey(ctx, opts.Encoded, opts.KMSKeyURI, kms)
	} else {
		raw, err = cryptoDomain.DecodeFieldKey(opts.Encoded)
	}
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(raw)

	key, err := cryptoDomain.NewFieldKey(raw, alg, false)
	if err != nil {
		return nil, err
	}

	logger.Info("field encryption key loaded",
		slog.String("algorithm", string(alg)),
		slog.Bool("kms", opts.KMSKeyURI != ""),
	)
	return key, nil
}

func unwrapFieldKey(ctx context.Context, encoded, keyURI string, kms KMSService) ([]byte, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrInvalidKeyEncoding, err)
	}

	keeper, err := kms.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrKeyUnwrapFailed, err)
	}
	defer func() {
		_ = keeper.Close()
	}()

	raw, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cryptoDomain.ErrKeyUnwrapFailed, err)
	}
	if len(raw) != cryptoDomain.KeySize {
		cryptoDomain.Zero(raw)
		return nil, fmt.Errorf("%w: got %d bytes", cryptoDomain.ErrInvalidKeySize, len(raw))
	}
	return raw, nil
}
