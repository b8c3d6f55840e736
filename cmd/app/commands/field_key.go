package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/allisson/careportal/internal/crypto/domain"
	cryptoService "github.com/allisson/careportal/internal/crypto/service"
)

// RunCreateFieldKey generates a 32-byte field encryption key and prints the environment
// variables that configure it. Key material is zeroed from memory after encoding.
//
// Without kmsKeyURI the key is printed base64 encoded. With kmsKeyURI the key is
// encrypted by the KMS keeper first and FIELD_ENC_KEY holds the base64 ciphertext.
//
// Output format:
//   - FIELD_ENC_KEY="<base64 key or base64 kms ciphertext>"
//   - FIELD_ENC_ALGORITHM="<algorithm>"
//   - FIELD_ENC_KMS_KEY_URI="<uri>" (KMS mode only)
func RunCreateFieldKey(
	ctx context.Context,
	kmsService cryptoService.KMSService,
	logger *slog.Logger,
	writer io.Writer,
	algorithm string,
	kmsKeyURI string,
) error {
	alg, err := cryptoDomain.ParseAlgorithm(algorithm)
	if err != nil {
		return err
	}

	key := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("failed to generate field key: %w", err)
	}
	defer cryptoDomain.Zero(key)

	if kmsKeyURI == "" {
		logger.Warn("field key printed in plaintext; prefer --kms-key-uri in production")

		_, _ = fmt.Fprintln(writer, "# Field encryption key")
		_, _ = fmt.Fprintln(writer, "# Copy these environment variables to your .env file or secrets manager")
		_, _ = fmt.Fprintln(writer)
		_, _ = fmt.Fprintf(writer, "FIELD_ENC_KEY=\"%s\"\n", base64.StdEncoding.EncodeToString(key))
		_, _ = fmt.Fprintf(writer, "FIELD_ENC_ALGORITHM=\"%s\"\n", alg)
		return nil
	}

	keeper, err := kmsService.OpenKeeper(ctx, kmsKeyURI)
	if err != nil {
		return fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer func() {
		if closeErr := keeper.Close(); closeErr != nil {
			logger.Warn("failed to close KMS keeper", slog.Any("error", closeErr))
		}
	}()

	ciphertext, err := keeper.Encrypt(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to encrypt field key with KMS: %w", err)
	}

	_, _ = fmt.Fprintln(writer, "# Field encryption key (KMS mode)")
	_, _ = fmt.Fprintln(writer, "# Copy these environment variables to your .env file or secrets manager")
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintf(writer, "FIELD_ENC_KEY=\"%s\"\n", base64.StdEncoding.EncodeToString(ciphertext))
	_, _ = fmt.Fprintf(writer, "FIELD_ENC_ALGORITHM=\"%s\"\n", alg)
	_, _ = fmt.Fprintf(writer, "FIELD_ENC_KMS_KEY_URI=\"%s\"\n", kmsKeyURI)

	logger.Info("field key created", slog.String("algorithm", string(alg)), slog.Bool("kms", true))
	return nil
}
