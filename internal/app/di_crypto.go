package app

import (
	"context"
	"fmt"

	auditService "github.com/allisson/careportal/internal/audit/service"
	cryptoDomain "github.com/allisson/careportal/internal/crypto/domain"
	cryptoService "github.com/allisson/careportal/internal/crypto/service"
)

// KMSService returns the KMS service used to unwrap the field key.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// FieldKey returns the field encryption key loaded at startup.
func (c *Container) FieldKey() (*cryptoDomain.FieldKey, error) {
	var err error
	c.fieldKeyInit.Do(func() {
		c.fieldKey, err = c.initFieldKey()
		if err != nil {
			c.initErrors["fieldKey"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["fieldKey"]; exists {
		return nil, storedErr
	}
	return c.fieldKey, nil
}

// FieldAccessor returns the accessor every repository seals and opens records with.
func (c *Container) FieldAccessor() (*cryptoService.FieldAccessor, error) {
	var err error
	c.fieldAccessorInit.Do(func() {
		c.fieldAccessor, err = c.initFieldAccessor()
		if err != nil {
			c.initErrors["fieldAccessor"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["fieldAccessor"]; exists {
		return nil, storedErr
	}
	return c.fieldAccessor, nil
}

// AuditSigner returns the signer of audit records.
func (c *Container) AuditSigner() (auditService.AuditSigner, error) {
	var err error
	c.auditSignerInit.Do(func() {
		c.auditSigner, err = c.initAuditSigner()
		if err != nil {
			c.initErrors["auditSigner"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditSigner"]; exists {
		return nil, storedErr
	}
	return c.auditSigner, nil
}

// initFieldKey loads the field key, unwrapping it with KMS when a key URI is configured.
func (c *Container) initFieldKey() (*cryptoDomain.FieldKey, error) {
	key, err := cryptoService.LoadFieldKey(
		context.Background(),
		cryptoService.KeyLoaderOptions{
			Encoded:    c.config.FieldEncKey,
			Algorithm:  c.config.FieldEncAlgorithm,
			KMSKeyURI:  c.config.FieldEncKMSKeyURI,
			Production: c.config.IsProduction(),
		},
		c.KMSService(),
		c.Logger(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load field encryption key: %w", err)
	}
	return key, nil
}

// initFieldAccessor binds a FieldAccessor to the field key.
func (c *Container) initFieldAccessor() (*cryptoService.FieldAccessor, error) {
	key, err := c.FieldKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get field key for field accessor: %w", err)
	}

	accessor, err := cryptoService.NewFieldAccessorFromKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create field accessor: %w", err)
	}
	return accessor, nil
}

// initAuditSigner derives the audit signing key from the field key.
func (c *Container) initAuditSigner() (auditService.AuditSigner, error) {
	key, err := c.FieldKey()
	if err != nil {
		return nil, fmt.Errorf("failed to get field key for audit signer: %w", err)
	}

	signer, err := auditService.NewAuditSigner(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create audit signer: %w", err)
	}
	return signer, nil
}
