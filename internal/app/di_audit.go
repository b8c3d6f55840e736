package app

import (
	"fmt"

	auditHTTP "github.com/allisson/careportal/internal/audit/http"
	auditRepository "github.com/allisson/careportal/internal/audit/repository"
	auditService "github.com/allisson/careportal/internal/audit/service"
	auditUseCase "github.com/allisson/careportal/internal/audit/usecase"
	authHTTP "github.com/allisson/careportal/internal/auth/http"
	"github.com/allisson/careportal/internal/config"
)

// AuditLogRepository returns the audit log repository for the configured audit store.
func (c *Container) AuditLogRepository() (auditUseCase.AuditLogRepository, error) {
	var err error
	c.auditLogRepoInit.Do(func() {
		c.auditLogRepo, err = c.initAuditLogRepository()
		if err != nil {
			c.initErrors["auditLogRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditLogRepo"]; exists {
		return nil, storedErr
	}
	return c.auditLogRepo, nil
}

// AuditLogUseCase returns the audit log use case.
func (c *Container) AuditLogUseCase() (auditUseCase.AuditLogUseCase, error) {
	var err error
	c.auditLogUseCaseInit.Do(func() {
		c.auditLogUseCase, err = c.initAuditLogUseCase()
		if err != nil {
			c.initErrors["auditLogUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditLogUseCase"]; exists {
		return nil, storedErr
	}
	return c.auditLogUseCase, nil
}

// IPResolver returns the network origin resolver used by the audit recorder.
func (c *Container) IPResolver() auditService.IPResolver {
	c.ipResolverInit.Do(func() {
		c.ipResolver = auditService.NewIPResolver(auditService.IPResolverConfig{
			LookupEnabled: c.config.IPLookupEnabled,
			LookupURL:     c.config.IPLookupURL,
			Timeout:       c.config.IPLookupTimeout,
		}, c.Logger())
	})
	return c.ipResolver
}

// AuditRecorder returns the middleware factory that audits mutating and auth routes.
func (c *Container) AuditRecorder() (*auditHTTP.Recorder, error) {
	var err error
	c.auditRecorderInit.Do(func() {
		c.auditRecorder, err = c.initAuditRecorder()
		if err != nil {
			c.initErrors["auditRecorder"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditRecorder"]; exists {
		return nil, storedErr
	}
	return c.auditRecorder, nil
}

// AuditLogHandler returns the HTTP handler for the audit trail review endpoint.
func (c *Container) AuditLogHandler() (*auditHTTP.AuditLogHandler, error) {
	var err error
	c.auditLogHandlerInit.Do(func() {
		var useCase auditUseCase.AuditLogUseCase
		useCase, err = c.AuditLogUseCase()
		if err != nil {
			err = fmt.Errorf("failed to get audit log use case for audit log handler: %w", err)
			c.initErrors["auditLogHandler"] = err
			return
		}
		c.auditLogHandler = auditHTTP.NewAuditLogHandler(useCase, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditLogHandler"]; exists {
		return nil, storedErr
	}
	return c.auditLogHandler, nil
}

// initAuditLogRepository creates the audit log repository. AUDIT_STORE=mongodb keeps the
// trail in its own MongoDB database; otherwise it lives next to the other tables.
func (c *Container) initAuditLogRepository() (auditUseCase.AuditLogRepository, error) {
	accessor, err := c.FieldAccessor()
	if err != nil {
		return nil, fmt.Errorf("failed to get field accessor for audit log repository: %w", err)
	}

	if c.config.AuditStore == config.AuditStoreMongoDB {
		client, err := c.MongoClient()
		if err != nil {
			return nil, fmt.Errorf("failed to get mongodb client for audit log repository: %w", err)
		}
		return auditRepository.NewMongoAuditLogRepository(
			client.Database(c.config.AuditMongoDatabase),
			accessor,
		), nil
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for audit log repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return auditRepository.NewPostgreSQLAuditLogRepository(db, accessor), nil
	case "mysql":
		return auditRepository.NewMySQLAuditLogRepository(db, accessor), nil
	default:
		return nil, c.unsupportedDriver()
	}
}

// initAuditLogUseCase creates the audit log use case with all its dependencies.
func (c *Container) initAuditLogUseCase() (auditUseCase.AuditLogUseCase, error) {
	auditLogRepo, err := c.AuditLogRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log repository for audit log use case: %w", err)
	}

	signer, err := c.AuditSigner()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit signer for audit log use case: %w", err)
	}

	baseUseCase := auditUseCase.NewAuditLogUseCase(auditLogRepo, signer, c.Logger())

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for audit log use case: %w", err)
		}
		return auditUseCase.NewAuditLogUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initAuditRecorder creates the audit recorder.
func (c *Container) initAuditRecorder() (*auditHTTP.Recorder, error) {
	auditLogUseCase, err := c.AuditLogUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get audit log use case for audit recorder: %w", err)
	}

	accessor, err := c.FieldAccessor()
	if err != nil {
		return nil, fmt.Errorf("failed to get field accessor for audit recorder: %w", err)
	}

	return auditHTTP.NewRecorder(
		auditLogUseCase,
		c.IPResolver(),
		accessor,
		authHTTP.PrincipalActor,
		c.config.AuditWriteTimeout,
		c.Logger(),
	), nil
}
