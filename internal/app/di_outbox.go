package app

import (
	"fmt"

	outboxDomain "github.com/allisson/careportal/internal/outbox/domain"
	outboxRepository "github.com/allisson/careportal/internal/outbox/repository"
	outboxService "github.com/allisson/careportal/internal/outbox/service"
	outboxUseCase "github.com/allisson/careportal/internal/outbox/usecase"
)

// OutboxRepository returns the outbox event repository based on database driver.
func (c *Container) OutboxRepository() (outboxUseCase.OutboxEventRepository, error) {
	var err error
	c.outboxRepoInit.Do(func() {
		c.outboxRepo, err = c.initOutboxRepository()
		if err != nil {
			c.initErrors["outboxRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxRepo"]; exists {
		return nil, storedErr
	}
	return c.outboxRepo, nil
}

// Mailer returns the SMTP mailer, or a mailer that only logs when SMTP_HOST is empty.
func (c *Container) Mailer() outboxService.Mailer {
	c.mailerInit.Do(func() {
		if c.config.SMTPHost == "" {
			c.Logger().Warn("SMTP_HOST is not set, outgoing mail is logged instead of delivered")
			c.mailer = outboxService.NewLogMailer(c.Logger())
			return
		}
		c.mailer = outboxService.NewSMTPMailer(outboxService.SMTPConfig{
			Host:     c.config.SMTPHost,
			Port:     c.config.SMTPPort,
			Username: c.config.SMTPUsername,
			Password: c.config.SMTPPassword,
			From:     c.config.SMTPFrom,
		})
	})
	return c.mailer
}

// EventProcessor returns the dispatcher with a processor registered per event type.
func (c *Container) EventProcessor() (outboxUseCase.EventProcessor, error) {
	var err error
	c.eventProcessorInit.Do(func() {
		c.eventProcessor, err = c.initEventProcessor()
		if err != nil {
			c.initErrors["eventProcessor"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["eventProcessor"]; exists {
		return nil, storedErr
	}
	return c.eventProcessor, nil
}

// OutboxUseCase returns the outbox worker.
func (c *Container) OutboxUseCase() (outboxUseCase.UseCase, error) {
	var err error
	c.outboxUseCaseInit.Do(func() {
		c.outboxUseCase, err = c.initOutboxUseCase()
		if err != nil {
			c.initErrors["outboxUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["outboxUseCase"]; exists {
		return nil, storedErr
	}
	return c.outboxUseCase, nil
}

// initOutboxRepository creates the outbox event repository instance.
func (c *Container) initOutboxRepository() (outboxUseCase.OutboxEventRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for outbox repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return outboxRepository.NewPostgreSQLOutboxEventRepository(db), nil
	case "mysql":
		return outboxRepository.NewMySQLOutboxEventRepository(db), nil
	default:
		return nil, c.unsupportedDriver()
	}
}

// initEventProcessor registers the user.created processor on a dispatcher.
func (c *Container) initEventProcessor() (outboxUseCase.EventProcessor, error) {
	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for event processor: %w", err)
	}

	accessor, err := c.FieldAccessor()
	if err != nil {
		return nil, fmt.Errorf("failed to get field accessor for event processor: %w", err)
	}

	dispatcher := outboxUseCase.NewEventDispatcher(c.Logger())
	dispatcher.Register(
		outboxDomain.EventTypeUserCreated,
		outboxUseCase.NewUserCreatedProcessor(userRepo, accessor, c.Mailer(), c.config.ClientURL),
	)
	return dispatcher, nil
}

// initOutboxUseCase creates the outbox use case with all its dependencies.
func (c *Container) initOutboxUseCase() (outboxUseCase.UseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for outbox use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for outbox use case: %w", err)
	}

	eventProcessor, err := c.EventProcessor()
	if err != nil {
		return nil, fmt.Errorf("failed to get event processor for outbox use case: %w", err)
	}

	useCaseConfig := outboxUseCase.Config{
		Interval:   c.config.OutboxInterval,
		BatchSize:  c.config.OutboxBatchSize,
		MaxRetries: c.config.OutboxMaxRetries,
	}

	return outboxUseCase.NewOutboxUseCase(useCaseConfig, txManager, outboxRepo, eventProcessor, c.Logger()), nil
}
