package app

import (
	"crypto/rand"
	"errors"
	"fmt"

	authHTTP "github.com/allisson/careportal/internal/auth/http"
	authRepository "github.com/allisson/careportal/internal/auth/repository"
	authService "github.com/allisson/careportal/internal/auth/service"
	authUseCase "github.com/allisson/careportal/internal/auth/usecase"
)

// ErrJWTSecretMissing is returned in production when JWT_SECRET is empty.
var ErrJWTSecretMissing = errors.New("JWT_SECRET is required in production")

// PasswordService returns the password hashing service.
func (c *Container) PasswordService() (authService.PasswordService, error) {
	var err error
	c.passwordServiceInit.Do(func() {
		c.passwordService, err = authService.NewPasswordService()
		if err != nil {
			c.initErrors["passwordService"] = fmt.Errorf("failed to create password service: %w", err)
		}
	})
	if storedErr, exists := c.initErrors["passwordService"]; exists {
		return nil, storedErr
	}
	return c.passwordService, nil
}

// TokenService returns the verification token service.
func (c *Container) TokenService() authService.TokenService {
	c.tokenServiceInit.Do(func() {
		c.tokenService = authService.NewTokenService()
	})
	return c.tokenService
}

// SessionService returns the session token service.
func (c *Container) SessionService() (authService.SessionService, error) {
	var err error
	c.sessionServiceInit.Do(func() {
		c.sessionService, err = c.initSessionService()
		if err != nil {
			c.initErrors["sessionService"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sessionService"]; exists {
		return nil, storedErr
	}
	return c.sessionService, nil
}

// UserRepository returns the user repository based on database driver.
func (c *Container) UserRepository() (authUseCase.UserRepository, error) {
	var err error
	c.userRepoInit.Do(func() {
		c.userRepo, err = c.initUserRepository()
		if err != nil {
			c.initErrors["userRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["userRepo"]; exists {
		return nil, storedErr
	}
	return c.userRepo, nil
}

// UserUseCase returns the user use case.
func (c *Container) UserUseCase() (authUseCase.UserUseCase, error) {
	var err error
	c.userUseCaseInit.Do(func() {
		c.userUseCase, err = c.initUserUseCase()
		if err != nil {
			c.initErrors["userUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["userUseCase"]; exists {
		return nil, storedErr
	}
	return c.userUseCase, nil
}

// UserHandler returns the HTTP handler for signup, verification, login and sessions.
func (c *Container) UserHandler() (*authHTTP.UserHandler, error) {
	var err error
	c.userHandlerInit.Do(func() {
		c.userHandler, err = c.initUserHandler()
		if err != nil {
			c.initErrors["userHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["userHandler"]; exists {
		return nil, storedErr
	}
	return c.userHandler, nil
}

// initSessionService creates the HS256 session service. Outside production a missing
// secret is replaced by a random one, so sessions do not survive a restart.
func (c *Container) initSessionService() (authService.SessionService, error) {
	secret := []byte(c.config.JWTSecret)
	if len(secret) == 0 {
		if c.config.IsProduction() {
			return nil, ErrJWTSecretMissing
		}
		c.Logger().Warn("JWT_SECRET is not set, using a random secret; sessions end on restart")
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate session secret: %w", err)
		}
	}
	return authService.NewSessionService(secret, c.config.SessionExpiration), nil
}

// initUserRepository creates the user repository based on the database driver.
func (c *Container) initUserRepository() (authUseCase.UserRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for user repository: %w", err)
	}

	accessor, err := c.FieldAccessor()
	if err != nil {
		return nil, fmt.Errorf("failed to get field accessor for user repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return authRepository.NewPostgreSQLUserRepository(db, accessor), nil
	case "mysql":
		return authRepository.NewMySQLUserRepository(db, accessor), nil
	default:
		return nil, c.unsupportedDriver()
	}
}

// initUserUseCase creates the user use case with all its dependencies.
func (c *Container) initUserUseCase() (authUseCase.UserUseCase, error) {
	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for user use case: %w", err)
	}

	userRepo, err := c.UserRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get user repository for user use case: %w", err)
	}

	outboxRepo, err := c.OutboxRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get outbox repository for user use case: %w", err)
	}

	passwordService, err := c.PasswordService()
	if err != nil {
		return nil, err
	}

	sessionService, err := c.SessionService()
	if err != nil {
		return nil, fmt.Errorf("failed to get session service for user use case: %w", err)
	}

	accessor, err := c.FieldAccessor()
	if err != nil {
		return nil, fmt.Errorf("failed to get field accessor for user use case: %w", err)
	}

	baseUseCase := authUseCase.NewUserUseCase(
		txManager,
		userRepo,
		outboxRepo,
		passwordService,
		c.TokenService(),
		sessionService,
		accessor,
	)

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for user use case: %w", err)
		}
		return authUseCase.NewUserUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initUserHandler creates the user HTTP handler.
func (c *Container) initUserHandler() (*authHTTP.UserHandler, error) {
	userUseCase, err := c.UserUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get user use case for user handler: %w", err)
	}

	cookies := authHTTP.CookieConfig{
		Name:   c.config.SessionCookieName,
		Secure: c.config.SessionCookieSecure,
	}
	return authHTTP.NewUserHandler(userUseCase, cookies, c.Logger()), nil
}
