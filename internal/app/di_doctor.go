package app

import (
	"fmt"

	doctorHTTP "github.com/allisson/careportal/internal/doctor/http"
	doctorRepository "github.com/allisson/careportal/internal/doctor/repository"
	doctorUseCase "github.com/allisson/careportal/internal/doctor/usecase"
)

// DoctorRepository returns the doctor repository based on database driver.
func (c *Container) DoctorRepository() (doctorUseCase.DoctorRepository, error) {
	var err error
	c.doctorRepoInit.Do(func() {
		c.doctorRepo, err = c.initDoctorRepository()
		if err != nil {
			c.initErrors["doctorRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["doctorRepo"]; exists {
		return nil, storedErr
	}
	return c.doctorRepo, nil
}

// DoctorUseCase returns the doctor directory use case.
func (c *Container) DoctorUseCase() (doctorUseCase.DoctorUseCase, error) {
	var err error
	c.doctorUseCaseInit.Do(func() {
		c.doctorUseCase, err = c.initDoctorUseCase()
		if err != nil {
			c.initErrors["doctorUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["doctorUseCase"]; exists {
		return nil, storedErr
	}
	return c.doctorUseCase, nil
}

// DoctorHandler returns the doctor HTTP handler.
func (c *Container) DoctorHandler() (*doctorHTTP.DoctorHandler, error) {
	var err error
	c.doctorHandlerInit.Do(func() {
		c.doctorHandler, err = c.initDoctorHandler()
		if err != nil {
			c.initErrors["doctorHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["doctorHandler"]; exists {
		return nil, storedErr
	}
	return c.doctorHandler, nil
}

// initDoctorRepository creates the doctor repository based on the database driver.
func (c *Container) initDoctorRepository() (doctorUseCase.DoctorRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for doctor repository: %w", err)
	}

	accessor, err := c.FieldAccessor()
	if err != nil {
		return nil, fmt.Errorf("failed to get field accessor for doctor repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return doctorRepository.NewPostgreSQLDoctorRepository(db, accessor), nil
	case "mysql":
		return doctorRepository.NewMySQLDoctorRepository(db, accessor), nil
	default:
		return nil, c.unsupportedDriver()
	}
}

// initDoctorUseCase creates the doctor use case with all its dependencies.
func (c *Container) initDoctorUseCase() (doctorUseCase.DoctorUseCase, error) {
	doctorRepo, err := c.DoctorRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor repository for doctor use case: %w", err)
	}

	accessor, err := c.FieldAccessor()
	if err != nil {
		return nil, fmt.Errorf("failed to get field accessor for doctor use case: %w", err)
	}

	baseUseCase := doctorUseCase.NewDoctorUseCase(doctorRepo, accessor, c.Logger())

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for doctor use case: %w", err)
		}
		return doctorUseCase.NewDoctorUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initDoctorHandler creates the doctor HTTP handler.
func (c *Container) initDoctorHandler() (*doctorHTTP.DoctorHandler, error) {
	useCase, err := c.DoctorUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor use case for doctor handler: %w", err)
	}
	return doctorHTTP.NewDoctorHandler(useCase, c.Logger()), nil
}
