package app

import (
	"fmt"

	assessmentHTTP "github.com/allisson/careportal/internal/assessment/http"
	assessmentRepository "github.com/allisson/careportal/internal/assessment/repository"
	assessmentUseCase "github.com/allisson/careportal/internal/assessment/usecase"
)

// AssessmentRepository returns the assessment repository based on database driver.
func (c *Container) AssessmentRepository() (assessmentUseCase.AssessmentRepository, error) {
	var err error
	c.assessmentRepoInit.Do(func() {
		c.assessmentRepo, err = c.initAssessmentRepository()
		if err != nil {
			c.initErrors["assessmentRepo"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["assessmentRepo"]; exists {
		return nil, storedErr
	}
	return c.assessmentRepo, nil
}

// AssessmentUseCase returns the assessment use case.
func (c *Container) AssessmentUseCase() (assessmentUseCase.AssessmentUseCase, error) {
	var err error
	c.assessmentUseCaseInit.Do(func() {
		c.assessmentUseCase, err = c.initAssessmentUseCase()
		if err != nil {
			c.initErrors["assessmentUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["assessmentUseCase"]; exists {
		return nil, storedErr
	}
	return c.assessmentUseCase, nil
}

// AssessmentHandler returns the assessment HTTP handler.
func (c *Container) AssessmentHandler() (*assessmentHTTP.AssessmentHandler, error) {
	var err error
	c.assessmentHandlerInit.Do(func() {
		c.assessmentHandler, err = c.initAssessmentHandler()
		if err != nil {
			c.initErrors["assessmentHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["assessmentHandler"]; exists {
		return nil, storedErr
	}
	return c.assessmentHandler, nil
}

// initAssessmentRepository creates the assessment repository based on the database driver.
func (c *Container) initAssessmentRepository() (assessmentUseCase.AssessmentRepository, error) {
	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for assessment repository: %w", err)
	}

	accessor, err := c.FieldAccessor()
	if err != nil {
		return nil, fmt.Errorf("failed to get field accessor for assessment repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return assessmentRepository.NewPostgreSQLAssessmentRepository(db, accessor), nil
	case "mysql":
		return assessmentRepository.NewMySQLAssessmentRepository(db, accessor), nil
	default:
		return nil, c.unsupportedDriver()
	}
}

// initAssessmentUseCase creates the assessment use case with all its dependencies.
func (c *Container) initAssessmentUseCase() (assessmentUseCase.AssessmentUseCase, error) {
	assessmentRepo, err := c.AssessmentRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment repository for assessment use case: %w", err)
	}

	baseUseCase := assessmentUseCase.NewAssessmentUseCase(assessmentRepo, c.Logger())

	// Wrap with metrics if enabled
	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for assessment use case: %w", err)
		}
		return assessmentUseCase.NewAssessmentUseCaseWithMetrics(baseUseCase, businessMetrics), nil
	}

	return baseUseCase, nil
}

// initAssessmentHandler creates the assessment HTTP handler.
func (c *Container) initAssessmentHandler() (*assessmentHTTP.AssessmentHandler, error) {
	useCase, err := c.AssessmentUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get assessment use case for assessment handler: %w", err)
	}
	return assessmentHTTP.NewAssessmentHandler(useCase, c.Logger()), nil
}
