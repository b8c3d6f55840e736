package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/careportal/internal/auth/domain"
	"github.com/allisson/careportal/internal/metrics"
)

// userUseCaseWithMetrics decorates UserUseCase with metrics instrumentation.
type userUseCaseWithMetrics struct {
	next    UserUseCase
	metrics metrics.BusinessMetrics
}

// NewUserUseCaseWithMetrics wraps a UserUseCase with metrics recording.
func NewUserUseCaseWithMetrics(useCase UserUseCase, m metrics.BusinessMetrics) UserUseCase {
	return &userUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (u *userUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	u.metrics.RecordOperation(ctx, "auth", operation, status)
	u.metrics.RecordDuration(ctx, "auth", operation, time.Since(start), status)
}

// Signup records metrics for signup operations.
func (u *userUseCaseWithMetrics) Signup(
	ctx context.Context,
	input *authDomain.SignupInput,
) (*authDomain.SignupOutput, error) {
	start := time.Now()
	output, err := u.next.Signup(ctx, input)
	u.record(ctx, "user_signup", start, err)
	return output, err
}

// Verify records metrics for email verification operations.
func (u *userUseCaseWithMetrics) Verify(ctx context.Context, plainToken string) (*authDomain.User, error) {
	start := time.Now()
	user, err := u.next.Verify(ctx, plainToken)
	u.record(ctx, "user_verify", start, err)
	return user, err
}

// Login records metrics for login operations.
func (u *userUseCaseWithMetrics) Login(
	ctx context.Context,
	input *authDomain.LoginInput,
) (*authDomain.LoginOutput, error) {
	start := time.Now()
	output, err := u.next.Login(ctx, input)
	u.record(ctx, "user_login", start, err)
	return output, err
}

// Authenticate records metrics for session authentication.
func (u *userUseCaseWithMetrics) Authenticate(ctx context.Context, token string) (*authDomain.User, error) {
	start := time.Now()
	user, err := u.next.Authenticate(ctx, token)
	u.record(ctx, "session_authenticate", start, err)
	return user, err
}

// Get records metrics for user retrieval.
func (u *userUseCaseWithMetrics) Get(ctx context.Context, userID uuid.UUID) (*authDomain.User, error) {
	start := time.Now()
	user, err := u.next.Get(ctx, userID)
	u.record(ctx, "user_get", start, err)
	return user, err
}

// CreateUser records metrics for administrative user creation.
func (u *userUseCaseWithMetrics) CreateUser(
	ctx context.Context,
	input *authDomain.CreateUserInput,
) (*authDomain.User, error) {
	start := time.Now()
	user, err := u.next.CreateUser(ctx, input)
	u.record(ctx, "user_create", start, err)
	return user, err
}
