// Package usecase defines business logic interfaces for signup, verification, login and
// session authentication.
package usecase

import (
	"context"

	"github.com/google/uuid"

	authDomain "github.com/allisson/careportal/internal/auth/domain"
	outboxDomain "github.com/allisson/careportal/internal/outbox/domain"
)

// UserRepository defines persistence operations for users.
//
// Implementations seal the user before writing and open it after reading, so the
// use case only handles plaintext emails. Transaction-aware via context propagation.
type UserRepository interface {
	// Create stores a new user. Returns ErrEmailAlreadyExists or ErrUsernameAlreadyExists
	// when a unique constraint is violated.
	Create(ctx context.Context, user *authDomain.User) error

	// Update modifies an existing user.
	Update(ctx context.Context, user *authDomain.User) error

	// GetByID retrieves a user by ID. Returns ErrUserNotFound if not found.
	GetByID(ctx context.Context, userID uuid.UUID) (*authDomain.User, error)

	// GetByEmailIndex retrieves a user by the blind index of its email.
	GetByEmailIndex(ctx context.Context, emailIndex string) (*authDomain.User, error)

	// GetByVerificationTokenHash retrieves the user a pending verification token belongs to.
	GetByVerificationTokenHash(ctx context.Context, tokenHash string) (*authDomain.User, error)
}

// OutboxEventRepository stores events published in the same transaction as the user.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// UserUseCase defines the account lifecycle and the session lookups used by the guard.
type UserUseCase interface {
	// Signup creates an unverified Admin and queues the verification email.
	Signup(ctx context.Context, input *authDomain.SignupInput) (*authDomain.SignupOutput, error)

	// Verify consumes a verification token. Unknown, expired and reused tokens all return
	// ErrInvalidVerificationToken.
	Verify(ctx context.Context, plainToken string) (*authDomain.User, error)

	// Login checks the credentials and issues a session token. Unknown emails, wrong
	// passwords and unverified accounts all return ErrInvalidCredentials.
	Login(ctx context.Context, input *authDomain.LoginInput) (*authDomain.LoginOutput, error)

	// Authenticate resolves a session token to the stored, verified principal.
	Authenticate(ctx context.Context, token string) (*authDomain.User, error)

	// Get retrieves a user by ID.
	Get(ctx context.Context, userID uuid.UUID) (*authDomain.User, error)

	// CreateUser creates an already verified user with an explicit role.
	CreateUser(ctx context.Context, input *authDomain.CreateUserInput) (*authDomain.User, error)
}
