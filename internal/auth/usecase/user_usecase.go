package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	authDomain "github.com/allisson/careportal/internal/auth/domain"
	authService "github.com/allisson/careportal/internal/auth/service"
	cryptoService "github.com/allisson/careportal/internal/crypto/service"
	"github.com/allisson/careportal/internal/database"
	apperrors "github.com/allisson/careportal/internal/errors"
	outboxDomain "github.com/allisson/careportal/internal/outbox/domain"
	appValidation "github.com/allisson/careportal/internal/validation"
)

// userUseCase implements UserUseCase.
type userUseCase struct {
	txManager       database.TxManager
	userRepo        UserRepository
	outboxRepo      OutboxEventRepository
	passwordService authService.PasswordService
	tokenService    authService.TokenService
	sessionService  authService.SessionService
	accessor        *cryptoService.FieldAccessor
	now             func() time.Time
}

func credentialRules(username, email, password *string) []*validation.FieldRules {
	return []*validation.FieldRules{
		validation.Field(username,
			validation.Required.Error("username is required"),
			appValidation.Username,
		),
		validation.Field(email,
			validation.Required.Error("email is required"),
			appValidation.NotBlank,
			appValidation.Email,
			validation.Length(5, 255).Error("email must be between 5 and 255 characters"),
		),
		validation.Field(password,
			validation.Required.Error("password is required"),
			appValidation.Password,
		),
	}
}

func validateSignupInput(input *authDomain.SignupInput) error {
	err := validation.ValidateStruct(input,
		credentialRules(&input.Username, &input.Email, &input.Password)...,
	)
	return appValidation.WrapValidationError(err)
}

func validateCreateUserInput(input *authDomain.CreateUserInput) error {
	rules := credentialRules(&input.Username, &input.Email, &input.Password)
	rules = append(rules, validation.Field(&input.Role,
		validation.Required.Error("role is required"),
		validation.In(authDomain.RoleSuperAdmin, authDomain.RoleAdmin).Error("role must be SuperAdmin or Admin"),
	))
	return appValidation.WrapValidationError(validation.ValidateStruct(input, rules...))
}

// Signup creates an unverified Admin and, in the same transaction, the user.created
// event that mails the verification link.
func (u *userUseCase) Signup(
	ctx context.Context,
	input *authDomain.SignupInput,
) (*authDomain.SignupOutput, error) {
	if err := validateSignupInput(input); err != nil {
		return nil, err
	}

	passwordHash, err := u.passwordService.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	plainToken, tokenHash, err := u.tokenService.GenerateToken()
	if err != nil {
		return nil, err
	}

	tokenEnvelope, err := u.accessor.Encrypt(plainToken)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to seal verification token")
	}

	expiresAt := u.now().UTC().Add(authDomain.VerificationTTL)
	user := &authDomain.User{
		ID:                    uuid.Must(uuid.NewV7()),
		Username:              strings.TrimSpace(input.Username),
		Email:                 cryptoService.NormalizeIndexValue(input.Email),
		PasswordHash:          passwordHash,
		Role:                  authDomain.RoleAdmin,
		IsVerified:            false,
		VerificationTokenHash: &tokenHash,
		VerificationExpiresAt: &expiresAt,
	}

	err = u.txManager.WithTx(ctx, func(ctx context.Context) error {
		if err := u.userRepo.Create(ctx, user); err != nil {
			return err
		}

		payload, err := json.Marshal(outboxDomain.UserCreatedPayload{
			UserID:                    user.ID,
			Username:                  user.Username,
			VerificationTokenEnvelope: tokenEnvelope,
		})
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal event payload")
		}

		event := &outboxDomain.OutboxEvent{
			ID:        uuid.Must(uuid.NewV7()),
			EventType: outboxDomain.EventTypeUserCreated,
			Payload:   string(payload),
			Status:    outboxDomain.OutboxEventStatusPending,
		}
		if err := u.outboxRepo.Create(ctx, event); err != nil {
			return apperrors.Wrap(err, "failed to create outbox event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &authDomain.SignupOutput{User: user, VerificationToken: plainToken}, nil
}

// Verify marks the owner of a pending verification token as verified and consumes the token.
func (u *userUseCase) Verify(ctx context.Context, plainToken string) (*authDomain.User, error) {
	if !u.tokenService.Valid(plainToken) {
		return nil, authDomain.ErrInvalidVerificationToken
	}

	var user *authDomain.User
	err := u.txManager.WithTx(ctx, func(ctx context.Context) error {
		found, err := u.userRepo.GetByVerificationTokenHash(ctx, u.tokenService.HashToken(plainToken))
		if err != nil {
			if apperrors.Is(err, authDomain.ErrUserNotFound) {
				return authDomain.ErrInvalidVerificationToken
			}
			return err
		}

		if found.VerificationExpiresAt == nil || !u.now().Before(*found.VerificationExpiresAt) {
			return authDomain.ErrInvalidVerificationToken
		}

		found.IsVerified = true
		found.VerificationTokenHash = nil
		found.VerificationExpiresAt = nil
		if err := u.userRepo.Update(ctx, found); err != nil {
			return err
		}

		user = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login looks the user up through the email blind index and issues a session token.
func (u *userUseCase) Login(ctx context.Context, input *authDomain.LoginInput) (*authDomain.LoginOutput, error) {
	if strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, authDomain.ErrInvalidCredentials
	}

	user, err := u.userRepo.GetByEmailIndex(ctx, u.accessor.Index(authDomain.UserEmailScope, input.Email))
	if err != nil {
		if apperrors.Is(err, authDomain.ErrUserNotFound) {
			return nil, authDomain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !u.passwordService.Compare(input.Password, user.PasswordHash) {
		return nil, authDomain.ErrInvalidCredentials
	}

	if !user.IsVerified {
		return nil, authDomain.ErrInvalidCredentials
	}

	token, expiresAt, err := u.sessionService.Issue(user)
	if err != nil {
		return nil, err
	}

	return &authDomain.LoginOutput{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Authenticate verifies the session token and reloads its principal. A principal that
// was deleted since the token was issued yields ErrInvalidSession. The role is always
// taken from storage, not from the token.
func (u *userUseCase) Authenticate(ctx context.Context, token string) (*authDomain.User, error) {
	claims, err := u.sessionService.Parse(token)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.GetByID(ctx, claims.PrincipalID)
	if err != nil {
		if apperrors.Is(err, authDomain.ErrUserNotFound) {
			return nil, authDomain.ErrInvalidSession
		}
		return nil, err
	}

	if !user.IsVerified {
		return nil, authDomain.ErrUserNotVerified
	}
	return user, nil
}

// Get retrieves a user by ID.
func (u *userUseCase) Get(ctx context.Context, userID uuid.UUID) (*authDomain.User, error) {
	return u.userRepo.GetByID(ctx, userID)
}

// CreateUser creates a verified user without a verification round trip.
func (u *userUseCase) CreateUser(
	ctx context.Context,
	input *authDomain.CreateUserInput,
) (*authDomain.User, error) {
	if err := validateCreateUserInput(input); err != nil {
		return nil, err
	}

	passwordHash, err := u.passwordService.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &authDomain.User{
		ID:           uuid.Must(uuid.NewV7()),
		Username:     strings.TrimSpace(input.Username),
		Email:        cryptoService.NormalizeIndexValue(input.Email),
		PasswordHash: passwordHash,
		Role:         input.Role,
		IsVerified:   true,
	}

	if err := u.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// NewUserUseCase creates a new UserUseCase.
func NewUserUseCase(
	txManager database.TxManager,
	userRepo UserRepository,
	outboxRepo OutboxEventRepository,
	passwordService authService.PasswordService,
	tokenService authService.TokenService,
	sessionService authService.SessionService,
	accessor *cryptoService.FieldAccessor,
) UserUseCase {
	return &userUseCase{
		txManager:       txManager,
		userRepo:        userRepo,
		outboxRepo:      outboxRepo,
		passwordService: passwordService,
		tokenService:    tokenService,
		sessionService:  sessionService,
		accessor:        accessor,
		now:             time.Now,
	}
}
