// Package repository implements user persistence.
//
// Provides PostgreSQL and MySQL implementations with transaction support via database.GetTx().
// PostgreSQL uses native UUID types, MySQL uses BINARY(16) types. The email is sealed by
// the field accessor before every write and opened after every read.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	authDomain "github.com/allisson/careportal/internal/auth/domain"
	cryptoService "github.com/allisson/careportal/internal/crypto/service"
	"github.com/allisson/careportal/internal/database"
	apperrors "github.com/allisson/careportal/internal/errors"
)

const userRecordType = "User"

// PostgreSQLUserRepository implements User persistence for PostgreSQL.
type PostgreSQLUserRepository struct {
	db       *sql.DB
	accessor *cryptoService.FieldAccessor
}

// Create inserts a new User. The caller's struct keeps its plaintext email.
func (p *PostgreSQLUserRepository) Create(ctx context.Context, user *authDomain.User) error {
	querier := database.GetTx(ctx, p.db)

	row := *user
	if err := p.accessor.Seal(&row); err != nil {
		return apperrors.Wrap(err, "failed to seal user")
	}

	query := `INSERT INTO users (id, username, email, email_index, password_hash, role, is_verified,
			  verification_token_hash, verification_expires_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
			  RETURNING created_at, updated_at`

	err := querier.QueryRowContext(
		ctx,
		query,
		row.ID,
		row.Username,
		row.Email,
		row.EmailIndex,
		row.PasswordHash,
		row.Role,
		row.IsVerified,
		row.VerificationTokenHash,
		row.VerificationExpiresAt,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return uniqueViolationError(err)
		}
		return apperrors.Wrap(err, "failed to create user")
	}

	user.EmailIndex = row.EmailIndex
	return nil
}

// Update modifies an existing User.
func (p *PostgreSQLUserRepository) Update(ctx context.Context, user *authDomain.User) error {
	querier := database.GetTx(ctx, p.db)

	row := *user
	if err := p.accessor.Seal(&row); err != nil {
		return apperrors.Wrap(err, "failed to seal user")
	}

	query := `UPDATE users
			  SET username = $1,
			      email = $2,
			      email_index = $3,
			      password_hash = $4,
			      role = $5,
			      is_verified = $6,
			      verification_token_hash = $7,
			      verification_expires_at = $8,
			      updated_at = NOW()
			  WHERE id = $9`

	result, err := querier.ExecContext(
		ctx,
		query,
		row.Username,
		row.Email,
		row.EmailIndex,
		row.PasswordHash,
		row.Role,
		row.IsVerified,
		row.VerificationTokenHash,
		row.VerificationExpiresAt,
		row.ID,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return uniqueViolationError(err)
		}
		return apperrors.Wrap(err, "failed to update user")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return authDomain.ErrUserNotFound
	}

	user.EmailIndex = row.EmailIndex
	return nil
}

// GetByID retrieves a User by ID.
func (p *PostgreSQLUserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*authDomain.User, error) {
	return p.getBy(ctx, "id = $1", userID)
}

// GetByEmailIndex retrieves a User by the blind index of its email.
func (p *PostgreSQLUserRepository) GetByEmailIndex(
	ctx context.Context,
	emailIndex string,
) (*authDomain.User, error) {
	return p.getBy(ctx, "email_index = $1", emailIndex)
}

// GetByVerificationTokenHash retrieves the User holding a pending verification token.
func (p *PostgreSQLUserRepository) GetByVerificationTokenHash(
	ctx context.Context,
	tokenHash string,
) (*authDomain.User, error) {
	return p.getBy(ctx, "verification_token_hash = $1 AND is_verified = FALSE", tokenHash)
}

func (p *PostgreSQLUserRepository) getBy(ctx context.Context, where string, arg any) (*authDomain.User, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, username, email, email_index, password_hash, role, is_verified,
			  verification_token_hash, verification_expires_at, created_at, updated_at
			  FROM users WHERE ` + where

	var user authDomain.User

	err := querier.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.EmailIndex,
		&user.PasswordHash,
		&user.Role,
		&user.IsVerified,
		&user.VerificationTokenHash,
		&user.VerificationExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authDomain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get user")
	}

	if err := p.accessor.Open(&user, userRecordType, user.ID.String()); err != nil {
		return nil, err
	}
	return &user, nil
}

// uniqueViolationError maps a users table unique violation to the domain error of the
// violated column.
func uniqueViolationError(err error) error {
	constraint := database.ViolatedConstraint(err)
	if strings.Contains(constraint, "username") ||
		(constraint == "" && strings.Contains(strings.ToLower(err.Error()), "username")) {
		return authDomain.ErrUsernameAlreadyExists
	}
	return authDomain.ErrEmailAlreadyExists
}

// NewPostgreSQLUserRepository creates a new PostgreSQL User repository.
func NewPostgreSQLUserRepository(
	db *sql.DB,
	accessor *cryptoService.FieldAccessor,
) *PostgreSQLUserRepository {
	return &PostgreSQLUserRepository{db: db, accessor: accessor}
}
