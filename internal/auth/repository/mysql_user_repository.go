package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	authDomain "github.com/allisson/careportal/internal/auth/domain"
	cryptoService "github.com/allisson/careportal/internal/crypto/service"
	"github.com/allisson/careportal/internal/database"
	apperrors "github.com/allisson/careportal/internal/errors"
)

// MySQLUserRepository implements User persistence for MySQL.
// UUIDs are stored as BINARY(16).
type MySQLUserRepository struct {
	db       *sql.DB
	accessor *cryptoService.FieldAccessor
}

// Create inserts a new User. The caller's struct keeps its plaintext email.
func (m *MySQLUserRepository) Create(ctx context.Context, user *authDomain.User) error {
	querier := database.GetTx(ctx, m.db)

	row := *user
	if err := m.accessor.Seal(&row); err != nil {
		return apperrors.Wrap(err, "failed to seal user")
	}

	id, err := row.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `INSERT INTO users (id, username, email, email_index, password_hash, role, is_verified,
			  verification_token_hash, verification_expires_at, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := nowUTC()
	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		row.Username,
		row.Email,
		row.EmailIndex,
		row.PasswordHash,
		row.Role,
		row.IsVerified,
		row.VerificationTokenHash,
		row.VerificationExpiresAt,
		now,
		now,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return uniqueViolationError(err)
		}
		return apperrors.Wrap(err, "failed to create user")
	}

	user.EmailIndex = row.EmailIndex
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

// Update modifies an existing User.
func (m *MySQLUserRepository) Update(ctx context.Context, user *authDomain.User) error {
	querier := database.GetTx(ctx, m.db)

	row := *user
	if err := m.accessor.Seal(&row); err != nil {
		return apperrors.Wrap(err, "failed to seal user")
	}

	id, err := row.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `UPDATE users
			  SET username = ?,
			      email = ?,
			      email_index = ?,
			      password_hash = ?,
			      role = ?,
			      is_verified = ?,
			      verification_token_hash = ?,
			      verification_expires_at = ?,
			      updated_at = ?
			  WHERE id = ?`

	now := nowUTC()
	_, err = querier.ExecContext(
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
		now,
		id,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return uniqueViolationError(err)
		}
		return apperrors.Wrap(err, "failed to update user")
	}

	user.EmailIndex = row.EmailIndex
	user.UpdatedAt = now
	return nil
}

// GetByID retrieves a User by ID.
func (m *MySQLUserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*authDomain.User, error) {
	id, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}
	return m.getBy(ctx, "id = ?", id)
}

// GetByEmailIndex retrieves a User by the blind index of its email.
func (m *MySQLUserRepository) GetByEmailIndex(
	ctx context.Context,
	emailIndex string,
) (*authDomain.User, error) {
	return m.getBy(ctx, "email_index = ?", emailIndex)
}

// GetByVerificationTokenHash retrieves the User holding a pending verification token.
func (m *MySQLUserRepository) GetByVerificationTokenHash(
	ctx context.Context,
	tokenHash string,
) (*authDomain.User, error) {
	return m.getBy(ctx, "verification_token_hash = ? AND is_verified = FALSE", tokenHash)
}

func (m *MySQLUserRepository) getBy(ctx context.Context, where string, arg any) (*authDomain.User, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, username, email, email_index, password_hash, role, is_verified,
			  verification_token_hash, verification_expires_at, created_at, updated_at
			  FROM users WHERE ` + where

	var user authDomain.User
	var id []byte

	err := querier.QueryRowContext(ctx, query, arg).Scan(
		&id,
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

	if err := user.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal user id")
	}

	if err := m.accessor.Open(&user, userRecordType, user.ID.String()); err != nil {
		return nil, err
	}
	return &user, nil
}

// NewMySQLUserRepository creates a new MySQL User repository.
func NewMySQLUserRepository(db *sql.DB, accessor *cryptoService.FieldAccessor) *MySQLUserRepository {
	return &MySQLUserRepository{db: db, accessor: accessor}
}

// nowUTC matches the microsecond precision of DATETIME(6) columns.
func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
