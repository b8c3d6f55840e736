// Package repository implements doctor directory persistence.
//
// PostgreSQL uses native UUID types, MySQL uses BINARY(16) types. Contact fields are
// sealed by the field accessor before every write; each carries a blind index column
// that backs exact-match search and the email uniqueness constraint.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/careportal/internal/crypto/domain"
	cryptoService "github.com/allisson/careportal/internal/crypto/service"
	"github.com/allisson/careportal/internal/database"
	doctorDomain "github.com/allisson/careportal/internal/doctor/domain"
	apperrors "github.com/allisson/careportal/internal/errors"
)

const doctorRecordType = "Doctor"

const doctorColumns = `id, code, name, name_index, email, email_index, phone, phone_index,
		  specialty, specialty_index, status, deactivated_at, deactivated_by, created_by,
		  created_at, updated_at`

// PostgreSQLDoctorRepository implements Doctor persistence for PostgreSQL.
type PostgreSQLDoctorRepository struct {
	db       *sql.DB
	accessor *cryptoService.FieldAccessor
}

// Create inserts a new Doctor. The caller's struct keeps its plaintext fields.
func (p *PostgreSQLDoctorRepository) Create(ctx context.Context, doctor *doctorDomain.Doctor) error {
	querier := database.GetTx(ctx, p.db)

	row := *doctor
	if err := p.accessor.Seal(&row); err != nil {
		return apperrors.Wrap(err, "failed to seal doctor")
	}

	query := `INSERT INTO doctors (id, code, name, name_index, email, email_index, phone, phone_index,
			  specialty, specialty_index, status, deactivated_at, deactivated_by, created_by,
			  created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
			  RETURNING created_at, updated_at`

	err := querier.QueryRowContext(
		ctx,
		query,
		row.ID,
		row.Code,
		row.Name,
		row.NameIndex,
		row.Email,
		row.EmailIndex,
		row.Phone,
		row.PhoneIndex,
		row.Specialty,
		row.SpecialtyIndex,
		string(row.Status),
		row.DeactivatedAt,
		row.DeactivatedBy,
		row.CreatedBy,
	).Scan(&doctor.CreatedAt, &doctor.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return uniqueViolationError(err)
		}
		return apperrors.Wrap(err, "failed to create doctor")
	}

	copyIndexes(doctor, &row)
	return nil
}

// Update modifies an existing Doctor.
func (p *PostgreSQLDoctorRepository) Update(ctx context.Context, doctor *doctorDomain.Doctor) error {
	querier := database.GetTx(ctx, p.db)

	row := *doctor
	if err := p.accessor.Seal(&row); err != nil {
		return apperrors.Wrap(err, "failed to seal doctor")
	}

	query := `UPDATE doctors
			  SET name = $1,
			      name_index = $2,
			      email = $3,
			      email_index = $4,
			      phone = $5,
			      phone_index = $6,
			      specialty = $7,
			      specialty_index = $8,
			      status = $9,
			      deactivated_at = $10,
			      deactivated_by = $11,
			      updated_at = NOW()
			  WHERE id = $12
			  RETURNING updated_at`

	err := querier.QueryRowContext(
		ctx,
		query,
		row.Name,
		row.NameIndex,
		row.Email,
		row.EmailIndex,
		row.Phone,
		row.PhoneIndex,
		row.Specialty,
		row.SpecialtyIndex,
		string(row.Status),
		row.DeactivatedAt,
		row.DeactivatedBy,
		row.ID,
	).Scan(&doctor.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return doctorDomain.ErrDoctorNotFound
		}
		if database.IsUniqueViolation(err) {
			return uniqueViolationError(err)
		}
		return apperrors.Wrap(err, "failed to update doctor")
	}

	copyIndexes(doctor, &row)
	return nil
}

// GetByID retrieves a Doctor by ID. A row that fails to open is returned as a
// *cryptoDomain.CorruptRecordError.
func (p *PostgreSQLDoctorRepository) GetByID(
	ctx context.Context,
	doctorID uuid.UUID,
) (*doctorDomain.Doctor, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE id = $1`

	doctor, err := scanPostgreSQLDoctor(querier.QueryRowContext(ctx, query, doctorID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, doctorDomain.ErrDoctorNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get doctor")
	}

	if err := p.accessor.Open(doctor, doctorRecordType, doctor.ID.String()); err != nil {
		return nil, err
	}
	return doctor, nil
}

// EmailIndexTaken reports whether a doctor other than excludeID holds emailIndex.
func (p *PostgreSQLDoctorRepository) EmailIndexTaken(
	ctx context.Context,
	emailIndex string,
	excludeID uuid.UUID,
) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT EXISTS (SELECT 1 FROM doctors WHERE email_index = $1 AND id <> $2)`

	var taken bool
	if err := querier.QueryRowContext(ctx, query, emailIndex, excludeID).Scan(&taken); err != nil {
		return false, apperrors.Wrap(err, "failed to check doctor email index")
	}
	return taken, nil
}

// List retrieves doctors ordered by created_at descending. Rows that fail to open are
// left out of the result and reported as corrupt.
func (p *PostgreSQLDoctorRepository) List(
	ctx context.Context,
	filter doctorDomain.SearchFilter,
) ([]*doctorDomain.Doctor, []*cryptoDomain.CorruptRecordError, error) {
	querier := database.GetTx(ctx, p.db)

	where, args := searchConditions(filter, postgreSQLPlaceholder)
	query := `SELECT ` + doctorColumns + ` FROM doctors` + where + ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to list doctors")
	}
	defer func() {
		_ = rows.Close()
	}()

	doctors := make([]*doctorDomain.Doctor, 0)
	var corrupt []*cryptoDomain.CorruptRecordError
	for rows.Next() {
		doctor, err := scanPostgreSQLDoctor(rows)
		if err != nil {
			return nil, nil, apperrors.Wrap(err, "failed to scan doctor")
		}

		if ok, err := openListed(p.accessor, doctor, &corrupt); err != nil {
			return nil, nil, err
		} else if ok {
			doctors = append(doctors, doctor)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to iterate doctors")
	}

	return doctors, corrupt, nil
}

// Count returns the number of doctors matching filter.
func (p *PostgreSQLDoctorRepository) Count(ctx context.Context, filter doctorDomain.SearchFilter) (int, error) {
	querier := database.GetTx(ctx, p.db)

	where, args := searchConditions(filter, postgreSQLPlaceholder)

	var total int
	if err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM doctors`+where, args...).Scan(&total); err != nil {
		return 0, apperrors.Wrap(err, "failed to count doctors")
	}
	return total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPostgreSQLDoctor(row rowScanner) (*doctorDomain.Doctor, error) {
	var doctor doctorDomain.Doctor
	var status string

	err := row.Scan(
		&doctor.ID,
		&doctor.Code,
		&doctor.Name,
		&doctor.NameIndex,
		&doctor.Email,
		&doctor.EmailIndex,
		&doctor.Phone,
		&doctor.PhoneIndex,
		&doctor.Specialty,
		&doctor.SpecialtyIndex,
		&status,
		&doctor.DeactivatedAt,
		&doctor.DeactivatedBy,
		&doctor.CreatedBy,
		&doctor.CreatedAt,
		&doctor.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	doctor.Status = doctorDomain.Status(status)
	return &doctor, nil
}

func postgreSQLPlaceholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// searchConditions builds the WHERE clause shared by List and Count.
func searchConditions(filter doctorDomain.SearchFilter, placeholder func(n int) string) (string, []any) {
	var conditions []string
	var args []any

	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conditions = append(conditions, "status = "+placeholder(len(args)))
	}

	if filter.HasSearch() {
		var matches []string
		for _, match := range []struct {
			column string
			value  string
		}{
			{"code", filter.Code},
			{"name_index", filter.NameIndex},
			{"email_index", filter.EmailIndex},
			{"phone_index", filter.PhoneIndex},
			{"specialty_index", filter.SpecialtyIndex},
		} {
			if match.value == "" {
				continue
			}
			args = append(args, match.value)
			matches = append(matches, match.column+" = "+placeholder(len(args)))
		}
		conditions = append(conditions, "("+strings.Join(matches, " OR ")+")")
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// openListed opens a listed row. A corrupt row is appended to corrupt and reported as
// not ok; any other failure is returned.
func openListed(
	accessor *cryptoService.FieldAccessor,
	doctor *doctorDomain.Doctor,
	corrupt *[]*cryptoDomain.CorruptRecordError,
) (bool, error) {
	err := accessor.Open(doctor, doctorRecordType, doctor.ID.String())
	if err == nil {
		return true, nil
	}

	var corruptErr *cryptoDomain.CorruptRecordError
	if errors.As(err, &corruptErr) {
		*corrupt = append(*corrupt, corruptErr)
		return false, nil
	}
	return false, apperrors.Wrap(err, "failed to open doctor")
}

func copyIndexes(dst, sealed *doctorDomain.Doctor) {
	dst.NameIndex = sealed.NameIndex
	dst.EmailIndex = sealed.EmailIndex
	dst.PhoneIndex = sealed.PhoneIndex
	dst.SpecialtyIndex = sealed.SpecialtyIndex
}

// uniqueViolationError maps a doctors table unique violation to the domain error of the
// violated column.
func uniqueViolationError(err error) error {
	constraint := database.ViolatedConstraint(err)
	if strings.Contains(constraint, "code") ||
		(constraint == "" && strings.Contains(strings.ToLower(err.Error()), "code")) {
		return doctorDomain.ErrDoctorCodeAlreadyExists
	}
	return doctorDomain.ErrDoctorEmailAlreadyExists
}

// NewPostgreSQLDoctorRepository creates a new PostgreSQL Doctor repository.
func NewPostgreSQLDoctorRepository(
	db *sql.DB,
	accessor *cryptoService.FieldAccessor,
) *PostgreSQLDoctorRepository {
	return &PostgreSQLDoctorRepository{db: db, accessor: accessor}
}
