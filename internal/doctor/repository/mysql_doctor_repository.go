package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/careportal/internal/crypto/domain"
	cryptoService "github.com/allisson/careportal/internal/crypto/service"
	"github.com/allisson/careportal/internal/database"
	doctorDomain "github.com/allisson/careportal/internal/doctor/domain"
	apperrors "github.com/allisson/careportal/internal/errors"
)

// MySQLDoctorRepository implements Doctor persistence for MySQL.
// UUIDs are stored as BINARY(16).
type MySQLDoctorRepository struct {
	db       *sql.DB
	accessor *cryptoService.FieldAccessor
}

// Create inserts a new Doctor. The caller's struct keeps its plaintext fields.
func (m *MySQLDoctorRepository) Create(ctx context.Context, doctor *doctorDomain.Doctor) error {
	querier := database.GetTx(ctx, m.db)

	row := *doctor
	if err := m.accessor.Seal(&row); err != nil {
		return apperrors.Wrap(err, "failed to seal doctor")
	}

	id, err := row.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal doctor id")
	}
	createdBy, err := row.CreatedBy.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal created by")
	}
	deactivatedBy, err := marshalNullableUUID(row.DeactivatedBy)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal deactivated by")
	}

	query := `INSERT INTO doctors (id, code, name, name_index, email, email_index, phone, phone_index,
			  specialty, specialty_index, status, deactivated_at, deactivated_by, created_by,
			  created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := nowUTC()
	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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
		deactivatedBy,
		createdBy,
		now,
		now,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return uniqueViolationError(err)
		}
		return apperrors.Wrap(err, "failed to create doctor")
	}

	copyIndexes(doctor, &row)
	doctor.CreatedAt = now
	doctor.UpdatedAt = now
	return nil
}

// Update modifies an existing Doctor.
func (m *MySQLDoctorRepository) Update(ctx context.Context, doctor *doctorDomain.Doctor) error {
	querier := database.GetTx(ctx, m.db)

	row := *doctor
	if err := m.accessor.Seal(&row); err != nil {
		return apperrors.Wrap(err, "failed to seal doctor")
	}

	id, err := row.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal doctor id")
	}
	deactivatedBy, err := marshalNullableUUID(row.DeactivatedBy)
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal deactivated by")
	}

	query := `UPDATE doctors
			  SET name = ?,
			      name_index = ?,
			      email = ?,
			      email_index = ?,
			      phone = ?,
			      phone_index = ?,
			      specialty = ?,
			      specialty_index = ?,
			      status = ?,
			      deactivated_at = ?,
			      deactivated_by = ?,
			      updated_at = ?
			  WHERE id = ?`

	now := nowUTC()
	result, err := querier.ExecContext(
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
		deactivatedBy,
		now,
		id,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return uniqueViolationError(err)
		}
		return apperrors.Wrap(err, "failed to update doctor")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return doctorDomain.ErrDoctorNotFound
	}

	copyIndexes(doctor, &row)
	doctor.UpdatedAt = now
	return nil
}

// GetByID retrieves a Doctor by ID. A row that fails to open is returned as a
// *cryptoDomain.CorruptRecordError.
func (m *MySQLDoctorRepository) GetByID(ctx context.Context, doctorID uuid.UUID) (*doctorDomain.Doctor, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := doctorID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal doctor id")
	}

	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE id = ?`

	doctor, err := scanMySQLDoctor(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, doctorDomain.ErrDoctorNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get doctor")
	}

	if err := m.accessor.Open(doctor, doctorRecordType, doctor.ID.String()); err != nil {
		return nil, err
	}
	return doctor, nil
}

// EmailIndexTaken reports whether a doctor other than excludeID holds emailIndex.
func (m *MySQLDoctorRepository) EmailIndexTaken(
	ctx context.Context,
	emailIndex string,
	excludeID uuid.UUID,
) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := excludeID.MarshalBinary()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to marshal doctor id")
	}

	query := `SELECT EXISTS (SELECT 1 FROM doctors WHERE email_index = ? AND id <> ?)`

	var taken bool
	if err := querier.QueryRowContext(ctx, query, emailIndex, id).Scan(&taken); err != nil {
		return false, apperrors.Wrap(err, "failed to check doctor email index")
	}
	return taken, nil
}

// List retrieves doctors ordered by created_at descending. Rows that fail to open are
// left out of the result and reported as corrupt.
func (m *MySQLDoctorRepository) List(
	ctx context.Context,
	filter doctorDomain.SearchFilter,
) ([]*doctorDomain.Doctor, []*cryptoDomain.CorruptRecordError, error) {
	querier := database.GetTx(ctx, m.db)

	where, args := searchConditions(filter, mySQLPlaceholder)
	query := `SELECT ` + doctorColumns + ` FROM doctors` + where + ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit, filter.Offset)
		query += " LIMIT ? OFFSET ?"
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
		doctor, err := scanMySQLDoctor(rows)
		if err != nil {
			return nil, nil, apperrors.Wrap(err, "failed to scan doctor")
		}

		if ok, err := openListed(m.accessor, doctor, &corrupt); err != nil {
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
func (m *MySQLDoctorRepository) Count(ctx context.Context, filter doctorDomain.SearchFilter) (int, error) {
	querier := database.GetTx(ctx, m.db)

	where, args := searchConditions(filter, mySQLPlaceholder)

	var total int
	if err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM doctors`+where, args...).Scan(&total); err != nil {
		return 0, apperrors.Wrap(err, "failed to count doctors")
	}
	return total, nil
}

func scanMySQLDoctor(row rowScanner) (*doctorDomain.Doctor, error) {
	var doctor doctorDomain.Doctor
	var id, deactivatedBy, createdBy []byte
	var status string

	err := row.Scan(
		&id,
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
		&deactivatedBy,
		&createdBy,
		&doctor.CreatedAt,
		&doctor.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := doctor.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal doctor id")
	}
	if err := doctor.CreatedBy.UnmarshalBinary(createdBy); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal created by")
	}
	if deactivatedBy != nil {
		var by uuid.UUID
		if err := by.UnmarshalBinary(deactivatedBy); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal deactivated by")
		}
		doctor.DeactivatedBy = &by
	}

	doctor.Status = doctorDomain.Status(status)
	return &doctor, nil
}

func mySQLPlaceholder(int) string {
	return "?"
}

func marshalNullableUUID(id *uuid.UUID) ([]byte, error) {
	if id == nil {
		return nil, nil
	}
	return id.MarshalBinary()
}

// nowUTC matches the microsecond precision of DATETIME(6) columns.
func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// NewMySQLDoctorRepository creates a new MySQL Doctor repository.
func NewMySQLDoctorRepository(db *sql.DB, accessor *cryptoService.FieldAccessor) *MySQLDoctorRepository {
	return &MySQLDoctorRepository{db: db, accessor: accessor}
}
