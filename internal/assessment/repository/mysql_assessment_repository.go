package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	assessmentDomain "github.com/allisson/careportal/internal/assessment/domain"
	cryptoDomain "github.com/allisson/careportal/internal/crypto/domain"
	cryptoService "github.com/allisson/careportal/internal/crypto/service"
	"github.com/allisson/careportal/internal/database"
	apperrors "github.com/allisson/careportal/internal/errors"
)

// MySQLAssessmentRepository implements Assessment persistence for MySQL.
// UUIDs are stored as BINARY(16).
type MySQLAssessmentRepository struct {
	db       *sql.DB
	accessor *cryptoService.FieldAccessor
}

// Create inserts a new Assessment. The caller's struct keeps its plaintext fields.
func (m *MySQLAssessmentRepository) Create(ctx context.Context, assessment *assessmentDomain.Assessment) error {
	querier := database.GetTx(ctx, m.db)

	row := *assessment
	if err := m.accessor.Seal(&row); err != nil {
		return apperrors.Wrap(err, "failed to seal assessment")
	}

	id, err := row.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal assessment id")
	}
	createdBy, err := row.CreatedBy.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal created by")
	}

	query := `INSERT INTO assessments (` + assessmentColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	now := nowUTC()
	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		row.Patient.PatientID,
		row.Patient.Name,
		row.Patient.Age,
		row.Patient.Gender,
		row.Patient.Contact,
		row.Details.Type,
		row.Details.Description,
		row.Details.Notes,
		row.Scheduling.ScheduledDate,
		row.Scheduling.Doctor,
		row.Scheduling.Location,
		row.Consent.Given,
		row.Consent.Date,
		row.Consent.By,
		createdBy,
		now,
		now,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create assessment")
	}

	assessment.CreatedAt = now
	assessment.UpdatedAt = now
	return nil
}

// Update modifies an existing Assessment.
func (m *MySQLAssessmentRepository) Update(ctx context.Context, assessment *assessmentDomain.Assessment) error {
	querier := database.GetTx(ctx, m.db)

	row := *assessment
	if err := m.accessor.Seal(&row); err != nil {
		return apperrors.Wrap(err, "failed to seal assessment")
	}

	id, err := row.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal assessment id")
	}

	query := `UPDATE assessments
			  SET patient_id = ?,
			      patient_name = ?,
			      patient_age = ?,
			      patient_gender = ?,
			      patient_contact = ?,
			      assessment_type = ?,
			      description = ?,
			      notes = ?,
			      scheduled_date = ?,
			      doctor = ?,
			      location = ?,
			      consent_given = ?,
			      consent_date = ?,
			      consent_by = ?,
			      updated_at = ?
			  WHERE id = ?`

	now := nowUTC()
	result, err := querier.ExecContext(
		ctx,
		query,
		row.Patient.PatientID,
		row.Patient.Name,
		row.Patient.Age,
		row.Patient.Gender,
		row.Patient.Contact,
		row.Details.Type,
		row.Details.Description,
		row.Details.Notes,
		row.Scheduling.ScheduledDate,
		row.Scheduling.Doctor,
		row.Scheduling.Location,
		row.Consent.Given,
		row.Consent.Date,
		row.Consent.By,
		now,
		id,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update assessment")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return assessmentDomain.ErrAssessmentNotFound
	}

	assessment.UpdatedAt = now
	return nil
}

// GetByID retrieves an Assessment by ID.
func (m *MySQLAssessmentRepository) GetByID(
	ctx context.Context,
	assessmentID uuid.UUID,
) (*assessmentDomain.Assessment, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := assessmentID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal assessment id")
	}

	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE id = ?`

	assessment, err := scanMySQLAssessment(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, assessmentDomain.ErrAssessmentNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get assessment")
	}

	if err := m.accessor.Open(assessment, assessmentRecordType, assessment.ID.String()); err != nil {
		return nil, err
	}
	return assessment, nil
}

// List retrieves a page of assessments ordered by created_at descending. Rows that fail
// to open are left out and reported as corrupt.
func (m *MySQLAssessmentRepository) List(
	ctx context.Context,
	filter assessmentDomain.ListFilter,
) ([]*assessmentDomain.Assessment, []*cryptoDomain.CorruptRecordError, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + assessmentColumns + ` FROM assessments
			  ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, filter.Limit, filter.Offset)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to list assessments")
	}
	defer func() {
		_ = rows.Close()
	}()

	assessments := make([]*assessmentDomain.Assessment, 0)
	var corrupt []*cryptoDomain.CorruptRecordError
	for rows.Next() {
		assessment, err := scanMySQLAssessment(rows)
		if err != nil {
			return nil, nil, apperrors.Wrap(err, "failed to scan assessment")
		}

		ok, err := openListed(m.accessor, assessment, &corrupt)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			assessments = append(assessments, assessment)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to iterate assessments")
	}

	return assessments, corrupt, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMySQLAssessment(row rowScanner) (*assessmentDomain.Assessment, error) {
	var assessment assessmentDomain.Assessment
	var id, createdBy []byte

	if err := row.Scan(assessmentFields(&assessment, &id, &createdBy)...); err != nil {
		return nil, err
	}

	if err := assessment.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal assessment id")
	}
	if err := assessment.CreatedBy.UnmarshalBinary(createdBy); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal created by")
	}
	return &assessment, nil
}

// nowUTC matches the microsecond precision of DATETIME(6) columns.
func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// NewMySQLAssessmentRepository creates a new MySQL Assessment repository.
func NewMySQLAssessmentRepository(
	db *sql.DB,
	accessor *cryptoService.FieldAccessor,
) *MySQLAssessmentRepository {
	return &MySQLAssessmentRepository{db: db, accessor: accessor}
}
