// Package repository implements assessment persistence for PostgreSQL and MySQL.
// Patient name, contact, notes and the consenting party are sealed before every write.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	assessmentDomain "github.com/allisson/careportal/internal/assessment/domain"
	cryptoDomain "github.com/allisson/careportal/internal/crypto/domain"
	cryptoService "github.com/allisson/careportal/internal/crypto/service"
	"github.com/allisson/careportal/internal/database"
	apperrors "github.com/allisson/careportal/internal/errors"
)

const assessmentRecordType = "Assessment"

const assessmentColumns = `id, patient_id, patient_name, patient_age, patient_gender, patient_contact,
		  assessment_type, description, notes, scheduled_date, doctor, location,
		  consent_given, consent_date, consent_by, created_by, created_at, updated_at`

// PostgreSQLAssessmentRepository implements Assessment persistence for PostgreSQL.
type PostgreSQLAssessmentRepository struct {
	db       *sql.DB
	accessor *cryptoService.FieldAccessor
}

// Create inserts a new Assessment. The caller's struct keeps its plaintext fields.
func (p *PostgreSQLAssessmentRepository) Create(
	ctx context.Context,
	assessment *assessmentDomain.Assessment,
) error {
	querier := database.GetTx(ctx, p.db)

	row := *assessment
	if err := p.accessor.Seal(&row); err != nil {
		return apperrors.Wrap(err, "failed to seal assessment")
	}

	query := `INSERT INTO assessments (` + assessmentColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
			  RETURNING created_at, updated_at`

	err := querier.QueryRowContext(
		ctx,
		query,
		row.ID,
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
		row.CreatedBy,
	).Scan(&assessment.CreatedAt, &assessment.UpdatedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create assessment")
	}

	return nil
}

// Update modifies an existing Assessment.
func (p *PostgreSQLAssessmentRepository) Update(
	ctx context.Context,
	assessment *assessmentDomain.Assessment,
) error {
	querier := database.GetTx(ctx, p.db)

	row := *assessment
	if err := p.accessor.Seal(&row); err != nil {
		return apperrors.Wrap(err, "failed to seal assessment")
	}

	query := `UPDATE assessments
			  SET patient_id = $1,
			      patient_name = $2,
			      patient_age = $3,
			      patient_gender = $4,
			      patient_contact = $5,
			      assessment_type = $6,
			      description = $7,
			      notes = $8,
			      scheduled_date = $9,
			      doctor = $10,
			      location = $11,
			      consent_given = $12,
			      consent_date = $13,
			      consent_by = $14,
			      updated_at = NOW()
			  WHERE id = $15
			  RETURNING updated_at`

	err := querier.QueryRowContext(
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
		row.ID,
	).Scan(&assessment.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return assessmentDomain.ErrAssessmentNotFound
		}
		return apperrors.Wrap(err, "failed to update assessment")
	}

	return nil
}

// GetByID retrieves an Assessment by ID.
func (p *PostgreSQLAssessmentRepository) GetByID(
	ctx context.Context,
	assessmentID uuid.UUID,
) (*assessmentDomain.Assessment, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE id = $1`

	var assessment assessmentDomain.Assessment
	err := querier.QueryRowContext(ctx, query, assessmentID).
		Scan(assessmentFields(&assessment, &assessment.ID, &assessment.CreatedBy)...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, assessmentDomain.ErrAssessmentNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get assessment")
	}

	if err := p.accessor.Open(&assessment, assessmentRecordType, assessment.ID.String()); err != nil {
		return nil, err
	}
	return &assessment, nil
}

// List retrieves a page of assessments ordered by created_at descending. Rows that fail
// to open are left out and reported as corrupt.
func (p *PostgreSQLAssessmentRepository) List(
	ctx context.Context,
	filter assessmentDomain.ListFilter,
) ([]*assessmentDomain.Assessment, []*cryptoDomain.CorruptRecordError, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + assessmentColumns + ` FROM assessments
			  ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`

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
		var assessment assessmentDomain.Assessment
		if err := rows.Scan(assessmentFields(&assessment, &assessment.ID, &assessment.CreatedBy)...); err != nil {
			return nil, nil, apperrors.Wrap(err, "failed to scan assessment")
		}

		ok, err := openListed(p.accessor, &assessment, &corrupt)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			assessments = append(assessments, &assessment)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to iterate assessments")
	}

	return assessments, corrupt, nil
}

// assessmentFields returns the scan destinations in assessmentColumns order. The id and
// created_by destinations differ per driver.
func assessmentFields(a *assessmentDomain.Assessment, id, createdBy any) []any {
	return []any{
		id,
		&a.Patient.PatientID,
		&a.Patient.Name,
		&a.Patient.Age,
		&a.Patient.Gender,
		&a.Patient.Contact,
		&a.Details.Type,
		&a.Details.Description,
		&a.Details.Notes,
		&a.Scheduling.ScheduledDate,
		&a.Scheduling.Doctor,
		&a.Scheduling.Location,
		&a.Consent.Given,
		&a.Consent.Date,
		&a.Consent.By,
		createdBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	}
}

// openListed opens a listed row. A corrupt row is appended to corrupt and reported as
// not ok; any other failure is returned.
func openListed(
	accessor *cryptoService.FieldAccessor,
	assessment *assessmentDomain.Assessment,
	corrupt *[]*cryptoDomain.CorruptRecordError,
) (bool, error) {
	err := accessor.Open(assessment, assessmentRecordType, assessment.ID.String())
	if err == nil {
		return true, nil
	}

	var corruptErr *cryptoDomain.CorruptRecordError
	if errors.As(err, &corruptErr) {
		*corrupt = append(*corrupt, corruptErr)
		return false, nil
	}
	return false, apperrors.Wrap(err, "failed to open assessment")
}

// NewPostgreSQLAssessmentRepository creates a new PostgreSQL Assessment repository.
func NewPostgreSQLAssessmentRepository(
	db *sql.DB,
	accessor *cryptoService.FieldAccessor,
) *PostgreSQLAssessmentRepository {
	return &PostgreSQLAssessmentRepository{db: db, accessor: accessor}
}
