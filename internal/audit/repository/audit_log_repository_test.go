package repository

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	auditDomain "github.com/allisson/careportal/internal/audit/domain"
	"github.com/allisson/careportal/internal/testutil"
)

var auditLogColumns = []string{
	"id", "actor", "action", "record_type", "record_id", "network_origin", "user_agent",
	"outcome", "metadata", "signature", "created_at",
}

// sealedActor matches an envelope that is not the plaintext actor.
type sealedActor struct {
	plaintext string
}

func (s sealedActor) Match(v driver.Value) bool {
	str, ok := v.(string)
	return ok && str != "" && str != s.plaintext
}

func newTestAuditLog() *auditDomain.AuditLog {
	recordID := uuid.Must(uuid.NewV7()).String()
	return &auditDomain.AuditLog{
		ID:            uuid.Must(uuid.NewV7()),
		Actor:         "user-1",
		Action:        "doctors:create",
		RecordType:    "Doctor",
		RecordID:      &recordID,
		NetworkOrigin: "203.0.113.7",
		UserAgent:     "curl/8.0",
		Outcome:       auditDomain.OutcomeSuccess,
		Metadata:      map[string]any{"role": "Admin", "responseCode": float64(201)},
		Signature:     []byte{0x01, 0x02},
		CreatedAt:     time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestPostgreSQLAuditLogRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgreSQLAuditLogRepository(db, testutil.NewFieldAccessor(t, 0x01))
	auditLog := newTestAuditLog()
	metadataJSON, err := json.Marshal(auditLog.Metadata)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(
			auditLog.ID,
			sealedActor{plaintext: "user-1"},
			"doctors:create",
			"Doctor",
			auditLog.RecordID,
			"203.0.113.7",
			"curl/8.0",
			"SUCCESS",
			metadataJSON,
			auditLog.Signature,
			auditLog.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), auditLog))
	assert.Equal(t, "user-1", auditLog.Actor, "caller keeps plaintext")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLAuditLogRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	accessor := testutil.NewFieldAccessor(t, 0x01)
	repo := NewPostgreSQLAuditLogRepository(db, accessor)

	healthy := newTestAuditLog()
	healthyActor, err := accessor.Encrypt(healthy.Actor)
	require.NoError(t, err)

	corrupt := newTestAuditLog()
	corruptActor, err := testutil.NewFieldAccessor(t, 0x02).Encrypt(corrupt.Actor)
	require.NoError(t, err)

	from := time.Now().UTC().Add(-time.Hour)
	to := time.Now().UTC()

	mock.ExpectQuery(`SELECT (.+) FROM audit_logs WHERE created_at >= \$1 AND created_at <= \$2 ORDER BY created_at DESC, id DESC LIMIT \$3 OFFSET \$4`).
		WithArgs(from, to, 10, 0).
		WillReturnRows(sqlmock.NewRows(auditLogColumns).
			AddRow(
				healthy.ID.String(), healthyActor, healthy.Action, healthy.RecordType, *healthy.RecordID,
				healthy.NetworkOrigin, healthy.UserAgent, "SUCCESS", []byte(`{"role":"Admin"}`),
				healthy.Signature, healthy.CreatedAt,
			).
			AddRow(
				corrupt.ID.String(), corruptActor, corrupt.Action, corrupt.RecordType, nil,
				corrupt.NetworkOrigin, corrupt.UserAgent, "FAILURE", nil, nil, corrupt.CreatedAt,
			))

	logs, err := repo.List(context.Background(), auditDomain.ListFilter{
		Limit:         10,
		CreatedAtFrom: &from,
		CreatedAtTo:   &to,
	})
	require.NoError(t, err)
	require.Len(t, logs, 2)

	assert.Equal(t, "user-1", logs[0].Actor)
	assert.False(t, logs[0].ActorCorrupt)
	assert.Equal(t, map[string]any{"role": "Admin"}, logs[0].Metadata)
	assert.Equal(t, auditDomain.OutcomeSuccess, logs[0].Outcome)

	assert.True(t, logs[1].ActorCorrupt)
	assert.Empty(t, logs[1].Actor)
	assert.Nil(t, logs[1].RecordID)
	assert.Nil(t, logs[1].Metadata)
	assert.Equal(t, auditDomain.OutcomeFailure, logs[1].Outcome)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLAuditLogRepository_List_NoFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewPostgreSQLAuditLogRepository(db, testutil.NewFieldAccessor(t, 0x01))

	mock.ExpectQuery(`SELECT (.+) FROM audit_logs ORDER BY created_at DESC, id DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(50, 100).
		WillReturnRows(sqlmock.NewRows(auditLogColumns))

	logs, err := repo.List(context.Background(), auditDomain.ListFilter{Offset: 100, Limit: 50})
	require.NoError(t, err)
	assert.NotNil(t, logs)
	assert.Empty(t, logs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLAuditLogRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	repo := NewMySQLAuditLogRepository(db, testutil.NewFieldAccessor(t, 0x01))
	auditLog := newTestAuditLog()
	auditLog.Metadata = nil
	id, err := auditLog.ID.MarshalBinary()
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(
			id,
			sealedActor{plaintext: "user-1"},
			"doctors:create",
			"Doctor",
			auditLog.RecordID,
			"203.0.113.7",
			"curl/8.0",
			"SUCCESS",
			nil,
			auditLog.Signature,
			auditLog.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), auditLog))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLAuditLogRepository_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	accessor := testutil.NewFieldAccessor(t, 0x01)
	repo := NewMySQLAuditLogRepository(db, accessor)

	auditLog := newTestAuditLog()
	id, err := auditLog.ID.MarshalBinary()
	require.NoError(t, err)
	actor, err := accessor.Encrypt(auditLog.Actor)
	require.NoError(t, err)
	from := time.Now().UTC().Add(-time.Hour)

	mock.ExpectQuery(`SELECT (.+) FROM audit_logs WHERE created_at >= \? ORDER BY created_at DESC, id DESC LIMIT \? OFFSET \?`).
		WithArgs(from, 20, 0).
		WillReturnRows(sqlmock.NewRows(auditLogColumns).AddRow(
			id, actor, auditLog.Action, auditLog.RecordType, *auditLog.RecordID, auditLog.NetworkOrigin,
			auditLog.UserAgent, "SUCCESS", nil, auditLog.Signature, auditLog.CreatedAt,
		))

	logs, err := repo.List(context.Background(), auditDomain.ListFilter{Limit: 20, CreatedAtFrom: &from})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, auditLog.ID, logs[0].ID)
	assert.Equal(t, "user-1", logs[0].Actor)
	assert.Equal(t, *auditLog.RecordID, *logs[0].RecordID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMongoAuditLogDocument_RoundTrip(t *testing.T) {
	accessor := testutil.NewFieldAccessor(t, 0x01)
	auditLog := newTestAuditLog()

	row, metadataJSON, err := sealAuditLog(accessor, auditLog)
	require.NoError(t, err)

	doc := toAuditLogDocument(row, metadataJSON)
	assert.Equal(t, auditLog.ID.String(), doc.ID)
	assert.NotEqual(t, "user-1", doc.Actor)
	require.NotNil(t, doc.Metadata)

	// Through BSON, as the driver would store and load it.
	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var loaded auditLogDocument
	require.NoError(t, bson.Unmarshal(raw, &loaded))

	result, err := fromAuditLogDocument(accessor, &loaded)
	require.NoError(t, err)
	assert.Equal(t, auditLog.ID, result.ID)
	assert.Equal(t, "user-1", result.Actor)
	assert.Equal(t, auditLog.Metadata, result.Metadata)
	assert.Equal(t, auditLog.Signature, result.Signature)
	assert.True(t, auditLog.CreatedAt.Equal(result.CreatedAt))
	assert.False(t, result.ActorCorrupt)
}

func TestMongoAuditLogDocument_CorruptActor(t *testing.T) {
	auditLog := newTestAuditLog()
	row, metadataJSON, err := sealAuditLog(testutil.NewFieldAccessor(t, 0x02), auditLog)
	require.NoError(t, err)

	result, err := fromAuditLogDocument(testutil.NewFieldAccessor(t, 0x01), toAuditLogDocument(row, metadataJSON))
	require.NoError(t, err)
	assert.True(t, result.ActorCorrupt)
	assert.Empty(t, result.Actor)
}

func TestMongoListFilterDocument(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, bson.D{}, listFilterDocument(auditDomain.ListFilter{}))
	assert.Equal(t,
		bson.D{{Key: "created_at", Value: bson.D{{Key: "$gte", Value: from}, {Key: "$lte", Value: to}}}},
		listFilterDocument(auditDomain.ListFilter{CreatedAtFrom: &from, CreatedAtTo: &to}),
	)
	assert.Equal(t,
		bson.D{{Key: "created_at", Value: bson.D{{Key: "$lte", Value: to}}}},
		listFilterDocument(auditDomain.ListFilter{CreatedAtTo: &to}),
	)
}
