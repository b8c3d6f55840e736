package dto

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	auditDomain "github.com/allisson/careportal/internal/audit/domain"
)

func TestMapAuditLogsToListResponse(t *testing.T) {
	recordID := "doc-1"
	createdAt := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	signed := &auditDomain.AuditLog{
		ID:         uuid.Must(uuid.NewV7()),
		Actor:      "user-1",
		Action:     "doctors:create",
		RecordType: "Doctor",
		RecordID:   &recordID,
		Outcome:    auditDomain.OutcomeSuccess,
		Signature:  []byte{0x01},
		CreatedAt:  createdAt,
	}
	corrupt := &auditDomain.AuditLog{
		ID:           uuid.Must(uuid.NewV7()),
		ActorCorrupt: true,
		Outcome:      auditDomain.OutcomeFailure,
	}

	response := MapAuditLogsToListResponse([]*auditDomain.AuditLog{signed, corrupt})

	assert.Len(t, response.Data, 2)
	assert.Equal(t, signed.ID.String(), response.Data[0].ID)
	assert.Equal(t, "user-1", response.Data[0].Actor)
	assert.Equal(t, "SUCCESS", response.Data[0].Outcome)
	assert.Equal(t, &recordID, response.Data[0].RecordID)
	assert.True(t, response.Data[0].Signed)
	assert.Equal(t, createdAt, response.Data[0].CreatedAt)

	assert.True(t, response.Data[1].ActorCorrupt)
	assert.Empty(t, response.Data[1].Actor)
	assert.False(t, response.Data[1].Signed)
}

func TestMapAuditLogsToListResponse_Empty(t *testing.T) {
	response := MapAuditLogsToListResponse(nil)
	assert.NotNil(t, response.Data)
	assert.Empty(t, response.Data)
}
