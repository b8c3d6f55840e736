// Package domain defines the transactional outbox events published alongside writes.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// OutboxEventStatus represents the status of an outbox event
type OutboxEventStatus string

const (
	OutboxEventStatusPending   OutboxEventStatus = "pending"
	OutboxEventStatusProcessed OutboxEventStatus = "processed"
	OutboxEventStatusFailed    OutboxEventStatus = "failed"
)

// EventTypeUserCreated is published when signup creates a user awaiting verification.
const EventTypeUserCreated = "user.created"

// OutboxEvent represents an event in the transactional outbox pattern
type OutboxEvent struct {
	ID          uuid.UUID
	EventType   string
	Payload     string
	Status      OutboxEventStatus
	Retries     int
	LastError   *string
	ProcessedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserCreatedPayload is the JSON payload of a user.created event.
//
// The verification token is stored as a field envelope: outbox rows are kept after
// processing and must not hold a usable token in the clear.
type UserCreatedPayload struct {
	UserID                    uuid.UUID `json:"user_id"`
	Username                  string    `json:"username"`
	VerificationTokenEnvelope string    `json:"verification_token"`
}
