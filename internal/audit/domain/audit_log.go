// Package domain defines the append-only audit trail: records, outcomes, action names
// and the actor captured for each observed request.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Outcome is derived from the response status code.
type Outcome string

const (
	OutcomeSuccess Outcome = "SUCCESS"
	OutcomeFailure Outcome = "FAILURE"
)

// OutcomeFromStatus returns FAILURE for any status of 400 or above.
func OutcomeFromStatus(status int) Outcome {
	if status >= 400 {
		return OutcomeFailure
	}
	return OutcomeSuccess
}

// Actor values recorded when a request carries no principal.
const (
	AnonymousActorID = "anonymous"
	UnknownActorRole = "unknown"
)

// Actions recorded by the authentication recorder.
const (
	ActionLoginSuccess  = "LOGIN_SUCCESS"
	ActionLoginFailed   = "LOGIN_FAILED"
	ActionSignupSuccess = "SIGNUP_SUCCESS"
	ActionSignupFailed  = "SIGNUP_FAILED"
	ActionVerifySuccess = "VERIFY_SUCCESS"
	ActionVerifyFailed  = "VERIFY_FAILED"
	ActionLogoutSuccess = "LOGOUT_SUCCESS"
	ActionLogoutFailed  = "LOGOUT_FAILED"
)

// Actor identifies who performed an audited request.
type Actor struct {
	ID   string
	Role string
}

// AuditLog is one record of the audit trail. It is never updated or deleted by the
// application.
//
// Actor holds the actor id in plaintext in memory; repositories persist it sealed.
// ActorCorrupt is set on read when the stored actor envelope does not open.
type AuditLog struct {
	ID            uuid.UUID
	Actor         string `pii:"encrypt"`
	ActorCorrupt  bool
	Action        string
	RecordType    string
	RecordID      *string
	NetworkOrigin string
	UserAgent     string
	Outcome       Outcome
	Metadata      map[string]any
	Signature     []byte
	CreatedAt     time.Time
}

// ListFilter narrows an audit log listing. Zero times are unbounded.
type ListFilter struct {
	Offset        int
	Limit         int
	CreatedAtFrom *time.Time
	CreatedAtTo   *time.Time
}

// VerificationReport summarizes a signature verification run.
type VerificationReport struct {
	TotalChecked  int64
	SignedCount   int64
	UnsignedCount int64
	ValidCount    int64
	InvalidCount  int64
	InvalidLogs   []uuid.UUID
}
