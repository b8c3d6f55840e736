package http

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	auditDomain "github.com/allisson/careportal/internal/audit/domain"
	auditService "github.com/allisson/careportal/internal/audit/service"
	auditUseCase "github.com/allisson/careportal/internal/audit/usecase"
	cryptoService "github.com/allisson/careportal/internal/crypto/service"
)

// DefaultWriteTimeout bounds how long a request waits for its audit record.
const DefaultWriteTimeout = 2 * time.Second

// MaxUserAgentLength caps the stored user agent in bytes.
const MaxUserAgentLength = 512

// ActorResolver returns the authenticated principal of a request, if any.
type ActorResolver func(c *gin.Context) (auditDomain.Actor, bool)

// AuthEvent pairs the actions recorded for a successful and a failed authentication
// request.
type AuthEvent struct {
	Success string
	Failure string
}

// Authentication events.
var (
	AuthLogin  = AuthEvent{Success: auditDomain.ActionLoginSuccess, Failure: auditDomain.ActionLoginFailed}
	AuthSignup = AuthEvent{Success: auditDomain.ActionSignupSuccess, Failure: auditDomain.ActionSignupFailed}
	AuthVerify = AuthEvent{Success: auditDomain.ActionVerifySuccess, Failure: auditDomain.ActionVerifyFailed}
	AuthLogout = AuthEvent{Success: auditDomain.ActionLogoutSuccess, Failure: auditDomain.ActionLogoutFailed}
)

// authRecordType is the record type of authentication events.
const authRecordType = "User"

// Recorder appends one audit record per request it wraps.
//
// The record is built after the handler returns and before gin flushes the response.
// Network origin resolution and the write run in a goroutine the request waits on for at
// most the write timeout; failures and timeouts are logged and never change the response.
type Recorder struct {
	auditLogUseCase auditUseCase.AuditLogUseCase
	ipResolver      auditService.IPResolver
	accessor        *cryptoService.FieldAccessor
	resolveActor    ActorResolver
	writeTimeout    time.Duration
	logger          *slog.Logger
	inflight        sync.WaitGroup
}

// NewRecorder creates a Recorder. A non-positive writeTimeout uses DefaultWriteTimeout.
func NewRecorder(
	auditLogUseCase auditUseCase.AuditLogUseCase,
	ipResolver auditService.IPResolver,
	accessor *cryptoService.FieldAccessor,
	resolveActor ActorResolver,
	writeTimeout time.Duration,
	logger *slog.Logger,
) *Recorder {
	if writeTimeout <= 0 {
		writeTimeout = DefaultWriteTimeout
	}
	return &Recorder{
		auditLogUseCase: auditLogUseCase,
		ipResolver:      ipResolver,
		accessor:        accessor,
		resolveActor:    resolveActor,
		writeTimeout:    writeTimeout,
		logger:          logger,
	}
}

// Record returns middleware that audits the wrapped route under action and recordType.
//
// Usage:
//
//	doctors.POST("", recorder.Record("doctors:create", "Doctor"), handler.CreateHandler)
func (r *Recorder) Record(action, recordType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		r.write(c.Request.Context(), r.capture(c, action, recordType, start))
	}
}

// Auth returns middleware for authentication routes. The action is chosen from event by
// the response status and the submitted email, if any, is added to metadata encrypted.
func (r *Recorder) Auth(event AuthEvent) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		action := event.Success
		if auditDomain.OutcomeFromStatus(c.Writer.Status()) == auditDomain.OutcomeFailure {
			action = event.Failure
		}

		entry := r.capture(c, action, authRecordType, start)
		if email := c.GetString(submittedEmailKey); email != "" {
			envelope, err := r.accessor.Encrypt(email)
			if err != nil {
				r.logger.Error("failed to encrypt submitted email for audit", slog.Any("error", err))
			} else {
				entry.log.Metadata["email"] = envelope
			}
		}

		r.write(c.Request.Context(), entry)
	}
}

// Wait blocks until every audit write started so far has finished or timed out.
func (r *Recorder) Wait() {
	r.inflight.Wait()
}

// pendingRecord is everything the recorder needs from a gin.Context. gin reuses contexts
// once the handler chain returns, so nothing may read c after capture.
type pendingRecord struct {
	log      *auditDomain.AuditLog
	clientIP string
}

func (r *Recorder) capture(c *gin.Context, action, recordType string, start time.Time) pendingRecord {
	status := c.Writer.Status()
	outcome := auditDomain.OutcomeFromStatus(status)

	actor, ok := sideChannelActor(c)
	if !ok && r.resolveActor != nil {
		actor, ok = r.resolveActor(c)
	}
	if !ok {
		actor = auditDomain.Actor{ID: auditDomain.AnonymousActorID, Role: auditDomain.UnknownActorRole}
	}

	// Route templates keep path parameters such as verification tokens out of the trail.
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}

	metadata := map[string]any{
		"role":         actor.Role,
		"outcome":      string(outcome),
		"durationMs":   time.Since(start).Milliseconds(),
		"method":       c.Request.Method,
		"path":         path,
		"responseCode": status,
		"timestamp":    time.Now().UTC().Format(time.RFC3339Nano),
	}
	if id := requestid.Get(c); id != "" {
		metadata["requestId"] = id
	}

	return pendingRecord{
		log: &auditDomain.AuditLog{
			Actor:      actor.ID,
			Action:     action,
			RecordType: recordType,
			RecordID:   targetID(c),
			UserAgent:  cleanUserAgent(c.Request.UserAgent()),
			Outcome:    outcome,
			Metadata:   metadata,
		},
		clientIP: c.ClientIP(),
	}
}

// cleanUserAgent replaces invalid UTF-8 and truncates on a rune boundary, so client
// supplied bytes cannot make the store reject the record.
func cleanUserAgent(ua string) string {
	ua = strings.ToValidUTF8(ua, "\uFFFD")
	if len(ua) <= MaxUserAgentLength {
		return ua
	}
	cut := MaxUserAgentLength
	for cut > 0 && !utf8.RuneStart(ua[cut]) {
		cut--
	}
	return ua[:cut]
}

func (r *Recorder) write(requestCtx context.Context, entry pendingRecord) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(requestCtx), r.writeTimeout)
	done := make(chan error, 1)

	r.inflight.Add(1)
	go func() {
		defer r.inflight.Done()
		defer cancel()

		entry.log.NetworkOrigin = r.ipResolver.Resolve(ctx, entry.clientIP)
		done <- r.auditLogUseCase.Record(ctx, entry.log)
	}()

	timer := time.NewTimer(r.writeTimeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			r.logger.Error("failed to persist audit log",
				slog.String("action", entry.log.Action),
				slog.String("record_type", entry.log.RecordType),
				slog.Any("error", err),
			)
		}
	case <-timer.C:
		r.logger.Error("audit log write abandoned after timeout",
			slog.String("action", entry.log.Action),
			slog.String("record_type", entry.log.RecordType),
			slog.Duration("timeout", r.writeTimeout),
		)
	}
}
