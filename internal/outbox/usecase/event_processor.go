package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"net/url"
	"strings"

	"github.com/google/uuid"

	authDomain "github.com/allisson/careportal/internal/auth/domain"
	apperrors "github.com/allisson/careportal/internal/errors"
	outboxDomain "github.com/allisson/careportal/internal/outbox/domain"
	"github.com/allisson/careportal/internal/outbox/service"
)

// EventDispatcher routes events to the processor registered for their type. Events of
// an unknown type are logged and treated as processed.
type EventDispatcher struct {
	processors map[string]EventProcessor
	logger     *slog.Logger
}

// NewEventDispatcher creates an empty dispatcher.
func NewEventDispatcher(logger *slog.Logger) *EventDispatcher {
	return &EventDispatcher{processors: make(map[string]EventProcessor), logger: logger}
}

// Register binds processor to eventType, replacing any previous binding.
func (d *EventDispatcher) Register(eventType string, processor EventProcessor) {
	d.processors[eventType] = processor
}

// Process implements EventProcessor.
func (d *EventDispatcher) Process(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	processor, ok := d.processors[event.EventType]
	if !ok {
		d.logger.Warn("unknown outbox event type",
			slog.String("event_id", event.ID.String()),
			slog.String("event_type", event.EventType),
		)
		return nil
	}
	return processor.Process(ctx, event)
}

// UserReader loads users with their email opened.
type UserReader interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*authDomain.User, error)
}

// TokenOpener opens a sealed verification token.
type TokenOpener interface {
	Decrypt(envelope string) (string, error)
}

// UserCreatedProcessor mails the verification link of a newly signed up user.
type UserCreatedProcessor struct {
	userReader  UserReader
	tokenOpener TokenOpener
	mailer      service.Mailer
	clientURL   string
}

// NewUserCreatedProcessor creates the user.created processor. Links point at
// clientURL + "/verify/<token>".
func NewUserCreatedProcessor(
	userReader UserReader,
	tokenOpener TokenOpener,
	mailer service.Mailer,
	clientURL string,
) *UserCreatedProcessor {
	return &UserCreatedProcessor{
		userReader:  userReader,
		tokenOpener: tokenOpener,
		mailer:      mailer,
		clientURL:   strings.TrimRight(clientURL, "/"),
	}
}

// Process implements EventProcessor. Users verified before the event is processed get
// no mail.
func (p *UserCreatedProcessor) Process(ctx context.Context, event *outboxDomain.OutboxEvent) error {
	var payload outboxDomain.UserCreatedPayload
	if err := json.Unmarshal([]byte(event.Payload), &payload); err != nil {
		return apperrors.Wrap(err, "failed to decode user.created payload")
	}

	user, err := p.userReader.GetByID(ctx, payload.UserID)
	if err != nil {
		return apperrors.Wrap(err, "failed to load user")
	}
	if user.IsVerified {
		return nil
	}

	token, err := p.tokenOpener.Decrypt(payload.VerificationTokenEnvelope)
	if err != nil {
		return apperrors.Wrap(err, "failed to open verification token")
	}

	link := p.clientURL + "/verify/" + url.PathEscape(token)
	return p.mailer.Send(ctx, service.Message{
		To:      user.Email,
		Subject: "Verify your account",
		HTML: fmt.Sprintf(
			`<p>Hello %s,</p><p>Click here to verify your account: <a href="%s">%s</a></p>`,
			html.EscapeString(user.Username), link, link,
		),
	})
}
