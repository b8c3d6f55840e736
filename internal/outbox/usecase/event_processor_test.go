package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/allisson/careportal/internal/auth/domain"
	outboxDomain "github.com/allisson/careportal/internal/outbox/domain"
	"github.com/allisson/careportal/internal/outbox/service"
	"github.com/allisson/careportal/internal/testutil"
)

type MockUserReader struct {
	mock.Mock
}

func (m *MockUserReader) GetByID(ctx context.Context, userID uuid.UUID) (*authDomain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authDomain.User), args.Error(1)
}

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, msg service.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func TestEventDispatcher_Process(t *testing.T) {
	ctx := context.Background()
	dispatcher := NewEventDispatcher(slog.New(slog.NewTextHandler(io.Discard, nil)))
	processor := &MockEventProcessor{}
	dispatcher.Register(outboxDomain.EventTypeUserCreated, processor)

	t.Run("Registered type", func(t *testing.T) {
		event := pendingEvent(0)
		processor.On("Process", ctx, event).Return(errors.New("boom")).Once()

		assert.EqualError(t, dispatcher.Process(ctx, event), "boom")
		processor.AssertExpectations(t)
	})

	t.Run("Unknown type", func(t *testing.T) {
		event := pendingEvent(0)
		event.EventType = "doctor.imported"

		assert.NoError(t, dispatcher.Process(ctx, event))
	})
}

func userCreatedEvent(t *testing.T, userID uuid.UUID, envelope string) *outboxDomain.OutboxEvent {
	t.Helper()

	payload, err := json.Marshal(outboxDomain.UserCreatedPayload{
		UserID:                    userID,
		Username:                  "ada",
		VerificationTokenEnvelope: envelope,
	})
	require.NoError(t, err)

	event := pendingEvent(0)
	event.Payload = string(payload)
	return event
}

func TestUserCreatedProcessor_Process(t *testing.T) {
	ctx := context.Background()
	accessor := testutil.NewFieldAccessor(t, 0x04)
	envelope, err := accessor.Encrypt("plain-token")
	require.NoError(t, err)

	user := &authDomain.User{
		ID:       uuid.Must(uuid.NewV7()),
		Username: "ada<script>",
		Email:    "ada@example.com",
	}

	t.Run("Success", func(t *testing.T) {
		users := &MockUserReader{}
		mailer := &MockMailer{}
		processor := NewUserCreatedProcessor(users, accessor, mailer, "https://portal.example.com/")

		users.On("GetByID", ctx, user.ID).Return(user, nil).Once()
		mailer.On("Send", ctx, mock.MatchedBy(func(msg service.Message) bool {
			return msg.To == "ada@example.com" &&
				msg.Subject == "Verify your account" &&
				strings.Contains(msg.HTML, `href="https://portal.example.com/verify/plain-token"`) &&
				strings.Contains(msg.HTML, "ada&lt;script&gt;")
		})).Return(nil).Once()

		require.NoError(t, processor.Process(ctx, userCreatedEvent(t, user.ID, envelope)))
		mailer.AssertExpectations(t)
	})

	t.Run("Already verified", func(t *testing.T) {
		users := &MockUserReader{}
		mailer := &MockMailer{}
		processor := NewUserCreatedProcessor(users, accessor, mailer, "https://portal.example.com")

		verified := *user
		verified.IsVerified = true
		users.On("GetByID", ctx, user.ID).Return(&verified, nil).Once()

		require.NoError(t, processor.Process(ctx, userCreatedEvent(t, user.ID, envelope)))
		mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})

	t.Run("Token sealed under another key", func(t *testing.T) {
		users := &MockUserReader{}
		mailer := &MockMailer{}
		processor := NewUserCreatedProcessor(users, testutil.NewFieldAccessor(t, 0x05), mailer, "")

		users.On("GetByID", ctx, user.ID).Return(user, nil).Once()

		err := processor.Process(ctx, userCreatedEvent(t, user.ID, envelope))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open verification token")
	})

	t.Run("Unknown user", func(t *testing.T) {
		users := &MockUserReader{}
		processor := NewUserCreatedProcessor(users, accessor, &MockMailer{}, "")

		users.On("GetByID", ctx, user.ID).Return(nil, authDomain.ErrUserNotFound).Once()

		err := processor.Process(ctx, userCreatedEvent(t, user.ID, envelope))
		assert.ErrorIs(t, err, authDomain.ErrUserNotFound)
	})

	t.Run("Malformed payload", func(t *testing.T) {
		processor := NewUserCreatedProcessor(&MockUserReader{}, accessor, &MockMailer{}, "")

		event := pendingEvent(0)
		event.Payload = "{"
		assert.Error(t, processor.Process(ctx, event))
	})
}
