// Package usecase implements the outbox worker that delivers events written alongside
// domain changes.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/allisson/careportal/internal/database"
	outboxDomain "github.com/allisson/careportal/internal/outbox/domain"
)

// Config holds outbox worker configuration.
type Config struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
}

// OutboxEventRepository defines outbox event persistence operations.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error

	// GetPendingEvents locks up to limit pending events for the current transaction.
	GetPendingEvents(ctx context.Context, limit int) ([]*outboxDomain.OutboxEvent, error)

	Update(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// EventProcessor handles one event. A returned error is recorded on the event and the
// event is retried on a later poll.
type EventProcessor interface {
	Process(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// UseCase defines the outbox worker operations.
type UseCase interface {
	// Start polls until ctx is cancelled.
	Start(ctx context.Context) error

	// ProcessEvents handles one batch of pending events.
	ProcessEvents(ctx context.Context) error
}

// OutboxUseCase polls pending events and hands them to an EventProcessor.
type OutboxUseCase struct {
	config         Config
	txManager      database.TxManager
	outboxRepo     OutboxEventRepository
	eventProcessor EventProcessor
	logger         *slog.Logger
	now            func() time.Time
}

// Start runs ProcessEvents every Interval until ctx is cancelled. Batch failures are
// logged and do not stop the loop.
func (uc *OutboxUseCase) Start(ctx context.Context) error {
	uc.logger.Info("starting outbox worker",
		slog.Duration("interval", uc.config.Interval),
		slog.Int("batch_size", uc.config.BatchSize),
	)

	ticker := time.NewTicker(uc.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			uc.logger.Info("stopping outbox worker")
			return ctx.Err()
		case <-ticker.C:
			if err := uc.ProcessEvents(ctx); err != nil {
				uc.logger.Error("failed to process outbox events", slog.Any("error", err))
			}
		}
	}
}

// ProcessEvents handles one batch inside a single transaction. A failed event has its
// retry count and last error stored; it becomes failed once MaxRetries is reached.
func (uc *OutboxUseCase) ProcessEvents(ctx context.Context) error {
	return uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		events, err := uc.outboxRepo.GetPendingEvents(ctx, uc.config.BatchSize)
		if err != nil {
			return err
		}

		for _, event := range events {
			if err := uc.eventProcessor.Process(ctx, event); err != nil {
				uc.logger.Error("failed to process outbox event",
					slog.String("event_id", event.ID.String()),
					slog.String("event_type", event.EventType),
					slog.Int("retries", event.Retries+1),
					slog.Any("error", err),
				)

				event.Retries++
				lastError := err.Error()
				event.LastError = &lastError
				if event.Retries >= uc.config.MaxRetries {
					event.Status = outboxDomain.OutboxEventStatusFailed
				}
			} else {
				processedAt := uc.now().UTC()
				event.Status = outboxDomain.OutboxEventStatusProcessed
				event.ProcessedAt = &processedAt
			}

			if err := uc.outboxRepo.Update(ctx, event); err != nil {
				return err
			}
		}

		return nil
	})
}

// NewOutboxUseCase creates a new outbox worker.
func NewOutboxUseCase(
	config Config,
	txManager database.TxManager,
	outboxRepo OutboxEventRepository,
	eventProcessor EventProcessor,
	logger *slog.Logger,
) *OutboxUseCase {
	return &OutboxUseCase{
		config:         config,
		txManager:      txManager,
		outboxRepo:     outboxRepo,
		eventProcessor: eventProcessor,
		logger:         logger,
		now:            time.Now,
	}
}
