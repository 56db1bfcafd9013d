package payments

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ProviderEvent is the webhook dedupe ledger: one row per (provider, event).
type ProviderEvent struct {
	ID          string         `gorm:"type:char(36);primaryKey"`
	Provider    string         `gorm:"type:varchar(32);not null;uniqueIndex:ux_provider_events_provider_event,priority:1"`
	EventID     string         `gorm:"type:varchar(128);not null;uniqueIndex:ux_provider_events_provider_event,priority:2"`
	EventType   string         `gorm:"type:varchar(64);not null"`
	PayloadJSON datatypes.JSON `gorm:"type:json;not null"`

	ReceivedAt   time.Time  `gorm:"type:datetime(3);not null"`
	ProcessedAt  *time.Time `gorm:"type:datetime(3)"`
	ProcessError *string    `gorm:"type:varchar(255)"`
}

func (ProviderEvent) TableName() string { return "provider_events" }

// EventLedger is the persistence contract for the webhook dedupe ledger.
type EventLedger interface {
	// RecordEvent inserts the event row; ErrEventExists when this
	// (provider, event_id) pair was delivered before.
	RecordEvent(ctx context.Context, pe *ProviderEvent) error
	EventByKey(ctx context.Context, provider, eventID string) (*ProviderEvent, error)
	MarkEventProcessed(ctx context.Context, id string, at time.Time) error
	RecordEventError(ctx context.Context, id, msg string) error
}

type WebhookService struct {
	ledger EventLedger
	verify *VerifyService
	store  Store
	logger *slog.Logger
}

func NewWebhookService(ledger EventLedger, verify *VerifyService, store Store, logger *slog.Logger) *WebhookService {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookService{ledger: ledger, verify: verify, store: store, logger: logger}
}

// Handle records the event and funnels success notifications into the same
// verify path clients use; the orchestrator's idempotency makes webhook and
// poll delivery safe to race. A processing error answers 5xx so the provider
// retries; an already-processed event is acknowledged without side effects.
func (s *WebhookService) Handle(ctx context.Context, providerName string, ev WebhookEvent, rawBody []byte) error {
	pe := &ProviderEvent{
		ID:          uuid.NewString(),
		Provider:    providerName,
		EventID:     ev.EventID,
		EventType:   ev.Type,
		PayloadJSON: datatypes.JSON(json.RawMessage(rawBody)),
		ReceivedAt:  time.Now(),
	}

	if err := s.ledger.RecordEvent(ctx, pe); err != nil {
		if !errors.Is(err, ErrEventExists) {
			s.logger.ErrorContext(ctx, "failed to persist provider event",
				"provider", providerName, "event_id", ev.EventID, "err", err)
			return err
		}

		// Delivered before: done events are acknowledged, unprocessed ones
		// (a previous attempt failed) run again against the existing row.
		existing, err := s.ledger.EventByKey(ctx, providerName, ev.EventID)
		if err != nil {
			return err
		}
		if existing.ProcessedAt != nil {
			s.logger.InfoContext(ctx, "webhook event deduplicated",
				"provider", providerName, "event_id", ev.EventID, "type", ev.Type)
			return nil
		}
		pe = existing
	}

	if applyErr := s.apply(ctx, ev); applyErr != nil {
		if err := s.ledger.RecordEventError(ctx, pe.ID, truncate(applyErr.Error(), 250)); err != nil {
			s.logger.ErrorContext(ctx, "failed to record webhook process error",
				"event_id", ev.EventID, "err", err)
		}
		s.logger.ErrorContext(ctx, "webhook event apply failed",
			"provider", providerName, "event_id", ev.EventID, "type", ev.Type, "err", applyErr)
		return applyErr
	}

	if err := s.ledger.MarkEventProcessed(ctx, pe.ID, time.Now()); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "webhook event processed",
		"provider", providerName, "event_id", ev.EventID, "type", ev.Type)
	return nil
}

func (s *WebhookService) apply(ctx context.Context, ev WebhookEvent) error {
	switch ev.Type {
	case EventPaymentSuccess:
		// Re-verify server side; the notification alone is not trusted.
		_, err := s.verify.Verify(ctx, ev.Reference)
		return err
	case EventPaymentFailed:
		return s.applyFailed(ctx, ev)
	default:
		// Unknown event classes are acknowledged and kept in the ledger.
		s.logger.InfoContext(ctx, "webhook event ignored", "type", ev.Type)
		return nil
	}
}

func (s *WebhookService) applyFailed(ctx context.Context, ev WebhookEvent) error {
	p, err := s.store.PaymentByReference(ctx, ev.Reference)
	if errors.Is(err, ErrPaymentNotFound) {
		// Reference unknown to us: keep erroring so the provider retries
		// until the initialize transaction is visible.
		return err
	}
	if err != nil {
		return err
	}
	return s.store.MarkFailed(ctx, p.ID)
}
