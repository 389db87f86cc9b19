package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/ports"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/schema"
	"github.com/atvirokodosprendimai/bookingaudit/internal/platform/metrics"
)

// IngestService is the write path. Every producer, HTTP or queue, ends up in
// OnBookingAction.
type IngestService struct {
	actors  *ActorResolver
	records ports.AuditRecordRepository
	schemas *schema.Registry
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewIngestService(actors *ActorResolver, records ports.AuditRecordRepository, schemas *schema.Registry, log *slog.Logger, m *metrics.Metrics) *IngestService {
	if log == nil {
		log = slog.Default()
	}
	return &IngestService{actors: actors, records: records, schemas: schemas, log: log, metrics: m}
}

// OnBookingAction stores one audit record for ev. Everything that can be
// checked without IO is checked before the actor is resolved, so a rejected
// event leaves nothing behind. A replayed OperationID is IngestDuplicate with
// a nil error.
func (s *IngestService) OnBookingAction(ctx context.Context, ev domain.BookingActionEvent) (domain.IngestOutcome, error) {
	rec, err := s.prepare(ev)
	if err != nil {
		s.metrics.IncrementIngest(string(ev.Action), "rejected")
		s.log.WarnContext(ctx, "booking action rejected",
			"operation_id", ev.OperationID,
			"booking_uid", ev.BookingUID,
			"action", ev.Action,
			"error", err,
		)
		return "", err
	}

	actorID, err := s.actors.Resolve(ctx, ev.Actor)
	if err != nil {
		return "", s.fail(ctx, ev, err)
	}
	rec.ActorID = actorID

	inserted, err := s.records.Append(ctx, rec)
	if err != nil {
		return "", s.fail(ctx, ev, fmt.Errorf("append audit record: %w", err))
	}

	outcome := domain.IngestInserted
	if !inserted {
		outcome = domain.IngestDuplicate
	}
	s.metrics.IncrementIngest(string(ev.Action), string(outcome))
	s.log.DebugContext(ctx, "booking action stored",
		"operation_id", ev.OperationID,
		"booking_uid", ev.BookingUID,
		"action", ev.Action,
		"outcome", outcome,
	)
	return outcome, nil
}

func (s *IngestService) prepare(ev domain.BookingActionEvent) (domain.AuditRecord, error) {
	if err := domain.ValidateUID("bookingUid", ev.BookingUID); err != nil {
		return domain.AuditRecord{}, err
	}
	if err := domain.ValidateUID("operationId", ev.OperationID); err != nil {
		return domain.AuditRecord{}, err
	}
	if !ev.Source.Valid() {
		return domain.AuditRecord{}, domain.NewValidationError("source", "is not a known source")
	}
	if ev.Timestamp <= 0 {
		return domain.AuditRecord{}, domain.NewValidationError("timestamp", "must be a positive epoch millisecond value")
	}
	if ev.Actor == nil {
		return domain.AuditRecord{}, domain.NewValidationError("actor", "is required")
	}
	if err := ev.Actor.Validate(); err != nil {
		return domain.AuditRecord{}, err
	}

	data, err := s.schemas.Wrap(ev.Action, ev.Data)
	if err != nil {
		return domain.AuditRecord{}, err
	}

	var eventContext json.RawMessage
	if len(ev.Context) > 0 {
		eventContext, err = json.Marshal(ev.Context)
		if err != nil {
			return domain.AuditRecord{}, domain.NewValidationError("context", "must be a json object")
		}
	}

	return domain.AuditRecord{
		BookingUID:  ev.BookingUID,
		Action:      ev.Action,
		Type:        ev.Action.RecordType(),
		Timestamp:   ev.OccurredAt(),
		Source:      ev.Source,
		OperationID: ev.OperationID,
		Data:        data,
		Context:     eventContext,
	}, nil
}

func (s *IngestService) fail(ctx context.Context, ev domain.BookingActionEvent, err error) error {
	outcome := "failed"
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		outcome = "rejected"
	}
	s.metrics.IncrementIngest(string(ev.Action), outcome)
	s.log.ErrorContext(ctx, "booking action not stored",
		"operation_id", ev.OperationID,
		"booking_uid", ev.BookingUID,
		"action", ev.Action,
		"error", err,
	)
	return err
}
