// Package queue carries booking action events over Kafka.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
)

// Ingester is the write path the consumer feeds.
type Ingester interface {
	OnBookingAction(ctx context.Context, ev domain.BookingActionEvent) (domain.IngestOutcome, error)
}

// Handler turns one Kafka record into an ingest call. A nil return means the
// record may be committed: malformed or invalid messages are logged and
// dropped so they never block the partition. Any other error means the
// record must be retried.
type Handler struct {
	ingest Ingester
	logger *slog.Logger
}

func NewHandler(ingest Ingester, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{ingest: ingest, logger: logger}
}

func (h *Handler) Handle(ctx context.Context, rec *kgo.Record) error {
	var msg domain.BookingActionMessage
	if err := json.Unmarshal(rec.Value, &msg); err != nil {
		h.logger.WarnContext(ctx, "dropping malformed booking action message",
			"topic", rec.Topic,
			"partition", rec.Partition,
			"offset", rec.Offset,
			"error", err,
		)
		return nil
	}

	ev, err := msg.Event()
	if err == nil {
		_, err = h.ingest.OnBookingAction(ctx, ev)
	}
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			h.logger.WarnContext(ctx, "dropping invalid booking action message",
				"operation_id", msg.OperationID,
				"booking_uid", msg.BookingUID,
				"offset", rec.Offset,
				"error", err,
			)
			return nil
		}
		return err
	}
	return nil
}
