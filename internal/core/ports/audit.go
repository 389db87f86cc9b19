package ports

import (
	"context"

	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
)

// AuditRecordRepository is append-only: there is no update or delete.
type AuditRecordRepository interface {
	// Append inserts rec unless a record with the same OperationID exists.
	// inserted is false for a replayed OperationID; that is not an error.
	Append(ctx context.Context, rec domain.AuditRecord) (inserted bool, err error)
	// ListByBooking returns the booking's records ordered by (timestamp, id).
	ListByBooking(ctx context.Context, bookingUID string) ([]domain.AuditRecord, error)
	// ListAfter pages over every record by ascending id.
	ListAfter(ctx context.Context, afterID int64, limit int) ([]domain.AuditRecord, error)
}
