package usecase

import (
	"context"
	"fmt"

	"github.com/atvirokodosprendimai/bookingaudit/internal/core/display"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/ports"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/schema"
)

// HistoryIssue is a stored record the read path cannot render as intended.
type HistoryIssue struct {
	RecordID   int64         `json:"record_id"`
	BookingUID string        `json:"booking_uid"`
	Action     domain.Action `json:"action"`
	Version    int           `json:"version"`
	Problem    string        `json:"problem"`
}

// CheckHistory walks every stored record by ascending id, migrates it and
// runs its handler against an empty store. report is called once per record
// that would fail a viewer request or render through the fallback handler.
// Run it before deploying a build that drops a migration.
func CheckHistory(ctx context.Context, records ports.AuditRecordRepository, schemas *schema.Registry, handlers *display.Registry, batchSize int, report func(HistoryIssue) error) (int, error) {
	if batchSize <= 0 {
		batchSize = 500
	}
	checked := 0
	afterID := int64(0)
	for {
		batch, err := records.ListAfter(ctx, afterID, batchSize)
		if err != nil {
			return checked, fmt.Errorf("list audit records: %w", err)
		}
		if len(batch) == 0 {
			return checked, nil
		}

		for _, rec := range batch {
			if problem := checkRecord(rec, schemas, handlers); problem != "" {
				issue := HistoryIssue{
					RecordID:   rec.ID,
					BookingUID: rec.BookingUID,
					Action:     rec.Action,
					Version:    rec.Data.Version,
					Problem:    problem,
				}
				if err := report(issue); err != nil {
					return checked, fmt.Errorf("report record %d: %w", rec.ID, err)
				}
			}
			checked++
			afterID = rec.ID
		}
	}
}

func checkRecord(rec domain.AuditRecord, schemas *schema.Registry, handlers *display.Registry) string {
	if !handlers.Registered(rec.Action) {
		return "no display handler for action"
	}
	data, err := schemas.Normalize(rec.Action, rec.Data)
	if err != nil {
		return err.Error()
	}
	if err := display.CheckContract(handlers.For(rec.Action), data, display.MapStore{}); err != nil {
		return err.Error()
	}
	return ""
}
