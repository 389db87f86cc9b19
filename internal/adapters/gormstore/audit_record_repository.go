package gormstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/atvirokodosprendimai/bookingaudit/internal/adapters/gormstore/gormdb"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
)

type auditRecordModel struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement"`
	BookingUID   string    `gorm:"column:booking_uid;not null"`
	ActorID      string    `gorm:"column:actor_id;not null"`
	Action       string    `gorm:"column:action;not null"`
	Type         string    `gorm:"column:type;not null"`
	OccurredAtMS int64     `gorm:"column:occurred_at_ms;not null"`
	Source       string    `gorm:"column:source;not null"`
	OperationID  string    `gorm:"column:operation_id;not null"`
	DataVersion  int       `gorm:"column:data_version;not null"`
	DataFields   string    `gorm:"column:data_fields;not null"`
	Context      *string   `gorm:"column:context"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"`
}

func (auditRecordModel) TableName() string {
	return "audit_records"
}

// AuditRecordRepository only ever inserts. Database triggers reject updates
// and deletes on audit_records.
type AuditRecordRepository struct {
	db *gormdb.DB
}

func NewAuditRecordRepository(db *gormdb.DB) *AuditRecordRepository {
	return &AuditRecordRepository{db: db}
}

func (r *AuditRecordRepository) Append(ctx context.Context, rec domain.AuditRecord) (bool, error) {
	model := auditRecordModel{
		BookingUID:   rec.BookingUID,
		ActorID:      rec.ActorID,
		Action:       string(rec.Action),
		Type:         string(rec.Type),
		OccurredAtMS: rec.Timestamp.UnixMilli(),
		Source:       string(rec.Source),
		OperationID:  rec.OperationID,
		DataVersion:  rec.Data.Version,
		DataFields:   string(rec.Data.Fields),
		CreatedAt:    time.Now().UTC(),
	}
	if len(rec.Context) > 0 {
		c := string(rec.Context)
		model.Context = &c
	}

	var inserted bool
	err := r.db.WriteTX(ctx, func(tx *gormdb.Tx) error {
		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "operation_id"}},
			DoNothing: true,
		}).Create(&model)
		if res.Error != nil {
			return res.Error
		}
		inserted = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("append audit record: %w", err)
	}
	return inserted, nil
}

func (r *AuditRecordRepository) ListByBooking(ctx context.Context, bookingUID string) ([]domain.AuditRecord, error) {
	var models []auditRecordModel
	err := r.db.ReadTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Where("booking_uid = ?", bookingUID).
			Order("occurred_at_ms ASC").
			Order("id ASC").
			Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	return toRecords(models), nil
}

func (r *AuditRecordRepository) ListAfter(ctx context.Context, afterID int64, limit int) ([]domain.AuditRecord, error) {
	if limit <= 0 {
		limit = 500
	}
	var models []auditRecordModel
	err := r.db.ReadTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Where("id > ?", afterID).Order("id ASC").Limit(limit).Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list audit records after %d: %w", afterID, err)
	}
	return toRecords(models), nil
}

func toRecords(models []auditRecordModel) []domain.AuditRecord {
	out := make([]domain.AuditRecord, 0, len(models))
	for _, m := range models {
		rec := domain.AuditRecord{
			ID:          m.ID,
			BookingUID:  m.BookingUID,
			ActorID:     m.ActorID,
			Action:      domain.Action(m.Action),
			Type:        domain.RecordType(m.Type),
			Timestamp:   time.UnixMilli(m.OccurredAtMS).UTC(),
			Source:      domain.Source(m.Source),
			OperationID: m.OperationID,
			Data:        domain.AuditData{Version: m.DataVersion, Fields: json.RawMessage(m.DataFields)},
			CreatedAt:   m.CreatedAt,
		}
		if m.Context != nil {
			rec.Context = json.RawMessage(*m.Context)
		}
		out = append(out, rec)
	}
	return out
}
