package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atvirokodosprendimai/bookingaudit/internal/adapters/gormstore/gormdb"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
)

type actorModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	Type       string    `gorm:"column:type;not null"`
	NaturalKey string    `gorm:"column:natural_key;not null"`
	UserUUID   *string   `gorm:"column:user_uuid"`
	AttendeeID *int64    `gorm:"column:attendee_id"`
	Email      *string   `gorm:"column:email"`
	AppSlug    *string   `gorm:"column:app_slug"`
	Name       string    `gorm:"column:name;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"`
}

func (actorModel) TableName() string {
	return "actors"
}

type ActorRepository struct {
	db *gormdb.DB
}

func NewActorRepository(db *gormdb.DB) *ActorRepository {
	return &ActorRepository{db: db}
}

// Upsert inserts the actor unless its natural key exists, then reads the
// stored row back. The unique index on natural_key settles concurrent first
// references. Guest and app names are refreshed when a new one is supplied.
func (r *ActorRepository) Upsert(ctx context.Context, ref domain.ActorRef) (domain.Actor, error) {
	model := newActorModel(ref)

	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "natural_key"}},
		DoNothing: true,
	}
	if model.Name != "" {
		onConflict = clause.OnConflict{
			Columns:   []clause.Column{{Name: "natural_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"name"}),
		}
	}

	var stored actorModel
	err := r.db.WriteTX(ctx, func(tx *gormdb.Tx) error {
		if err := tx.Clauses(onConflict).Create(&model).Error; err != nil {
			return err
		}
		return tx.Where("natural_key = ?", model.NaturalKey).First(&stored).Error
	})
	if err != nil {
		return domain.Actor{}, fmt.Errorf("upsert actor: %w", err)
	}
	return stored.toDomain(), nil
}

func (r *ActorRepository) ListByIDs(ctx context.Context, ids []string) ([]domain.Actor, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []actorModel
	err := r.db.ReadTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Where("id IN ?", ids).Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("list actors: %w", err)
	}
	out := make([]domain.Actor, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}

// Get is used by tests and tooling; the core only needs ListByIDs.
func (r *ActorRepository) Get(ctx context.Context, id string) (domain.Actor, error) {
	var model actorModel
	err := r.db.ReadTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Where("id = ?", id).First(&model).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Actor{}, domain.ErrNotFound
		}
		return domain.Actor{}, fmt.Errorf("get actor: %w", err)
	}
	return model.toDomain(), nil
}

func newActorModel(ref domain.ActorRef) actorModel {
	ref = domain.CanonicalActorRef(ref)
	m := actorModel{
		ID:         uuid.NewString(),
		Type:       string(ref.ActorType()),
		NaturalKey: ref.NaturalKey(),
		CreatedAt:  time.Now().UTC(),
	}
	switch a := ref.(type) {
	case domain.UserActor:
		v := a.UserUUID
		m.UserUUID = &v
	case domain.AttendeeActor:
		v := a.AttendeeID
		m.AttendeeID = &v
	case domain.GuestActor:
		v := a.Email
		m.Email = &v
		m.Name = a.Name
	case domain.AppActor:
		v := a.Slug
		m.AppSlug = &v
		m.Name = a.Name
	}
	return m
}

func (m actorModel) toDomain() domain.Actor {
	a := domain.Actor{
		ID:         m.ID,
		Type:       domain.ActorType(m.Type),
		NaturalKey: m.NaturalKey,
		Name:       m.Name,
		CreatedAt:  m.CreatedAt,
	}
	if m.UserUUID != nil {
		a.UserUUID = *m.UserUUID
	}
	if m.AttendeeID != nil {
		a.AttendeeID = *m.AttendeeID
	}
	if m.Email != nil {
		a.Email = *m.Email
	}
	if m.AppSlug != nil {
		a.AppSlug = *m.AppSlug
	}
	return a
}
