// Package directory resolves users and attendees for display and decides
// who may read a booking's audit trail. It reads reference tables mirrored
// from the scheduling app.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/atvirokodosprendimai/bookingaudit/internal/adapters/gormstore/gormdb"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
)

type userModel struct {
	UUID  string `gorm:"column:uuid;primaryKey"`
	Name  string `gorm:"column:name"`
	Email string `gorm:"column:email"`
}

func (userModel) TableName() string { return "directory_users" }

type attendeeModel struct {
	ID         int64  `gorm:"column:id;primaryKey"`
	BookingUID string `gorm:"column:booking_uid"`
	Name       string `gorm:"column:name"`
	Email      string `gorm:"column:email"`
}

func (attendeeModel) TableName() string { return "directory_attendees" }

// UserFetcher batch-loads users by uuid.
type UserFetcher struct {
	db *gormdb.DB
}

func NewUserFetcher(db *gormdb.DB) *UserFetcher {
	return &UserFetcher{db: db}
}

func (f *UserFetcher) Kind() domain.EntityKind { return domain.KindUserUUIDs }

func (f *UserFetcher) FetchBatch(ctx context.Context, keys []string) (map[string]domain.EntityProjection, error) {
	out := make(map[string]domain.EntityProjection, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	var models []userModel
	err := f.db.ReadTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Where("uuid IN ?", keys).Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}
	for _, m := range models {
		out[m.UUID] = domain.EntityProjection{Key: m.UUID, Name: m.Name, Email: m.Email, Found: true}
	}
	return out, nil
}

// AttendeeFetcher batch-loads attendees by numeric id. Keys that are not
// numbers cannot match and are left out.
type AttendeeFetcher struct {
	db *gormdb.DB
}

func NewAttendeeFetcher(db *gormdb.DB) *AttendeeFetcher {
	return &AttendeeFetcher{db: db}
}

func (f *AttendeeFetcher) Kind() domain.EntityKind { return domain.KindAttendeeIDs }

func (f *AttendeeFetcher) FetchBatch(ctx context.Context, keys []string) (map[string]domain.EntityProjection, error) {
	out := make(map[string]domain.EntityProjection, len(keys))
	ids := make([]int64, 0, len(keys))
	for _, k := range keys {
		if id, err := strconv.ParseInt(k, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return out, nil
	}
	var models []attendeeModel
	err := f.db.ReadTX(ctx, func(tx *gormdb.Tx) error {
		return tx.Where("id IN ?", ids).Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("fetch attendees: %w", err)
	}
	for _, m := range models {
		key := strconv.FormatInt(m.ID, 10)
		out[key] = domain.EntityProjection{Key: key, Name: m.Name, Email: m.Email, Found: true}
	}
	return out, nil
}

type bookingAccessModel struct {
	BookingUID     string `gorm:"column:booking_uid;primaryKey"`
	OwnerUserUUID  string `gorm:"column:owner_user_uuid"`
	OrganizationID *int64 `gorm:"column:organization_id"`
}

func (bookingAccessModel) TableName() string { return "booking_access" }

type organizationMemberModel struct {
	OrganizationID int64  `gorm:"column:organization_id;primaryKey"`
	UserUUID       string `gorm:"column:user_uuid;primaryKey"`
	Accepted       bool   `gorm:"column:accepted"`
}

func (organizationMemberModel) TableName() string { return "organization_members" }

// BookingAuthorizer lets the booking owner and accepted members of the
// booking's organization read its audit trail.
type BookingAuthorizer struct {
	db *gormdb.DB
}

func NewBookingAuthorizer(db *gormdb.DB) *BookingAuthorizer {
	return &BookingAuthorizer{db: db}
}

func (a *BookingAuthorizer) CanViewBooking(ctx context.Context, bookingUID string, requester domain.RequesterContext) (bool, error) {
	if requester.UserUUID == "" {
		return false, nil
	}
	allowed := false
	err := a.db.ReadTX(ctx, func(tx *gormdb.Tx) error {
		var access bookingAccessModel
		if err := tx.Where("booking_uid = ?", bookingUID).First(&access).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if access.OwnerUserUUID == requester.UserUUID {
			allowed = true
			return nil
		}
		if access.OrganizationID == nil {
			return nil
		}
		var n int64
		if err := tx.Model(&organizationMemberModel{}).
			Where("organization_id = ? AND user_uuid = ? AND accepted = ?", *access.OrganizationID, requester.UserUUID, true).
			Count(&n).Error; err != nil {
			return err
		}
		allowed = n > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("check booking access: %w", err)
	}
	return allowed, nil
}
