package ports

import (
	"context"

	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
)

type APIKeyRepository interface {
	FindByTokenHash(ctx context.Context, tokenHash string) (domain.APIKey, error)
	Upsert(ctx context.Context, key domain.APIKey) error
}

// BookingAuthorizer decides whether a requester may read a booking's audit
// trail. Unknown bookings are not viewable.
type BookingAuthorizer interface {
	CanViewBooking(ctx context.Context, bookingUID string, requester domain.RequesterContext) (bool, error)
}
