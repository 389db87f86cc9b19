package ports

import (
	"context"

	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
)

type ActorRepository interface {
	// Upsert returns the actor for ref's natural key, creating it on first
	// reference. Concurrent first references converge on one row.
	Upsert(ctx context.Context, ref domain.ActorRef) (domain.Actor, error)
	ListByIDs(ctx context.Context, ids []string) ([]domain.Actor, error)
}
