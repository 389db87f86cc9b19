package ports

import (
	"context"

	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
)

// EntityFetcher resolves every key of one entity kind in a single batch.
// Keys with no matching entity are simply absent from the result.
type EntityFetcher interface {
	Kind() domain.EntityKind
	FetchBatch(ctx context.Context, keys []string) (map[string]domain.EntityProjection, error)
}
