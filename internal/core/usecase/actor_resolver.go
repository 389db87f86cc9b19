package usecase

import (
	"context"
	"fmt"

	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/ports"
)

type ActorResolver struct {
	repo ports.ActorRepository
}

func NewActorResolver(repo ports.ActorRepository) *ActorResolver {
	return &ActorResolver{repo: repo}
}

// Resolve returns the actor id for ref, creating the actor on first use.
// A malformed ref is a *domain.ValidationError and nothing is written.
func (r *ActorResolver) Resolve(ctx context.Context, ref domain.ActorRef) (string, error) {
	if ref == nil {
		return "", domain.NewValidationError("actor", "is required")
	}
	ref = domain.CanonicalActorRef(ref)
	if err := ref.Validate(); err != nil {
		return "", err
	}
	actor, err := r.repo.Upsert(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("upsert actor %s: %w", ref.NaturalKey(), err)
	}
	return actor.ID, nil
}
