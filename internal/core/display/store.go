package display

import (
	"strings"

	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
)

// Store is the request-scoped enrichment data handlers render from. Lookups
// never fail; missing entities come back as domain.UnknownProjection.
type Store interface {
	Lookup(kind domain.EntityKind, key string) domain.EntityProjection
}

// MapStore is a Store over already fetched batches.
type MapStore map[domain.EntityKind]map[string]domain.EntityProjection

func (s MapStore) Lookup(kind domain.EntityKind, key string) domain.EntityProjection {
	if p, ok := s[kind][key]; ok {
		return p
	}
	return domain.UnknownProjection(key)
}

// RecordingStore remembers every key looked up through it.
type RecordingStore struct {
	inner    Store
	accessed domain.RequirementSet
}

func NewRecordingStore(inner Store) *RecordingStore {
	if inner == nil {
		inner = MapStore{}
	}
	return &RecordingStore{inner: inner, accessed: domain.NewRequirementSet()}
}

func (s *RecordingStore) Lookup(kind domain.EntityKind, key string) domain.EntityProjection {
	s.accessed.Add(kind, key)
	return s.inner.Lookup(kind, key)
}

func (s *RecordingStore) Accessed() domain.RequirementSet {
	return s.accessed
}

// nameOf prefers the display name, then the email, then "Unknown".
func nameOf(store Store, kind domain.EntityKind, key string) string {
	p := store.Lookup(kind, key)
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	if p.Email != "" {
		return p.Email
	}
	return domain.UnknownName
}
