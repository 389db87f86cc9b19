package usecase

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
)

type stubAPIKeyRepo struct {
	findFn   func(ctx context.Context, tokenHash string) (domain.APIKey, error)
	upserted []domain.APIKey
}

func (s *stubAPIKeyRepo) FindByTokenHash(ctx context.Context, tokenHash string) (domain.APIKey, error) {
	if s.findFn != nil {
		return s.findFn(ctx, tokenHash)
	}
	return domain.APIKey{}, domain.ErrNotFound
}

func (s *stubAPIKeyRepo) Upsert(_ context.Context, key domain.APIKey) error {
	s.upserted = append(s.upserted, key)
	return nil
}

// memActors keeps one actor per natural key, like the unique index does.
type memActors struct {
	mu        sync.Mutex
	byKey     map[string]domain.Actor
	upsertErr error
	listErr   error
	upserts   int
	listCalls int
}

func newMemActors() *memActors {
	return &memActors{byKey: map[string]domain.Actor{}}
}

func (m *memActors) Upsert(_ context.Context, ref domain.ActorRef) (domain.Actor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	if m.upsertErr != nil {
		return domain.Actor{}, m.upsertErr
	}
	key := ref.NaturalKey()
	if a, ok := m.byKey[key]; ok {
		return a, nil
	}
	a := domain.Actor{ID: "actor-" + strconv.Itoa(len(m.byKey)+1), Type: ref.ActorType(), NaturalKey: key}
	switch r := ref.(type) {
	case domain.UserActor:
		a.UserUUID = r.UserUUID
	case domain.AttendeeActor:
		a.AttendeeID = r.AttendeeID
	case domain.GuestActor:
		a.Email, a.Name = domain.NormalizeEmail(r.Email), r.Name
	case domain.AppActor:
		a.AppSlug, a.Name = r.Slug, r.Name
	}
	m.byKey[key] = a
	return a, nil
}

func (m *memActors) ListByIDs(_ context.Context, ids []string) ([]domain.Actor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	want := map[string]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var out []domain.Actor
	for _, a := range m.byKey {
		if want[a.ID] {
			out = append(out, a)
		}
	}
	return out, nil
}

// memRecords enforces operation id uniqueness and (timestamp, id) ordering.
type memRecords struct {
	mu        sync.Mutex
	records   []domain.AuditRecord
	appendErr error
	listErr   error
	listCalls int
}

func (m *memRecords) Append(_ context.Context, rec domain.AuditRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return false, m.appendErr
	}
	for _, r := range m.records {
		if r.OperationID == rec.OperationID {
			return false, nil
		}
	}
	rec.ID = int64(len(m.records) + 1)
	m.records = append(m.records, rec)
	return true, nil
}

func (m *memRecords) ListByBooking(_ context.Context, bookingUID string) ([]domain.AuditRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.AuditRecord
	for _, r := range m.records {
		if r.BookingUID == bookingUID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memRecords) ListAfter(_ context.Context, afterID int64, limit int) ([]domain.AuditRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.AuditRecord
	for _, r := range m.records {
		if r.ID > afterID {
			out = append(out, r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type stubAuthorizer struct {
	canViewFn func(ctx context.Context, bookingUID string, requester domain.RequesterContext) (bool, error)
}

func (s *stubAuthorizer) CanViewBooking(ctx context.Context, bookingUID string, requester domain.RequesterContext) (bool, error) {
	if s.canViewFn != nil {
		return s.canViewFn(ctx, bookingUID, requester)
	}
	return true, nil
}

// countingFetcher records every batch it is asked for.
type countingFetcher struct {
	mu      sync.Mutex
	kind    domain.EntityKind
	known   map[string]domain.EntityProjection
	err     error
	batches [][]string
}

func (f *countingFetcher) Kind() domain.EntityKind { return f.kind }

func (f *countingFetcher) FetchBatch(_ context.Context, keys []string) (map[string]domain.EntityProjection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, append([]string(nil), keys...))
	if f.err != nil {
		return nil, f.err
	}
	out := map[string]domain.EntityProjection{}
	for _, k := range keys {
		if p, ok := f.known[k]; ok {
			out[k] = p
		}
	}
	return out, nil
}
