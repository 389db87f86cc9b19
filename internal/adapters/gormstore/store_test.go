package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/atvirokodosprendimai/bookingaudit/internal/adapters/gormstore/gormdb"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
	"github.com/atvirokodosprendimai/bookingaudit/migrations"
)

func openTestDB(t *testing.T) *gormdb.DB {
	t.Helper()
	ctx := context.Background()

	db, err := gormdb.Open(gormdb.DialectSQLite, filepath.Join(t.TempDir(), "audit.sqlite"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	wdb, err := db.WriteSQLDB()
	if err != nil {
		t.Fatalf("writer sql db: %v", err)
	}
	if err := migrations.Up(ctx, wdb, db.Dialect()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestActorUpsertIsIdempotentPerNaturalKey(t *testing.T) {
	ctx := context.Background()
	repo := NewActorRepository(openTestDB(t))

	first, err := repo.Upsert(ctx, domain.UserActor{UserUUID: "u-1"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second, err := repo.Upsert(ctx, domain.UserActor{UserUUID: "u-1"})
	if err != nil {
		t.Fatalf("upsert again: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same actor id, got %s and %s", first.ID, second.ID)
	}
	if first.Type != domain.ActorTypeUser || first.UserUUID != "u-1" {
		t.Fatalf("unexpected actor: %+v", first)
	}

	other, err := repo.Upsert(ctx, domain.UserActor{UserUUID: "u-2"})
	if err != nil {
		t.Fatalf("upsert other: %v", err)
	}
	if other.ID == first.ID {
		t.Fatal("different users must get different actors")
	}
}

func TestActorUpsertStoresTrimmedIdentifiers(t *testing.T) {
	ctx := context.Background()
	repo := NewActorRepository(openTestDB(t))

	user, err := repo.Upsert(ctx, domain.UserActor{UserUUID: " u-9 "})
	if err != nil {
		t.Fatalf("upsert user: %v", err)
	}
	if user.UserUUID != "u-9" || user.NaturalKey != "user:u-9" {
		t.Fatalf("unexpected user actor: %+v", user)
	}
	again, err := repo.Upsert(ctx, domain.UserActor{UserUUID: "u-9"})
	if err != nil {
		t.Fatalf("upsert user again: %v", err)
	}
	if again.ID != user.ID {
		t.Fatalf("expected same actor, got %s and %s", user.ID, again.ID)
	}

	app, err := repo.Upsert(ctx, domain.AppActor{Slug: "zapier ", Name: "Zapier"})
	if err != nil {
		t.Fatalf("upsert app: %v", err)
	}
	if app.AppSlug != "zapier" || app.NaturalKey != "app:zapier" {
		t.Fatalf("unexpected app actor: %+v", app)
	}
}

func TestActorUpsertRefreshesGuestName(t *testing.T) {
	ctx := context.Background()
	repo := NewActorRepository(openTestDB(t))

	a, err := repo.Upsert(ctx, domain.GuestActor{Email: "Guest@Example.com", Name: "Old"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	b, err := repo.Upsert(ctx, domain.GuestActor{Email: "guest@example.com", Name: "New"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	c, err := repo.Upsert(ctx, domain.GuestActor{Email: "guest@example.com"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if a.ID != b.ID || b.ID != c.ID {
		t.Fatalf("expected one guest actor, got %s %s %s", a.ID, b.ID, c.ID)
	}
	if c.Name != "New" || c.Email != "guest@example.com" {
		t.Fatalf("unexpected guest: %+v", c)
	}

	got, err := repo.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.NaturalKey != "guest:guest@example.com" {
		t.Fatalf("unexpected natural key %s", got.NaturalKey)
	}
	if _, err := repo.Get(ctx, "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestActorUpsertConcurrentFirstReference(t *testing.T) {
	ctx := context.Background()
	repo := NewActorRepository(openTestDB(t))

	var wg sync.WaitGroup
	ids := make([]string, 8)
	errs := make([]error, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := repo.Upsert(ctx, domain.AttendeeActor{AttendeeID: 42})
			ids[i], errs[i] = a.ID, err
		}(i)
	}
	wg.Wait()

	for i := range ids {
		if errs[i] != nil {
			t.Fatalf("upsert %d: %v", i, errs[i])
		}
		if ids[i] != ids[0] {
			t.Fatalf("expected converged actor id, got %s and %s", ids[0], ids[i])
		}
	}

	actors, err := repo.ListByIDs(ctx, []string{ids[0], "missing"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(actors) != 1 || actors[0].AttendeeID != 42 {
		t.Fatalf("unexpected actors: %+v", actors)
	}
}

func TestAuditRecordAppendIsIdempotentAndOrdered(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	actors := NewActorRepository(db)
	records := NewAuditRecordRepository(db)

	actor, err := actors.Upsert(ctx, domain.SystemActor{})
	if err != nil {
		t.Fatalf("upsert actor: %v", err)
	}

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := func(op string, at time.Time, action domain.Action) domain.AuditRecord {
		return domain.AuditRecord{
			BookingUID:  "bk-1",
			ActorID:     actor.ID,
			Action:      action,
			Type:        action.RecordType(),
			Timestamp:   at,
			Source:      domain.SourceSystem,
			OperationID: op,
			Data:        domain.AuditData{Version: 1, Fields: json.RawMessage(`{"status":{"old":null,"new":"ACCEPTED"}}`)},
		}
	}

	inputs := []domain.AuditRecord{
		rec("op-late", base.Add(time.Hour), domain.ActionCancelled),
		rec("op-a", base, domain.ActionCreated),
		rec("op-b", base, domain.ActionAccepted),
	}
	inputs[0].Context = json.RawMessage(`{"impersonatedBy":"u-9"}`)
	for _, in := range inputs {
		inserted, err := records.Append(ctx, in)
		if err != nil {
			t.Fatalf("append %s: %v", in.OperationID, err)
		}
		if !inserted {
			t.Fatalf("expected %s to be inserted", in.OperationID)
		}
	}

	inserted, err := records.Append(ctx, rec("op-a", base.Add(2*time.Hour), domain.ActionRejected))
	if err != nil {
		t.Fatalf("replay append: %v", err)
	}
	if inserted {
		t.Fatal("replayed operation id must not insert")
	}

	got, err := records.ListByBooking(ctx, "bk-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"op-a", "op-b", "op-late"}
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for i, op := range want {
		if got[i].OperationID != op {
			t.Fatalf("record %d: expected %s, got %s", i, op, got[i].OperationID)
		}
	}
	if got[0].Action != domain.ActionCreated || got[0].Type != domain.RecordCreated {
		t.Fatalf("replay must not overwrite the original: %+v", got[0])
	}
	if !got[2].Timestamp.Equal(base.Add(time.Hour)) {
		t.Fatalf("unexpected timestamp %s", got[2].Timestamp)
	}
	if string(got[2].Context) != `{"impersonatedBy":"u-9"}` {
		t.Fatalf("unexpected context %s", got[2].Context)
	}
	if got[0].Context != nil {
		t.Fatalf("expected nil context, got %s", got[0].Context)
	}

	page, err := records.ListAfter(ctx, got[0].ID, 1)
	if err != nil {
		t.Fatalf("list after: %v", err)
	}
	if len(page) != 1 || page[0].ID <= got[0].ID {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestAuditRecordsAreAppendOnly(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	actor, err := NewActorRepository(db).Upsert(ctx, domain.SystemActor{})
	if err != nil {
		t.Fatalf("upsert actor: %v", err)
	}
	records := NewAuditRecordRepository(db)
	if _, err := records.Append(ctx, domain.AuditRecord{
		BookingUID: "bk-1", ActorID: actor.ID, Action: domain.ActionAccepted, Type: domain.RecordUpdated,
		Timestamp: time.Now(), Source: domain.SourceSystem, OperationID: "op-1",
		Data: domain.AuditData{Version: 1, Fields: json.RawMessage(`{}`)},
	}); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := db.W.Exec("UPDATE audit_records SET action = 'REJECTED'").Error; err == nil {
		t.Fatal("expected update to be rejected")
	}
	if err := db.W.Exec("DELETE FROM audit_records").Error; err == nil {
		t.Fatal("expected delete to be rejected")
	}
}

func TestAuditRecordAppendRequiresKnownActor(t *testing.T) {
	records := NewAuditRecordRepository(openTestDB(t))
	_, err := records.Append(context.Background(), domain.AuditRecord{
		BookingUID: "bk-1", ActorID: "ghost", Action: domain.ActionAccepted, Type: domain.RecordUpdated,
		Timestamp: time.Now(), Source: domain.SourceSystem, OperationID: "op-1",
		Data: domain.AuditData{Version: 1, Fields: json.RawMessage(`{}`)},
	})
	if err == nil {
		t.Fatal("expected foreign key violation")
	}
}

func TestAPIKeyRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewAPIKeyRepository(openTestDB(t))

	if _, err := repo.FindByTokenHash(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	for i, active := range []bool{true, false} {
		key := domain.APIKey{TokenHash: "h1", Name: fmt.Sprintf("svc-%d", i), Active: active, CreatedAt: time.Now().UTC()}
		if err := repo.Upsert(ctx, key); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	got, err := repo.FindByTokenHash(ctx, "h1")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Name != "svc-1" || got.Active {
		t.Fatalf("unexpected key: %+v", got)
	}
}
