package directory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atvirokodosprendimai/bookingaudit/internal/adapters/gormstore/gormdb"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
	"github.com/atvirokodosprendimai/bookingaudit/migrations"
)

func seededDB(t *testing.T) *gormdb.DB {
	t.Helper()
	db, err := gormdb.Open(gormdb.DialectSQLite, filepath.Join(t.TempDir(), "dir.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	wdb, err := db.WriteSQLDB()
	require.NoError(t, err)
	require.NoError(t, migrations.Up(context.Background(), wdb, db.Dialect()))

	stmts := []string{
		`INSERT INTO directory_users (uuid, name, email) VALUES ('u-1', 'Ada', 'ada@example.com'), ('u-2', 'Bo', 'bo@example.com')`,
		`INSERT INTO directory_attendees (id, booking_uid, name, email) VALUES (7, 'bk-1', 'Ann', 'ann@example.com')`,
		`INSERT INTO booking_access (booking_uid, owner_user_uuid, organization_id) VALUES ('bk-1', 'u-1', 10), ('bk-2', 'u-2', NULL)`,
		`INSERT INTO organization_members (organization_id, user_uuid, accepted) VALUES (10, 'u-member', 1), (10, 'u-invited', 0)`,
	}
	for _, s := range stmts {
		require.NoError(t, db.W.Exec(s).Error)
	}
	return db
}

func TestUserFetcher(t *testing.T) {
	f := NewUserFetcher(seededDB(t))
	assert.Equal(t, domain.KindUserUUIDs, f.Kind())

	got, err := f.FetchBatch(context.Background(), []string{"u-1", "u-missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.EntityProjection{
		"u-1": {Key: "u-1", Name: "Ada", Email: "ada@example.com", Found: true},
	}, got)

	empty, err := f.FetchBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestAttendeeFetcher(t *testing.T) {
	f := NewAttendeeFetcher(seededDB(t))
	got, err := f.FetchBatch(context.Background(), []string{"7", "8", "not-a-number"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Ann", got["7"].Name)
}

func TestBookingAuthorizer(t *testing.T) {
	authz := NewBookingAuthorizer(seededDB(t))
	ctx := context.Background()

	cases := []struct {
		booking, user string
		want          bool
	}{
		{"bk-1", "u-1", true},
		{"bk-1", "u-member", true},
		{"bk-1", "u-invited", false},
		{"bk-1", "u-2", false},
		{"bk-2", "u-2", true},
		{"bk-2", "u-member", false},
		{"bk-unknown", "u-1", false},
		{"bk-1", "", false},
	}
	for _, c := range cases {
		got, err := authz.CanViewBooking(ctx, c.booking, domain.RequesterContext{UserUUID: c.user})
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "%s/%s", c.booking, c.user)
	}
}
