package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atvirokodosprendimai/bookingaudit/internal/adapters/gormstore/gormdb"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/usecase"
)

const testToken = "producer-token"

func newTestApp(t *testing.T) (*App, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.sqlite")
	a, err := New(context.Background(), Config{
		DBDriver:        gormdb.DialectSQLite,
		DBDSN:           path,
		BootstrapAPIKey: testToken,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a, path
}

func seedDirectory(t *testing.T, path string) {
	t.Helper()
	db, err := gormdb.Open(gormdb.DialectSQLite, path)
	require.NoError(t, err)
	defer db.Close()

	stmts := []string{
		`INSERT INTO directory_users (uuid, name, email) VALUES ('user-1', 'Ada Lovelace', 'ada@example.com')`,
		`INSERT INTO directory_users (uuid, name, email) VALUES ('user-2', 'Grace Hopper', 'grace@example.com')`,
		`INSERT INTO booking_access (booking_uid, owner_user_uuid) VALUES ('booking-1', 'user-1')`,
	}
	for _, stmt := range stmts {
		require.NoError(t, db.W.Exec(stmt).Error)
	}
}

func do(t *testing.T, srv *httptest.Server, method, path, requester, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("X-API-Key", testToken)
	if requester != "" {
		req.Header.Set("X-Requester-User-Uuid", requester)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

const reassignmentEvent = `{
	"bookingUid": "booking-1",
	"actor": {"type": "USER", "userUuid": "user-1"},
	"action": "REASSIGNMENT",
	"source": "WEBAPP",
	"operationId": "op-reassign-1",
	"data": {"organizer": {"old": "user-1", "new": "user-2"}, "reassignmentType": "manual"},
	"timestamp": 1700000000000
}`

func TestIngestAndViewOverHTTP(t *testing.T) {
	a, path := newTestApp(t)
	seedDirectory(t, path)
	srv := httptest.NewServer(a.NewServer("").Handler)
	defer srv.Close()

	resp := do(t, srv, http.MethodPost, "/v1/audit-events", "", reassignmentEvent)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/v1/audit-events", "", reassignmentEvent)
	require.Equal(t, http.StatusOK, resp.StatusCode, "replay is a no-op")

	resp = do(t, srv, http.MethodGet, "/v1/bookings/booking-1/audit-logs", "user-1", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var logs domain.BookingAuditLogs
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&logs))
	require.Len(t, logs.AuditLogs, 1)

	view := logs.AuditLogs[0]
	assert.Equal(t, domain.ActionReassignment, view.Action)
	assert.Equal(t, "Ada Lovelace", view.Actor.DisplayName)
	assert.Equal(t, "booking_audit_action.reassignment", view.DisplayTitle.Key)
	require.NotEmpty(t, view.DisplayFields)
	organizer := view.DisplayFields[0].FieldValue.ValuesWithParams
	require.Len(t, organizer, 1)
	assert.Equal(t, map[string]string{"old": "Ada Lovelace", "new": "Grace Hopper"}, organizer[0].Params)
}

func TestViewDeniedForStranger(t *testing.T) {
	a, path := newTestApp(t)
	seedDirectory(t, path)
	srv := httptest.NewServer(a.NewServer("").Handler)
	defer srv.Close()

	resp := do(t, srv, http.MethodGet, "/v1/bookings/booking-1/audit-logs", "user-3", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/v1/bookings/booking-1/audit-logs", "", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestRejectedEventIsNotStored(t *testing.T) {
	a, _ := newTestApp(t)
	srv := httptest.NewServer(a.NewServer("").Handler)
	defer srv.Close()

	bad := strings.Replace(reassignmentEvent, `"reassignmentType": "manual"`, `"reassignmentType": "coinFlip"`, 1)
	resp := do(t, srv, http.MethodPost, "/v1/audit-events", "", bad)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	records, err := a.Records.ListByBooking(context.Background(), "booking-1")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestCheckHistoryOnFreshStore(t *testing.T) {
	a, _ := newTestApp(t)
	ctx := context.Background()

	ev, err := domain.BookingActionMessage{
		BookingUID:  "booking-1",
		Actor:       []byte(`{"type":"SYSTEM"}`),
		Action:      domain.ActionAccepted,
		Source:      domain.SourceSystem,
		OperationID: "op-accept-1",
		Data:        []byte(`{"status":{"old":"PENDING","new":"ACCEPTED"}}`),
		Timestamp:   1700000000000,
	}.Event()
	require.NoError(t, err)
	_, err = a.Ingest.OnBookingAction(ctx, ev)
	require.NoError(t, err)

	var issues []usecase.HistoryIssue
	checked, err := a.CheckHistory(ctx, 10, func(issue usecase.HistoryIssue) error {
		issues = append(issues, issue)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, checked)
	assert.Empty(t, issues)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), Config{DBDriver: "mysql", DBDSN: "x"}, nil)
	assert.Error(t, err)
}
