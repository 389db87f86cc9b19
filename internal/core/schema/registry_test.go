package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
)

func TestDefaultCoversEveryAction(t *testing.T) {
	reg := Default()
	for _, a := range domain.AllActions() {
		assert.True(t, reg.Knows(a), "no definition for %s", a)
	}
	assert.Len(t, reg.Actions(), len(domain.AllActions()))

	v, ok := reg.CurrentVersion(domain.ActionNoShowUpdated)
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestWrapStampsCurrentVersion(t *testing.T) {
	reg := Default()

	data, err := reg.Wrap(domain.ActionNoShowUpdated, json.RawMessage(`{
		"host": {"userUuid": "u-1", "noShow": {"old": null, "new": true}}
	}`))
	require.NoError(t, err)
	assert.Equal(t, 2, data.Version)
	assert.JSONEq(t, `{"host":{"userUuid":"u-1","noShow":{"old":null,"new":true}}}`, string(data.Fields))
}

func TestWrapRejectsInvalidPayloads(t *testing.T) {
	reg := Default()
	tests := []struct {
		name   string
		action domain.Action
		fields string
	}{
		{"missing required", domain.ActionCreated, `{"startTime":"2026-01-01T10:00:00Z"}`},
		{"bad timestamp", domain.ActionCreated, `{"startTime":"tomorrow","endTime":"2026-01-01T11:00:00Z","status":"ACCEPTED"}`},
		{"unknown field", domain.ActionAccepted, `{"status":{"new":"ACCEPTED"},"extra":1}`},
		{"legacy no-show shape", domain.ActionNoShowUpdated, `{"noShowHost":{"old":false,"new":true},"hostUserUuid":"u-1"}`},
		{"empty no-show", domain.ActionNoShowUpdated, `{}`},
		{"bad reassignment type", domain.ActionReassignment, `{"organizer":{"new":"u-2"},"reassignmentType":"random"}`},
		{"not an object", domain.ActionRescheduleRequested, `[1,2]`},
		{"unregistered action", domain.Action("TELEPORTED"), `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Wrap(tt.action, json.RawMessage(tt.fields))
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
}

func TestWrapAcceptsEmptyOptionalPayload(t *testing.T) {
	data, err := Default().Wrap(domain.ActionRescheduleRequested, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, data.Version)
	assert.JSONEq(t, `{}`, string(data.Fields))
}

func TestNormalizeNoShowLegacyShapes(t *testing.T) {
	reg := Default()
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "host only",
			in:   `{"noShowHost":{"old":false,"new":true},"hostUserUuid":"u-1"}`,
			want: `{"host":{"userUuid":"u-1","noShow":{"old":false,"new":true}}}`,
		},
		{
			name: "single attendee",
			in:   `{"attendeeEmail":"a@example.com","noShowAttendee":{"old":null,"new":true}}`,
			want: `{"attendeesNoShow":[{"attendeeEmail":"a@example.com","noShow":{"old":null,"new":true}}]}`,
		},
		{
			name: "attendee map sorted by email",
			in:   `{"attendeesNoShow":{"b@example.com":{"new":false},"a@example.com":{"old":false,"new":true}}}`,
			want: `{"attendeesNoShow":[
				{"attendeeEmail":"a@example.com","noShow":{"old":false,"new":true}},
				{"attendeeEmail":"b@example.com","noShow":{"old":null,"new":false}}
			]}`,
		},
		{
			name: "host without uuid is dropped",
			in:   `{"noShowHost":{"old":false,"new":true}}`,
			want: `{}`,
		},
		{
			name: "bare booleans",
			in:   `{"noShowHost":true,"hostUserUuid":"u-1"}`,
			want: `{"host":{"userUuid":"u-1","noShow":{"old":null,"new":true}}}`,
		},
		{
			name: "garbage",
			in:   `"not an object"`,
			want: `{}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := reg.Normalize(domain.ActionNoShowUpdated, domain.AuditData{Version: 1, Fields: json.RawMessage(tt.in)})
			require.NoError(t, err)
			assert.Equal(t, 2, got.Version)
			assert.JSONEq(t, tt.want, string(got.Fields))
		})
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	inputs := []map[string]any{
		{"noShowHost": map[string]any{"old": false, "new": true}, "hostUserUuid": "u-1"},
		{"attendeesNoShow": map[string]any{"a@example.com": map[string]any{"new": true}}},
		{"attendeeEmail": "a@example.com", "noShowAttendee": true, "hostUserUuid": "u-2", "noShowHost": false},
		{},
	}
	m := noShowV1ToV2{}
	for _, in := range inputs {
		once := m.Migrate(in)
		twice := m.Migrate(once)
		assert.Equal(t, jsonOf(t, once), jsonOf(t, twice))
	}

	r := reassignmentV0ToV1{}
	once := r.Migrate(map[string]any{"assignedToUuid": map[string]any{"old": "u-1", "new": "u-2"}})
	assert.Equal(t, jsonOf(t, once), jsonOf(t, r.Migrate(once)))
}

func TestNormalizeReassignmentV0(t *testing.T) {
	got, err := Default().Normalize(domain.ActionReassignment, domain.AuditData{
		Version: 0,
		Fields:  json.RawMessage(`{"assignedToUuid":{"old":"u-1","new":"u-2"}}`),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Version)
	assert.JSONEq(t, `{"organizer":{"old":"u-1","new":"u-2"},"reassignmentType":"manual"}`, string(got.Fields))
}

func TestNormalizeCurrentVersionUnchanged(t *testing.T) {
	in := domain.AuditData{Version: 1, Fields: json.RawMessage(`{"status":{"old":"PENDING","new":"ACCEPTED"}}`)}
	got, err := Default().Normalize(domain.ActionAccepted, in)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestNormalizeUnsupportedVersions(t *testing.T) {
	reg := Default()
	cases := []struct {
		action  domain.Action
		version int
	}{
		{domain.ActionNoShowUpdated, 3},
		{domain.ActionNoShowUpdated, 0},
		{domain.ActionCreated, 7},
	}
	for _, c := range cases {
		_, err := reg.Normalize(c.action, domain.AuditData{Version: c.version, Fields: json.RawMessage(`{}`)})
		var uerr *domain.UnsupportedVersionError
		require.True(t, errors.As(err, &uerr), "%s v%d", c.action, c.version)
		assert.Equal(t, c.version, uerr.Version)
	}
}

func TestNormalizeUnknownActionPassesThrough(t *testing.T) {
	in := domain.AuditData{Version: 9, Fields: json.RawMessage(`{"x":1}`)}
	got, err := Default().Normalize(domain.Action("TELEPORTED"), in)
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestNewRegistryRejectsBrokenDefinitions(t *testing.T) {
	_, err := NewRegistry(Definition{Action: domain.ActionCreated, Version: 1, JSONSchema: `{"type": 12}`})
	assert.Error(t, err)

	_, err = NewRegistry(
		Definition{Action: domain.ActionCreated, Version: 1, JSONSchema: `{}`},
		Definition{Action: domain.ActionCreated, Version: 1, JSONSchema: `{}`},
	)
	assert.Error(t, err)

	_, err = NewRegistry(Definition{Action: domain.ActionReassignment, Version: 1, JSONSchema: `{}`,
		Migrations: []Migration{noShowV1ToV2{}}})
	assert.Error(t, err, "migration past current version")
}

func jsonOf(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
