package schema

import "sort"

// noShowV1ToV2 folds the flat v1 no-show shape into host/attendeesNoShow.
//
// v1 stored the host as noShowHost + hostUserUuid, a single attendee as
// attendeeEmail + noShowAttendee, and several attendees as an
// attendeesNoShow object keyed by email. Entries that lack the identifying
// uuid or email, or a new value, are dropped.
type noShowV1ToV2 struct{}

func (noShowV1ToV2) FromVersion() int { return 1 }
func (noShowV1ToV2) ToVersion() int   { return 2 }

func (noShowV1ToV2) Migrate(in map[string]any) map[string]any {
	out := map[string]any{}

	if host, ok := in["host"].(map[string]any); ok {
		out["host"] = host
	} else if uuid, _ := in["hostUserUuid"].(string); uuid != "" {
		if c, ok := boolChangeOf(in["noShowHost"]); ok {
			out["host"] = map[string]any{"userUuid": uuid, "noShow": c}
		}
	}

	var attendees []any
	switch v := in["attendeesNoShow"].(type) {
	case []any:
		attendees = v
	case map[string]any:
		emails := make([]string, 0, len(v))
		for email := range v {
			emails = append(emails, email)
		}
		sort.Strings(emails)
		for _, email := range emails {
			if email == "" {
				continue
			}
			if c, ok := boolChangeOf(v[email]); ok {
				attendees = append(attendees, map[string]any{"attendeeEmail": email, "noShow": c})
			}
		}
	}
	if email, _ := in["attendeeEmail"].(string); email != "" {
		if c, ok := boolChangeOf(in["noShowAttendee"]); ok {
			attendees = append(attendees, map[string]any{"attendeeEmail": email, "noShow": c})
		}
	}
	if len(attendees) > 0 {
		out["attendeesNoShow"] = attendees
	}
	return out
}

// boolChangeOf accepts {old,new} objects and bare booleans.
func boolChangeOf(v any) (map[string]any, bool) {
	switch c := v.(type) {
	case bool:
		return map[string]any{"old": nil, "new": c}, true
	case map[string]any:
		n, ok := c["new"].(bool)
		if !ok {
			return nil, false
		}
		var old any
		if o, ok := c["old"].(bool); ok {
			old = o
		}
		return map[string]any{"old": old, "new": n}, true
	}
	return nil, false
}

// reassignmentV0ToV1 renames assignedToUuid to organizer and defaults the
// reassignment type, which v0 never recorded.
type reassignmentV0ToV1 struct{}

func (reassignmentV0ToV1) FromVersion() int { return 0 }
func (reassignmentV0ToV1) ToVersion() int   { return 1 }

func (reassignmentV0ToV1) Migrate(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		if k == "assignedToUuid" {
			continue
		}
		out[k] = v
	}
	if _, ok := out["organizer"]; !ok {
		switch v := in["assignedToUuid"].(type) {
		case map[string]any:
			out["organizer"] = v
		case string:
			if v != "" {
				out["organizer"] = map[string]any{"old": nil, "new": v}
			}
		}
	}
	if t, _ := out["reassignmentType"].(string); t == "" {
		out["reassignmentType"] = "manual"
	}
	return out
}
