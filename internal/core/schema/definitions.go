package schema

import (
	"fmt"

	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
)

const (
	text         = `{"type":"string","minLength":1}`
	optionalText = `{"type":"string"}`
	dateTime     = `{"type":"string","format":"date-time"}`
	emailList    = `{"type":"array","minItems":1,"items":{"type":"string","minLength":1}}`
)

func change(valueSchema string) string {
	return fmt.Sprintf(`{"type":"object","properties":{"old":{"anyOf":[%s,{"type":"null"}]},"new":%s},"required":["new"],"additionalProperties":false}`, valueSchema, valueSchema)
}

func object(required []string, props ...string) string {
	body := ""
	for i := 0; i < len(props); i += 2 {
		if i > 0 {
			body += ","
		}
		body += fmt.Sprintf("%q:%s", props[i], props[i+1])
	}
	req := ""
	for i, r := range required {
		if i > 0 {
			req += ","
		}
		req += fmt.Sprintf("%q", r)
	}
	return fmt.Sprintf(`{"type":"object","properties":{%s},"required":[%s],"additionalProperties":false}`, body, req)
}

var (
	statusChange   = change(optionalText)
	dateTimeChange = change(dateTime)
	boolChange     = change(`{"type":"boolean"}`)

	hostNoShow     = object([]string{"userUuid", "noShow"}, "userUuid", text, "noShow", boolChange)
	attendeeNoShow = object([]string{"attendeeEmail", "noShow"}, "attendeeEmail", text, "noShow", boolChange)
)

// noShowSchema needs at least one of host or attendeesNoShow, which object()
// cannot express.
var noShowSchema = fmt.Sprintf(`{
	"type": "object",
	"properties": {
		"host": %s,
		"attendeesNoShow": {"type": "array", "minItems": 1, "items": %s}
	},
	"anyOf": [{"required": ["host"]}, {"required": ["attendeesNoShow"]}],
	"additionalProperties": false
}`, hostNoShow, attendeeNoShow)

// Definitions returns the built-in action definitions. Bumping an action's
// version means adding a Migration from the previous version here.
func Definitions() []Definition {
	return []Definition{
		{
			Action:  domain.ActionCreated,
			Version: 1,
			JSONSchema: object([]string{"startTime", "endTime", "status"},
				"startTime", dateTime, "endTime", dateTime, "status", text),
		},
		{
			Action:     domain.ActionAccepted,
			Version:    1,
			JSONSchema: object([]string{"status"}, "status", statusChange),
		},
		{
			Action:     domain.ActionRescheduleRequested,
			Version:    1,
			JSONSchema: object(nil, "rescheduleReason", optionalText),
		},
		{
			Action:  domain.ActionRescheduled,
			Version: 1,
			JSONSchema: object([]string{"startTime", "endTime"},
				"startTime", dateTimeChange, "endTime", dateTimeChange, "rescheduledToUid", optionalText),
		},
		{
			Action:     domain.ActionLocationChanged,
			Version:    1,
			JSONSchema: object([]string{"location"}, "location", change(optionalText)),
		},
		{
			Action:     domain.ActionAttendeeAdded,
			Version:    1,
			JSONSchema: object([]string{"added"}, "added", emailList),
		},
		{
			Action:     domain.ActionAttendeeRemoved,
			Version:    1,
			JSONSchema: object([]string{"removed"}, "removed", emailList),
		},
		{
			Action:  domain.ActionReassignment,
			Version: 1,
			JSONSchema: object([]string{"organizer", "reassignmentType"},
				"organizer", change(text),
				"reassignmentReason", optionalText,
				"reassignmentType", `{"type":"string","enum":["manual","roundRobin"]}`),
			Migrations: []Migration{reassignmentV0ToV1{}},
		},
		{
			Action:     domain.ActionNoShowUpdated,
			Version:    2,
			JSONSchema: noShowSchema,
			Migrations: []Migration{noShowV1ToV2{}},
		},
		{
			Action:  domain.ActionCancelled,
			Version: 1,
			JSONSchema: object([]string{"status"},
				"cancellationReason", optionalText, "cancelledBy", optionalText, "status", statusChange),
		},
		{
			Action:  domain.ActionRejected,
			Version: 1,
			JSONSchema: object([]string{"status"},
				"rejectionReason", optionalText, "status", statusChange),
		},
		{
			Action:  domain.ActionSeatBooked,
			Version: 1,
			JSONSchema: object([]string{"seatReferenceUid", "attendeeEmail", "startTime", "endTime"},
				"seatReferenceUid", text, "attendeeEmail", text, "attendeeName", optionalText,
				"startTime", dateTime, "endTime", dateTime),
		},
		{
			Action:  domain.ActionSeatRescheduled,
			Version: 1,
			JSONSchema: object([]string{"seatReferenceUid", "attendeeEmail", "startTime", "endTime"},
				"seatReferenceUid", text, "attendeeEmail", text,
				"startTime", dateTimeChange, "endTime", dateTimeChange, "rescheduledToUid", optionalText),
		},
	}
}
