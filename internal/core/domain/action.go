package domain

import "strings"

type Action string

const (
	ActionCreated             Action = "CREATED"
	ActionAccepted            Action = "ACCEPTED"
	ActionRescheduleRequested Action = "RESCHEDULE_REQUESTED"
	ActionRescheduled         Action = "RESCHEDULED"
	ActionLocationChanged     Action = "LOCATION_CHANGED"
	ActionAttendeeAdded       Action = "ATTENDEE_ADDED"
	ActionAttendeeRemoved     Action = "ATTENDEE_REMOVED"
	ActionReassignment        Action = "REASSIGNMENT"
	ActionNoShowUpdated       Action = "NO_SHOW_UPDATED"
	ActionCancelled           Action = "CANCELLED"
	ActionRejected            Action = "REJECTED"
	ActionSeatBooked          Action = "SEAT_BOOKED"
	ActionSeatRescheduled     Action = "SEAT_RESCHEDULED"
)

// AllActions lists every action in declaration order.
func AllActions() []Action {
	return []Action{
		ActionCreated,
		ActionAccepted,
		ActionRescheduleRequested,
		ActionRescheduled,
		ActionLocationChanged,
		ActionAttendeeAdded,
		ActionAttendeeRemoved,
		ActionReassignment,
		ActionNoShowUpdated,
		ActionCancelled,
		ActionRejected,
		ActionSeatBooked,
		ActionSeatRescheduled,
	}
}

func (a Action) Valid() bool {
	for _, known := range AllActions() {
		if a == known {
			return true
		}
	}
	return false
}

// RecordType is RECORD_CREATED for actions that bring a booking (or a seat)
// into existence and RECORD_UPDATED for everything else.
func (a Action) RecordType() RecordType {
	switch a {
	case ActionCreated, ActionSeatBooked:
		return RecordCreated
	default:
		return RecordUpdated
	}
}

// TranslationKey is the display title key, e.g. booking_audit_action.no_show_updated.
func (a Action) TranslationKey() string {
	return "booking_audit_action." + strings.ToLower(string(a))
}

type RecordType string

const (
	RecordCreated RecordType = "RECORD_CREATED"
	RecordUpdated RecordType = "RECORD_UPDATED"
)

type Source string

const (
	SourceWebapp    Source = "WEBAPP"
	SourceAPIV1     Source = "API_V1"
	SourceAPIV2     Source = "API_V2"
	SourceWebhook   Source = "WEBHOOK"
	SourceSystem    Source = "SYSTEM"
	SourceMagicLink Source = "MAGIC_LINK"
)

func (s Source) Valid() bool {
	switch s {
	case SourceWebapp, SourceAPIV1, SourceAPIV2, SourceWebhook, SourceSystem, SourceMagicLink:
		return true
	}
	return false
}
