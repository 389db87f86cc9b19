package domain

import "time"

// RequesterContext identifies who is asking to read a booking's timeline.
type RequesterContext struct {
	UserUUID string
}

type ActorDisplay struct {
	Type         ActorType `json:"type"`
	DisplayName  string    `json:"displayName"`
	DisplayEmail string    `json:"displayEmail,omitempty"`
}

type AuditLogView struct {
	ID            int64            `json:"id"`
	BookingUID    string           `json:"bookingUid"`
	Action        Action           `json:"action"`
	Type          RecordType       `json:"type"`
	Source        Source           `json:"source"`
	Timestamp     time.Time        `json:"timestamp"`
	Actor         ActorDisplay     `json:"actor"`
	DisplayTitle  TranslationValue `json:"displayTitle"`
	DisplayFields []DisplayField   `json:"displayFields"`
}

type BookingAuditLogs struct {
	BookingUID string         `json:"bookingUid"`
	AuditLogs  []AuditLogView `json:"auditLogs"`
}
