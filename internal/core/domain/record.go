package domain

import (
	"encoding/json"
	"time"
)

// AuditData is the versioned envelope stored with every record.
type AuditData struct {
	Version int             `json:"version"`
	Fields  json.RawMessage `json:"fields"`
}

// AuditRecord is one immutable fact about a booking. ID doubles as the
// insertion sequence used to break timestamp ties.
type AuditRecord struct {
	ID          int64
	BookingUID  string
	ActorID     string
	Action      Action
	Type        RecordType
	Timestamp   time.Time
	Source      Source
	OperationID string
	Data        AuditData
	Context     json.RawMessage
	CreatedAt   time.Time
}
