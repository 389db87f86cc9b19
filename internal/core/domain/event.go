package domain

import (
	"encoding/json"
	"time"
)

// BookingActionEvent is what booking lifecycle code emits for the audit
// trail. Delivery is at-least-once; OperationID makes replays harmless.
type BookingActionEvent struct {
	BookingUID  string
	Actor       ActorRef
	Action      Action
	Source      Source
	OperationID string
	Data        json.RawMessage
	// Timestamp is epoch milliseconds.
	Timestamp int64
	Context   map[string]any
}

func (e BookingActionEvent) OccurredAt() time.Time {
	return time.UnixMilli(e.Timestamp).UTC()
}

// BookingActionMessage is the JSON wire form accepted over HTTP and the queue.
type BookingActionMessage struct {
	BookingUID  string          `json:"bookingUid"`
	Actor       json.RawMessage `json:"actor"`
	Action      Action          `json:"action"`
	Source      Source          `json:"source"`
	OperationID string          `json:"operationId"`
	Data        json.RawMessage `json:"data"`
	Timestamp   int64           `json:"timestamp"`
	Context     map[string]any  `json:"context,omitempty"`
}

// Event decodes the actor reference. Everything else is validated by the
// ingest service.
func (m BookingActionMessage) Event() (BookingActionEvent, error) {
	actor, err := DecodeActorRef(m.Actor)
	if err != nil {
		return BookingActionEvent{}, err
	}
	return BookingActionEvent{
		BookingUID:  m.BookingUID,
		Actor:       actor,
		Action:      m.Action,
		Source:      m.Source,
		OperationID: m.OperationID,
		Data:        m.Data,
		Timestamp:   m.Timestamp,
		Context:     m.Context,
	}, nil
}

type IngestOutcome string

const (
	IngestInserted  IngestOutcome = "inserted"
	IngestDuplicate IngestOutcome = "duplicate"
)
