package domain

import "time"

// APIKey authenticates services that call the HTTP API (booking producers and
// the UI/API layers that read timelines on behalf of a requester).
type APIKey struct {
	TokenHash string
	Name      string
	Active    bool
	CreatedAt time.Time
}
