package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

type ActorType string

const (
	ActorTypeUser     ActorType = "USER"
	ActorTypeAttendee ActorType = "ATTENDEE"
	ActorTypeGuest    ActorType = "GUEST"
	ActorTypeSystem   ActorType = "SYSTEM"
	ActorTypeApp      ActorType = "APP"
)

// ActorRef identifies who performed an audited action. The set of
// implementations is closed: UserActor, AttendeeActor, GuestActor,
// SystemActor and AppActor.
type ActorRef interface {
	ActorType() ActorType
	// NaturalKey is unique per actor within its variant and is the upsert key
	// of the actor table.
	NaturalKey() string
	Validate() error
	actorRef()
}

type UserActor struct {
	UserUUID string
}

type AttendeeActor struct {
	AttendeeID int64
}

type GuestActor struct {
	Email string
	Name  string
}

type SystemActor struct{}

type AppActor struct {
	Slug string
	Name string
}

func (UserActor) ActorType() ActorType     { return ActorTypeUser }
func (AttendeeActor) ActorType() ActorType { return ActorTypeAttendee }
func (GuestActor) ActorType() ActorType    { return ActorTypeGuest }
func (SystemActor) ActorType() ActorType   { return ActorTypeSystem }
func (AppActor) ActorType() ActorType      { return ActorTypeApp }

func (a UserActor) NaturalKey() string { return "user:" + strings.TrimSpace(a.UserUUID) }
func (a AttendeeActor) NaturalKey() string {
	return "attendee:" + strconv.FormatInt(a.AttendeeID, 10)
}
func (a GuestActor) NaturalKey() string { return "guest:" + NormalizeEmail(a.Email) }
func (SystemActor) NaturalKey() string  { return "system" }
func (a AppActor) NaturalKey() string   { return "app:" + strings.TrimSpace(a.Slug) }

func (a UserActor) Validate() error {
	if strings.TrimSpace(a.UserUUID) == "" {
		return NewValidationError("actor.userUuid", "is required for USER actors")
	}
	return nil
}

func (a AttendeeActor) Validate() error {
	if a.AttendeeID <= 0 {
		return NewValidationError("actor.attendeeId", "must be a positive id for ATTENDEE actors")
	}
	return nil
}

func (a GuestActor) Validate() error {
	if !validEmail(NormalizeEmail(a.Email)) {
		return NewValidationError("actor.email", "must be a valid email for GUEST actors")
	}
	return nil
}

func (SystemActor) Validate() error { return nil }

func (a AppActor) Validate() error {
	if !slugPattern.MatchString(strings.TrimSpace(a.Slug)) {
		return NewValidationError("actor.slug", "must be a valid app slug for APP actors")
	}
	return nil
}

// CanonicalActorRef trims identifiers and lowercases guest emails so the
// stored columns match the natural key.
func CanonicalActorRef(ref ActorRef) ActorRef {
	switch a := ref.(type) {
	case UserActor:
		a.UserUUID = strings.TrimSpace(a.UserUUID)
		return a
	case GuestActor:
		a.Email = NormalizeEmail(a.Email)
		a.Name = strings.TrimSpace(a.Name)
		return a
	case AppActor:
		a.Slug = strings.TrimSpace(a.Slug)
		a.Name = strings.TrimSpace(a.Name)
		return a
	}
	return ref
}

func (UserActor) actorRef()     {}
func (AttendeeActor) actorRef() {}
func (GuestActor) actorRef()    {}
func (SystemActor) actorRef()   {}
func (AppActor) actorRef()      {}

// Actor is the persisted identity an audit record is attributed to.
type Actor struct {
	ID         string
	Type       ActorType
	NaturalKey string
	UserUUID   string
	AttendeeID int64
	Email      string
	Name       string
	AppSlug    string
	CreatedAt  time.Time
}

// ActorPayload is the wire form of an ActorRef:
//
//	{"type":"USER","userUuid":"..."}
//	{"type":"ATTENDEE","attendeeId":42}
//	{"type":"GUEST","email":"...","name":"..."}
//	{"type":"SYSTEM"}
//	{"type":"APP","slug":"zapier","name":"Zapier"}
type ActorPayload struct {
	Type       ActorType `json:"type"`
	UserUUID   string    `json:"userUuid,omitempty"`
	AttendeeID int64     `json:"attendeeId,omitempty"`
	Email      string    `json:"email,omitempty"`
	Name       string    `json:"name,omitempty"`
	Slug       string    `json:"slug,omitempty"`
}

// Ref converts the wire form into its tagged variant and validates it.
func (p ActorPayload) Ref() (ActorRef, error) {
	var ref ActorRef
	switch p.Type {
	case ActorTypeUser:
		ref = UserActor{UserUUID: p.UserUUID}
	case ActorTypeAttendee:
		ref = AttendeeActor{AttendeeID: p.AttendeeID}
	case ActorTypeGuest:
		ref = GuestActor{Email: p.Email, Name: p.Name}
	case ActorTypeSystem:
		ref = SystemActor{}
	case ActorTypeApp:
		ref = AppActor{Slug: p.Slug, Name: p.Name}
	case "":
		return nil, NewValidationError("actor.type", "is required")
	default:
		return nil, NewValidationError("actor.type", "is not a known actor type: "+string(p.Type))
	}
	ref = CanonicalActorRef(ref)
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	return ref, nil
}

func PayloadFromRef(ref ActorRef) ActorPayload {
	switch a := ref.(type) {
	case UserActor:
		return ActorPayload{Type: ActorTypeUser, UserUUID: a.UserUUID}
	case AttendeeActor:
		return ActorPayload{Type: ActorTypeAttendee, AttendeeID: a.AttendeeID}
	case GuestActor:
		return ActorPayload{Type: ActorTypeGuest, Email: a.Email, Name: a.Name}
	case SystemActor:
		return ActorPayload{Type: ActorTypeSystem}
	case AppActor:
		return ActorPayload{Type: ActorTypeApp, Slug: a.Slug, Name: a.Name}
	}
	return ActorPayload{}
}

// DecodeActorRef parses and validates a wire actor reference.
func DecodeActorRef(raw json.RawMessage) (ActorRef, error) {
	if len(raw) == 0 {
		return nil, NewValidationError("actor", "is required")
	}
	var p ActorPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, NewValidationError("actor", "must be an object")
	}
	return p.Ref()
}
