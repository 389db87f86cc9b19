// Package display turns stored audit payloads into translation-ready fields.
//
// Every handler declares up front exactly which external entities it will
// look up while rendering. The viewer unions those declarations across a
// whole timeline and fetches each entity kind once.
package display

import (
	"encoding/json"
	"fmt"

	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
)

// Handler renders one action. Both methods are pure and receive data already
// migrated to the action's current version.
type Handler interface {
	// DataRequirements returns exactly the keys DisplayFields will look up.
	DataRequirements(data domain.AuditData) (domain.RequirementSet, error)
	DisplayFields(data domain.AuditData, store Store) ([]domain.DisplayField, error)
}

// Registry dispatches actions to handlers.
type Registry struct {
	handlers map[domain.Action]Handler
	fallback Handler
}

func NewRegistry() *Registry {
	return &Registry{
		handlers: map[domain.Action]Handler{
			domain.ActionCreated:             createdHandler,
			domain.ActionAccepted:            acceptedHandler,
			domain.ActionRescheduleRequested: rescheduleRequestedHandler,
			domain.ActionRescheduled:         rescheduledHandler,
			domain.ActionLocationChanged:     locationChangedHandler,
			domain.ActionAttendeeAdded:       attendeeAddedHandler,
			domain.ActionAttendeeRemoved:     attendeeRemovedHandler,
			domain.ActionReassignment:        reassignmentHandler,
			domain.ActionNoShowUpdated:       noShowHandler,
			domain.ActionCancelled:           cancelledHandler,
			domain.ActionRejected:            rejectedHandler,
			domain.ActionSeatBooked:          seatBookedHandler,
			domain.ActionSeatRescheduled:     seatRescheduledHandler,
		},
		fallback: FallbackHandler{},
	}
}

// For returns the action's handler, or the fallback for unregistered actions.
func (r *Registry) For(action domain.Action) Handler {
	if h, ok := r.handlers[action]; ok {
		return h
	}
	return r.fallback
}

func (r *Registry) Registered(action domain.Action) bool {
	_, ok := r.handlers[action]
	return ok
}

func (r *Registry) Fallback() Handler {
	return r.fallback
}

// Title is the display title of an action.
func Title(action domain.Action) domain.TranslationValue {
	return domain.TranslationValue{Key: action.TranslationKey()}
}

// typed adapts functions over a decoded payload into a Handler.
type typed[F any] struct {
	requirements func(F) domain.RequirementSet
	fields       func(F, Store) []domain.DisplayField
}

func (h typed[F]) decode(data domain.AuditData) (F, error) {
	var f F
	if len(data.Fields) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(data.Fields, &f); err != nil {
		return f, fmt.Errorf("decode %T: %w", f, err)
	}
	return f, nil
}

func (h typed[F]) DataRequirements(data domain.AuditData) (domain.RequirementSet, error) {
	f, err := h.decode(data)
	if err != nil {
		return nil, err
	}
	if h.requirements == nil {
		return domain.NewRequirementSet(), nil
	}
	return h.requirements(f), nil
}

func (h typed[F]) DisplayFields(data domain.AuditData, store Store) ([]domain.DisplayField, error) {
	f, err := h.decode(data)
	if err != nil {
		return nil, err
	}
	return h.fields(f, store), nil
}

func label(name string) string {
	return "booking_audit_action." + name
}

func textField(name, value string) domain.DisplayField {
	return domain.DisplayField{LabelKey: label(name), FieldValue: domain.TextValue(value)}
}

func translationField(name string, values ...domain.TranslationValue) domain.DisplayField {
	return domain.DisplayField{LabelKey: label(name), FieldValue: domain.TranslationsValue(values...)}
}

// fromTo renders an old/new pair as <base>_from_to, or <base>_set when there
// was no previous value.
func fromTo(base string, old *string, new string) domain.TranslationValue {
	if old == nil || *old == "" {
		return domain.TranslationValue{Key: label(base + "_set"), Params: map[string]string{"new": new}}
	}
	return domain.TranslationValue{Key: label(base + "_from_to"), Params: map[string]string{"old": *old, "new": new}}
}
