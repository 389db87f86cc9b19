package domain

import (
	"sort"
	"strings"
)

// EntityKind names a family of external entities that display handlers may
// need, keyed by a natural key.
type EntityKind string

const (
	KindUserUUIDs   EntityKind = "userUuids"
	KindAttendeeIDs EntityKind = "attendeeIds"
)

// UnknownName is rendered for entities that could not be found.
const UnknownName = "Unknown"

// RequirementSet maps an entity kind to the natural keys needed to render a
// record. The zero value is not usable; use NewRequirementSet.
type RequirementSet map[EntityKind]map[string]struct{}

func NewRequirementSet() RequirementSet {
	return RequirementSet{}
}

// Add records key under kind. Blank keys are ignored.
func (r RequirementSet) Add(kind EntityKind, key string) {
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	keys, ok := r[kind]
	if !ok {
		keys = make(map[string]struct{})
		r[kind] = keys
	}
	keys[key] = struct{}{}
}

func (r RequirementSet) Merge(other RequirementSet) {
	for kind, keys := range other {
		for key := range keys {
			r.Add(kind, key)
		}
	}
}

func (r RequirementSet) Has(kind EntityKind, key string) bool {
	_, ok := r[kind][key]
	return ok
}

// Keys returns the keys of kind in sorted order.
func (r RequirementSet) Keys(kind EntityKind) []string {
	keys := make([]string, 0, len(r[kind]))
	for key := range r[kind] {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Kinds returns the non-empty kinds in sorted order.
func (r RequirementSet) Kinds() []EntityKind {
	kinds := make([]EntityKind, 0, len(r))
	for kind, keys := range r {
		if len(keys) > 0 {
			kinds = append(kinds, kind)
		}
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

func (r RequirementSet) Len() int {
	n := 0
	for _, keys := range r {
		n += len(keys)
	}
	return n
}

func (r RequirementSet) Equal(other RequirementSet) bool {
	if r.Len() != other.Len() {
		return false
	}
	for kind, keys := range r {
		for key := range keys {
			if !other.Has(kind, key) {
				return false
			}
		}
	}
	return true
}

// EntityProjection is the minimal display data fetched for one entity.
type EntityProjection struct {
	Key   string
	Name  string
	Email string
	Found bool
}

// UnknownProjection is the fallback for keys that resolve to nothing.
func UnknownProjection(key string) EntityProjection {
	return EntityProjection{Key: key, Name: UnknownName}
}
