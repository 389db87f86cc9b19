package display

import (
	"fmt"

	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
)

// CheckContract renders data through a recording store and reports whether
// the keys looked up are exactly the keys the handler declared.
func CheckContract(h Handler, data domain.AuditData, store Store) error {
	declared, err := h.DataRequirements(data)
	if err != nil {
		return fmt.Errorf("requirements: %w", err)
	}
	rec := NewRecordingStore(store)
	if _, err := h.DisplayFields(data, rec); err != nil {
		return fmt.Errorf("display fields: %w", err)
	}
	if !declared.Equal(rec.Accessed()) {
		return fmt.Errorf("declared %v but looked up %v", describe(declared), describe(rec.Accessed()))
	}
	return nil
}

func describe(r domain.RequirementSet) map[domain.EntityKind][]string {
	out := make(map[domain.EntityKind][]string, len(r))
	for _, kind := range r.Kinds() {
		out[kind] = r.Keys(kind)
	}
	return out
}
