package display

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
)

// FallbackHandler renders any payload as raw diffs, one field per top-level
// key in key order. It needs no external data.
type FallbackHandler struct{}

func (FallbackHandler) DataRequirements(domain.AuditData) (domain.RequirementSet, error) {
	return domain.NewRequirementSet(), nil
}

func (FallbackHandler) DisplayFields(data domain.AuditData, _ Store) ([]domain.DisplayField, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data.Fields, &fields); err != nil || len(fields) == 0 {
		return []domain.DisplayField{}, nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]domain.DisplayField, 0, len(keys))
	for _, k := range keys {
		before, after := splitChange(fields[k])
		out = append(out, domain.DisplayField{LabelKey: label(k), FieldValue: domain.ChangeValue(before, after)})
	}
	return out, nil
}

// splitChange unpacks {old,new} objects; any other value is treated as a new
// value with no previous one.
func splitChange(raw json.RawMessage) (json.RawMessage, json.RawMessage) {
	null := json.RawMessage("null")
	var c map[string]json.RawMessage
	if err := json.Unmarshal(raw, &c); err == nil {
		if n, ok := c["new"]; ok && len(c) <= 2 {
			if o, ok := c["old"]; ok {
				return o, n
			}
			if len(c) == 1 {
				return null, n
			}
		}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return null, null
	}
	return null, raw
}
