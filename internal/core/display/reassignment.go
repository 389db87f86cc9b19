package display

import (
	"strings"

	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/schema"
)

var reassignmentHandler = typed[schema.ReassignmentFields]{
	requirements: func(f schema.ReassignmentFields) domain.RequirementSet {
		req := domain.NewRequirementSet()
		if f.Organizer.Old != nil {
			req.Add(domain.KindUserUUIDs, *f.Organizer.Old)
		}
		req.Add(domain.KindUserUUIDs, f.Organizer.New)
		return req
	},
	fields: func(f schema.ReassignmentFields, store Store) []domain.DisplayField {
		params := map[string]string{"new": nameOrUnknown(store, f.Organizer.New)}
		key := label("assigned_to")
		if f.Organizer.Old != nil && *f.Organizer.Old != "" {
			key = label("reassigned_from_to")
			params["old"] = nameOrUnknown(store, *f.Organizer.Old)
		}
		out := []domain.DisplayField{
			translationField("organizer", domain.TranslationValue{Key: key, Params: params}),
			translationField("reassignment_type", domain.TranslationValue{Key: label("reassignment_type_" + reassignmentTypeKey(f.ReassignmentType))}),
		}
		if f.ReassignmentReason != "" {
			out = append(out, textField("reassignment_reason", f.ReassignmentReason))
		}
		return out
	},
}

// nameOrUnknown skips the lookup for blank keys, which are never declared.
func nameOrUnknown(store Store, userUUID string) string {
	userUUID = strings.TrimSpace(userUUID)
	if userUUID == "" {
		return domain.UnknownName
	}
	return nameOf(store, domain.KindUserUUIDs, userUUID)
}

func reassignmentTypeKey(t string) string {
	if t == "roundRobin" {
		return "round_robin"
	}
	return "manual"
}
