package display

import (
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/schema"
)

// noShowHandler emits the attendees entry first, then the host entry. Only
// the host needs a lookup.
var noShowHandler = typed[schema.NoShowFields]{
	requirements: func(f schema.NoShowFields) domain.RequirementSet {
		req := domain.NewRequirementSet()
		if f.Host != nil {
			req.Add(domain.KindUserUUIDs, f.Host.UserUUID)
		}
		return req
	},
	fields: func(f schema.NoShowFields, store Store) []domain.DisplayField {
		var out []domain.DisplayField
		if len(f.AttendeesNoShow) > 0 {
			values := make([]domain.TranslationValue, 0, len(f.AttendeesNoShow))
			for _, a := range f.AttendeesNoShow {
				values = append(values, domain.TranslationValue{
					Key:    label("attendee_no_show_status" + yesNo(a.NoShow.New)),
					Params: map[string]string{"email": a.AttendeeEmail},
				})
			}
			out = append(out, translationField("attendees", values...))
		}
		if f.Host != nil {
			out = append(out, translationField("host", domain.TranslationValue{
				Key:    label("host_no_show_status" + yesNo(f.Host.NoShow.New)),
				Params: map[string]string{"name": nameOrUnknown(store, f.Host.UserUUID)},
			}))
		}
		if out == nil {
			out = []domain.DisplayField{}
		}
		return out
	},
}

func yesNo(b bool) string {
	if b {
		return "_yes"
	}
	return "_no"
}
