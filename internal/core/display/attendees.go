package display

import (
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/schema"
)

// Attendee emails are shown verbatim and need no lookup.

var attendeeAddedHandler = typed[schema.AttendeeAddedFields]{
	fields: func(f schema.AttendeeAddedFields, _ Store) []domain.DisplayField {
		return emailFields("added", f.Added)
	},
}

var attendeeRemovedHandler = typed[schema.AttendeeRemovedFields]{
	fields: func(f schema.AttendeeRemovedFields, _ Store) []domain.DisplayField {
		return emailFields("removed", f.Removed)
	},
}

func emailFields(name string, emails []string) []domain.DisplayField {
	out := make([]domain.DisplayField, 0, len(emails))
	for _, email := range emails {
		out = append(out, textField(name, email))
	}
	return out
}
