package display

import (
	"strings"

	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/schema"
)

var rescheduledHandler = typed[schema.RescheduledFields]{
	fields: func(f schema.RescheduledFields, _ Store) []domain.DisplayField {
		out := []domain.DisplayField{
			translationField("start_time", fromTo("time", f.StartTime.Old, f.StartTime.New)),
			translationField("end_time", fromTo("time", f.EndTime.Old, f.EndTime.New)),
		}
		if f.RescheduledToUID != "" {
			out = append(out, textField("rescheduled_to_uid", f.RescheduledToUID))
		}
		return out
	},
}

var locationChangedHandler = typed[schema.LocationChangedFields]{
	fields: func(f schema.LocationChangedFields, _ Store) []domain.DisplayField {
		return []domain.DisplayField{
			translationField("location", fromTo("location", f.Location.Old, f.Location.New)),
		}
	},
}

var seatBookedHandler = typed[schema.SeatBookedFields]{
	fields: func(f schema.SeatBookedFields, _ Store) []domain.DisplayField {
		out := []domain.DisplayField{
			textField("seat_reference_uid", f.SeatReferenceUID),
			textField("attendee_email", f.AttendeeEmail),
		}
		if f.AttendeeName != "" {
			out = append(out, textField("attendee_name", f.AttendeeName))
		}
		return append(out,
			textField("start_time", f.StartTime),
			textField("end_time", f.EndTime),
		)
	},
}

var seatRescheduledHandler = typed[schema.SeatRescheduledFields]{
	fields: func(f schema.SeatRescheduledFields, _ Store) []domain.DisplayField {
		out := []domain.DisplayField{
			textField("seat_reference_uid", f.SeatReferenceUID),
			textField("attendee_email", f.AttendeeEmail),
			translationField("start_time", fromTo("time", f.StartTime.Old, f.StartTime.New)),
			translationField("end_time", fromTo("time", f.EndTime.Old, f.EndTime.New)),
		}
		if f.RescheduledToUID != "" {
			out = append(out, textField("rescheduled_to_uid", f.RescheduledToUID))
		}
		return out
	},
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
