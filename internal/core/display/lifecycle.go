package display

import (
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
	"github.com/atvirokodosprendimai/bookingaudit/internal/core/schema"
)

var createdHandler = typed[schema.CreatedFields]{
	fields: func(f schema.CreatedFields, _ Store) []domain.DisplayField {
		return []domain.DisplayField{
			textField("start_time", f.StartTime),
			textField("end_time", f.EndTime),
			translationField("status", statusValue(f.Status)),
		}
	},
}

var acceptedHandler = typed[schema.StatusFields]{
	fields: func(f schema.StatusFields, _ Store) []domain.DisplayField {
		return []domain.DisplayField{statusChangeField(f.Status)}
	},
}

var rescheduleRequestedHandler = typed[schema.RescheduleRequestedFields]{
	fields: func(f schema.RescheduleRequestedFields, _ Store) []domain.DisplayField {
		if f.RescheduleReason == "" {
			return []domain.DisplayField{}
		}
		return []domain.DisplayField{textField("reschedule_reason", f.RescheduleReason)}
	},
}

var cancelledHandler = typed[schema.CancelledFields]{
	fields: func(f schema.CancelledFields, _ Store) []domain.DisplayField {
		out := []domain.DisplayField{statusChangeField(f.Status)}
		if f.CancellationReason != "" {
			out = append(out, textField("cancellation_reason", f.CancellationReason))
		}
		if f.CancelledBy != "" {
			out = append(out, textField("cancelled_by", f.CancelledBy))
		}
		return out
	},
}

var rejectedHandler = typed[schema.RejectedFields]{
	fields: func(f schema.RejectedFields, _ Store) []domain.DisplayField {
		out := []domain.DisplayField{statusChangeField(f.Status)}
		if f.RejectionReason != "" {
			out = append(out, textField("rejection_reason", f.RejectionReason))
		}
		return out
	},
}

func statusValue(status string) domain.TranslationValue {
	return domain.TranslationValue{Key: "booking_status." + lower(status)}
}

func statusChangeField(c schema.StringChange) domain.DisplayField {
	params := map[string]string{"new": c.New}
	key := label("status_set")
	if c.Old != nil && *c.Old != "" {
		key = label("status_from_to")
		params["old"] = *c.Old
	}
	return translationField("status", domain.TranslationValue{Key: key, Params: params})
}
