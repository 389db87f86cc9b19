package schema

// Current field shapes per action. Display handlers decode stored fields into
// these after the registry has migrated them.

type StringChange struct {
	Old *string `json:"old"`
	New string  `json:"new"`
}

type BoolChange struct {
	Old *bool `json:"old"`
	New bool  `json:"new"`
}

type CreatedFields struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Status    string `json:"status"`
}

type StatusFields struct {
	Status StringChange `json:"status"`
}

type RescheduleRequestedFields struct {
	RescheduleReason string `json:"rescheduleReason,omitempty"`
}

type RescheduledFields struct {
	StartTime        StringChange `json:"startTime"`
	EndTime          StringChange `json:"endTime"`
	RescheduledToUID string       `json:"rescheduledToUid,omitempty"`
}

type LocationChangedFields struct {
	Location StringChange `json:"location"`
}

type AttendeeAddedFields struct {
	Added []string `json:"added"`
}

type AttendeeRemovedFields struct {
	Removed []string `json:"removed"`
}

type ReassignmentFields struct {
	Organizer          StringChange `json:"organizer"`
	ReassignmentReason string       `json:"reassignmentReason,omitempty"`
	ReassignmentType   string       `json:"reassignmentType"`
}

type HostNoShow struct {
	UserUUID string     `json:"userUuid"`
	NoShow   BoolChange `json:"noShow"`
}

type AttendeeNoShow struct {
	AttendeeEmail string     `json:"attendeeEmail"`
	NoShow        BoolChange `json:"noShow"`
}

type NoShowFields struct {
	Host            *HostNoShow      `json:"host,omitempty"`
	AttendeesNoShow []AttendeeNoShow `json:"attendeesNoShow,omitempty"`
}

type CancelledFields struct {
	CancellationReason string       `json:"cancellationReason,omitempty"`
	CancelledBy        string       `json:"cancelledBy,omitempty"`
	Status             StringChange `json:"status"`
}

type RejectedFields struct {
	RejectionReason string       `json:"rejectionReason,omitempty"`
	Status          StringChange `json:"status"`
}

type SeatBookedFields struct {
	SeatReferenceUID string `json:"seatReferenceUid"`
	AttendeeEmail    string `json:"attendeeEmail"`
	AttendeeName     string `json:"attendeeName,omitempty"`
	StartTime        string `json:"startTime"`
	EndTime          string `json:"endTime"`
}

type SeatRescheduledFields struct {
	SeatReferenceUID string       `json:"seatReferenceUid"`
	AttendeeEmail    string       `json:"attendeeEmail"`
	StartTime        StringChange `json:"startTime"`
	EndTime          StringChange `json:"endTime"`
	RescheduledToUID string       `json:"rescheduledToUid,omitempty"`
}
