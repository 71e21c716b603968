package model

// Status is a stored attendance status. The stored vocabulary keeps "late" for
// compatibility; in the domain it is the Excused bucket (shown as "cancelled").
type Status string

const (
	StatusAttended Status = "present"
	StatusMissed   Status = "absent"
	StatusExcused  Status = "late"
)

// Valid reports whether s is one of the three stored statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusAttended, StatusMissed, StatusExcused:
		return true
	default:
		return false
	}
}

// Label is the user-facing name of the status.
func (s Status) Label() string {
	switch s {
	case StatusAttended:
		return "attended"
	case StatusMissed:
		return "missed"
	case StatusExcused:
		return "cancelled"
	default:
		return string(s)
	}
}

// PeriodStatus is the application-level status of an expected period. It adds
// Pending, which is never stored: a period without a record is pending.
type PeriodStatus string

const (
	PeriodPending  PeriodStatus = "pending"
	PeriodAttended PeriodStatus = PeriodStatus(StatusAttended)
	PeriodMissed   PeriodStatus = PeriodStatus(StatusMissed)
	PeriodExcused  PeriodStatus = PeriodStatus(StatusExcused)
)

// PeriodStatusOf maps a stored status onto the period vocabulary.
func PeriodStatusOf(s Status) PeriodStatus {
	if !s.Valid() {
		return PeriodPending
	}
	return PeriodStatus(s)
}

// Stored returns the stored status and false for Pending.
func (p PeriodStatus) Stored() (Status, bool) {
	s := Status(p)
	if !s.Valid() {
		return "", false
	}
	return s, true
}
