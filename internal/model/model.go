package model

import "time"

// SubjectType distinguishes lecture subjects from lab subjects.
type SubjectType string

const (
	SubjectTheory SubjectType = "theory"
	SubjectLab    SubjectType = "lab"
)

// SemesterType is the odd/even half of an academic year.
type SemesterType string

const (
	SemesterOdd  SemesterType = "odd"
	SemesterEven SemesterType = "even"
)

// Weekdays lists the weekday names in time.Weekday order (0 = Sunday).
var Weekdays = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Subject is one enrolled course in a semester configuration.
type Subject struct {
	ID            string      `json:"id"`
	CourseCode    string      `json:"courseCode"`
	Name          string      `json:"name"`
	WeeklyClasses int         `json:"weeklyClasses"`
	Type          SubjectType `json:"type"`
}

// SchedulePeriod is one recurring class slot. An empty SubjectID is a free period.
type SchedulePeriod struct {
	PeriodNumber int    `json:"periodNumber"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	SubjectID    string `json:"subjectId"`
	Classroom    string `json:"classroom"`
	DayOfWeek    string `json:"dayOfWeek"`
	IsLab        bool   `json:"isLab,omitempty"`
}

// WeeklySchedule maps a weekday name to its ordered periods.
type WeeklySchedule map[string][]SchedulePeriod

// SemesterConfig is the single per-user semester setup. It is always saved whole.
type SemesterConfig struct {
	UserID       string         `json:"userId"`
	StartDate    string         `json:"startDate"`
	EndDate      string         `json:"endDate"`
	AcademicYear string         `json:"academicYear"`
	SemesterType SemesterType   `json:"semesterType"`
	Subjects     []Subject      `json:"subjects"`
	Schedule     WeeklySchedule `json:"schedule"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// SubjectByID returns the configured subject with the given id.
func (c SemesterConfig) SubjectByID(id string) (Subject, bool) {
	for _, s := range c.Subjects {
		if s.ID == id {
			return s, true
		}
	}
	return Subject{}, false
}

// AttendanceRecord is one stored status for (user, subject, date).
type AttendanceRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	SubjectID string    `json:"subjectId"`
	Date      string    `json:"date"`
	Status    Status    `json:"status"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DateRange bounds a record query. Empty fields are open ends.
type DateRange struct {
	From string
	To   string
}
