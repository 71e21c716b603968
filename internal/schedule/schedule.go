// Package schedule projects a weekly recurring timetable onto calendar dates.
package schedule

import (
	"time"

	"attendtrack/internal/model"
)

// UnknownSubject is shown for periods whose subject no longer resolves.
const UnknownSubject = "Unknown Subject"

// Period is a schedule slot enriched with subject metadata.
type Period struct {
	model.SchedulePeriod
	SubjectName string            `json:"subjectName"`
	SubjectCode string            `json:"subjectCode"`
	SubjectType model.SubjectType `json:"subjectType,omitempty"`
}

// DayOfWeek returns the weekday name of t (0 = Sunday).
func DayOfWeek(t time.Time) string {
	return model.Weekdays[t.Weekday()]
}

// GenerateDailySchedule returns the periods configured for t's weekday with
// DayOfWeek set on each. Days without entries yield an empty slice. It does not
// check the semester range; callers use IsDateInSemester first.
func GenerateDailySchedule(t time.Time, weekly model.WeeklySchedule, subjects []model.Subject) []model.SchedulePeriod {
	day := DayOfWeek(t)
	entries := weekly[day]
	out := make([]model.SchedulePeriod, 0, len(entries))
	for _, p := range entries {
		p.DayOfWeek = day
		out = append(out, p)
	}
	return out
}

// EnrichScheduleWithSubjectDetails attaches subject name, code and type. A
// subject id that does not resolve gets UnknownSubject instead of failing, so one
// stale reference cannot break a whole day.
func EnrichScheduleWithSubjectDetails(periods []model.SchedulePeriod, subjects []model.Subject) []Period {
	byID := make(map[string]model.Subject, len(subjects))
	for _, s := range subjects {
		byID[s.ID] = s
	}
	out := make([]Period, 0, len(periods))
	for _, p := range periods {
		ep := Period{SchedulePeriod: p}
		if s, ok := byID[p.SubjectID]; ok {
			ep.SubjectName = s.Name
			ep.SubjectCode = s.CourseCode
			ep.SubjectType = s.Type
		} else {
			ep.SubjectName = UnknownSubject
		}
		out = append(out, ep)
	}
	return out
}

// IsDateInSemester reports whether t falls in [start, end], compared by calendar day.
func IsDateInSemester(t, start, end time.Time) bool {
	d := dayKey(t)
	return d >= dayKey(start) && d <= dayKey(end)
}

// IsWeekend is true for Saturday and Sunday. There is no holiday calendar.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func dayKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}
