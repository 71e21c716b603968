package schedule

import (
	"time"

	"attendtrack/internal/dates"
	"attendtrack/internal/model"
)

// PlannedPeriod is an expected period joined with its recorded status.
type PlannedPeriod struct {
	Period
	Status   model.PeriodStatus `json:"status"`
	RecordID string             `json:"recordId,omitempty"`
	Notes    *string            `json:"notes,omitempty"`
	NoClass  bool               `json:"noClass,omitempty"`
}

// DayPlan is the per-period view of one calendar day.
type DayPlan struct {
	Date       string          `json:"date"`
	DayOfWeek  string          `json:"dayOfWeek"`
	InSemester bool            `json:"inSemester"`
	Weekend    bool            `json:"weekend"`
	Periods    []PlannedPeriod `json:"periods"`
}

// BuildDayPlan left-joins the day's expected periods with the recorded
// statuses. A class period without a record is Pending; free periods carry no
// status. Dates outside the semester produce an empty plan.
func BuildDayPlan(day time.Time, cfg model.SemesterConfig, records []model.AttendanceRecord) DayPlan {
	key := dates.FormatLocalDate(day)
	plan := DayPlan{
		Date:      key,
		DayOfWeek: DayOfWeek(day),
		Weekend:   IsWeekend(day),
		Periods:   []PlannedPeriod{},
	}

	start, errStart := dates.ParseIn(cfg.StartDate, day.Location())
	end, errEnd := dates.ParseIn(cfg.EndDate, day.Location())
	if errStart != nil || errEnd != nil || !IsDateInSemester(day, start, end) {
		return plan
	}
	plan.InSemester = true

	recorded := make(map[string]model.AttendanceRecord)
	for _, r := range records {
		if r.Date == key {
			recorded[r.SubjectID] = r
		}
	}

	periods := EnrichScheduleWithSubjectDetails(GenerateDailySchedule(day, cfg.Schedule, cfg.Subjects), cfg.Subjects)
	for _, p := range periods {
		pp := PlannedPeriod{Period: p, Status: model.PeriodPending}
		if p.SubjectID == "" {
			pp.NoClass = true
			pp.Status = ""
			pp.SubjectName = ""
		} else if r, ok := recorded[p.SubjectID]; ok {
			pp.Status = model.PeriodStatusOf(r.Status)
			pp.RecordID = r.ID
			pp.Notes = r.Notes
		}
		plan.Periods = append(plan.Periods, pp)
	}
	return plan
}
