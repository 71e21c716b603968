package validate

import (
	"fmt"
	"sort"
	"strings"

	"attendtrack/internal/model"
)

// ValidateSemesterConfig checks a whole configuration at the store boundary:
// dates, duration, subjects, and every weekday's periods, including subject
// references and time overlaps. Free periods (no subject) only need a valid
// number and time span.
func ValidateSemesterConfig(cfg model.SemesterConfig) Result {
	if strings.TrimSpace(cfg.UserID) == "" {
		return fail("User ID is required")
	}
	if r := ValidateDateRange(cfg.StartDate, cfg.EndDate); !r.Valid {
		return r
	}
	if r := ValidateSemesterDuration(cfg.StartDate, cfg.EndDate); !r.Valid {
		return r
	}
	if r := ValidateAcademicYear(cfg.AcademicYear); !r.Valid {
		return r
	}
	if r := check(rule{string(cfg.SemesterType), "semtype", "Semester type must be odd or even"}); !r.Valid {
		return r
	}
	if len(cfg.Subjects) == 0 {
		return fail("At least one subject is required")
	}

	ids := make(map[string]bool, len(cfg.Subjects))
	for _, s := range cfg.Subjects {
		if r := ValidateSubject(s); !r.Valid {
			return fail(fmt.Sprintf("Subject %q: %s", s.Name, r.Error))
		}
		if ids[s.ID] {
			return fail(fmt.Sprintf("Duplicate subject ID %q", s.ID))
		}
		ids[s.ID] = true
	}

	days := make([]string, 0, len(cfg.Schedule))
	for day := range cfg.Schedule {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		if r := check(rule{day, "weekday", fmt.Sprintf("Unknown weekday %q", day)}); !r.Valid {
			return r
		}
		if r := validateDay(day, cfg.Schedule[day], ids); !r.Valid {
			return r
		}
	}
	return ok
}

func validateDay(day string, periods []model.SchedulePeriod, subjects map[string]bool) Result {
	seen := make(map[int]bool, len(periods))
	for _, p := range periods {
		var r Result
		if p.SubjectID == "" {
			r = validatePeriodTimes(p)
		} else {
			r = ValidateSchedulePeriod(p)
		}
		if !r.Valid {
			return fail(fmt.Sprintf("%s period %d: %s", day, p.PeriodNumber, r.Error))
		}
		if p.SubjectID != "" && !subjects[p.SubjectID] {
			return fail(fmt.Sprintf("%s period %d: unknown subject %q", day, p.PeriodNumber, p.SubjectID))
		}
		if seen[p.PeriodNumber] {
			return fail(fmt.Sprintf("%s: period %d is defined twice", day, p.PeriodNumber))
		}
		seen[p.PeriodNumber] = true
	}

	sorted := append([]model.SchedulePeriod(nil), periods...)
	sort.Slice(sorted, func(i, j int) bool { return minutes(sorted[i].StartTime) < minutes(sorted[j].StartTime) })
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if minutes(cur.StartTime) < minutes(prev.EndTime) {
			return fail(fmt.Sprintf("%s: periods %d and %d overlap", day, prev.PeriodNumber, cur.PeriodNumber))
		}
	}
	return ok
}
