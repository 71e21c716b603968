package attendance

import (
	"math"
	"sort"
	"time"

	"attendtrack/internal/dates"
	"attendtrack/internal/eligibility"
	"attendtrack/internal/model"
)

// Every aggregation here uses the same counting rule: Attended counts toward
// both numerator and denominator, Missed toward the denominator, and Excused
// toward neither. Excused is reported in its own bucket.

// Counts is the three-bucket tally of a set of records.
type Counts struct {
	Attended int `json:"attended"`
	Missed   int `json:"missed"`
	Excused  int `json:"cancelled"`
}

// Add tallies one status. Unknown statuses are ignored.
func (c *Counts) Add(s model.Status) {
	switch s {
	case model.StatusAttended:
		c.Attended++
	case model.StatusMissed:
		c.Missed++
	case model.StatusExcused:
		c.Excused++
	}
}

// Countable is the denominator of the percentage.
func (c Counts) Countable() int { return c.Attended + c.Missed }

// DayStatus is the calendar-cell aggregate of one date.
type DayStatus struct {
	Date string `json:"date"`
	Counts
}

// SubjectStats is the per-subject statistics row.
type SubjectStats struct {
	SubjectID        string             `json:"subjectId"`
	SubjectName      string             `json:"subjectName"`
	CourseCode       string             `json:"courseCode"`
	Type             model.SubjectType  `json:"type"`
	AttendedClasses  int                `json:"attendedClasses"`
	MissedClasses    int                `json:"missedClasses"`
	CancelledClasses int                `json:"cancelledClasses"`
	TotalClasses     int                `json:"totalClasses"`
	Percentage       int                `json:"percentage"`
	Status           eligibility.Status `json:"status"`
}

// TrendPoint is one Monday-aligned week of the trend chart.
type TrendPoint struct {
	WeekStart  string `json:"weekStart"`
	Label      string `json:"label"`
	Counts
	Percentage int `json:"percentage"`
}

// SubjectAlert is a subject outside the safe zone.
type SubjectAlert struct {
	SubjectStats
	ClassesNeeded int `json:"classesNeeded"`
}

// Summary is the statistics payload of one user.
type Summary struct {
	Subjects []SubjectStats   `json:"subjects"`
	Overall  eligibility.Info `json:"overall"`
	Attended int              `json:"attended"`
	Missed   int              `json:"missed"`
	Excused  int              `json:"cancelled"`
}

// ByDate groups records per date, sorted by date.
func ByDate(records []model.AttendanceRecord) []DayStatus {
	idx := make(map[string]*DayStatus)
	for _, r := range records {
		d, ok := idx[r.Date]
		if !ok {
			d = &DayStatus{Date: r.Date}
			idx[r.Date] = d
		}
		d.Add(r.Status)
	}
	out := make([]DayStatus, 0, len(idx))
	for _, d := range idx {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// BySubject computes statistics for each configured subject, in configuration
// order. Records of subjects no longer configured are left out.
func BySubject(records []model.AttendanceRecord, subjects []model.Subject) []SubjectStats {
	counts := make(map[string]*Counts, len(subjects))
	for _, s := range subjects {
		counts[s.ID] = &Counts{}
	}
	for _, r := range records {
		if c, ok := counts[r.SubjectID]; ok {
			c.Add(r.Status)
		}
	}

	out := make([]SubjectStats, 0, len(subjects))
	for _, s := range subjects {
		c := counts[s.ID]
		pct := roundPercent(c.Attended, c.Countable())
		status := eligibility.StatusSafe
		if c.Countable() > 0 {
			status = eligibility.Classify(float64(pct))
		}
		out = append(out, SubjectStats{
			SubjectID:        s.ID,
			SubjectName:      s.Name,
			CourseCode:       s.CourseCode,
			Type:             s.Type,
			AttendedClasses:  c.Attended,
			MissedClasses:    c.Missed,
			CancelledClasses: c.Excused,
			TotalClasses:     c.Attended + c.Missed + c.Excused,
			Percentage:       pct,
			Status:           status,
		})
	}
	return out
}

// ByWeek buckets records by the Monday that starts their week, ascending.
// Records with an unparseable date are skipped.
func ByWeek(records []model.AttendanceRecord) []TrendPoint {
	idx := make(map[string]*TrendPoint)
	for _, r := range records {
		d, err := dates.ParseIn(r.Date, time.UTC)
		if err != nil {
			continue
		}
		monday := dates.StartOfWeek(d)
		key := dates.FormatLocalDate(monday)
		p, ok := idx[key]
		if !ok {
			p = &TrendPoint{WeekStart: key, Label: "Week of " + monday.Format("Jan 2")}
			idx[key] = p
		}
		p.Add(r.Status)
	}
	out := make([]TrendPoint, 0, len(idx))
	for _, p := range idx {
		p.Percentage = roundPercent(p.Attended, p.Countable())
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WeekStart < out[j].WeekStart })
	return out
}

// Summarize computes subject stats and the overall eligibility over them.
func Summarize(records []model.AttendanceRecord, subjects []model.Subject) Summary {
	stats := BySubject(records, subjects)
	sum := Summary{Subjects: stats}
	for _, s := range stats {
		sum.Attended += s.AttendedClasses
		sum.Missed += s.MissedClasses
		sum.Excused += s.CancelledClasses
	}
	sum.Overall = eligibility.GetEligibilityInfo(sum.Attended, sum.Missed)
	return sum
}

// AlertsForSubjects keeps the subjects outside the safe zone and attaches how
// many consecutive attended classes bring each back to 75%.
func AlertsForSubjects(stats []SubjectStats) []SubjectAlert {
	out := []SubjectAlert{}
	for _, s := range stats {
		if s.Status == eligibility.StatusSafe {
			continue
		}
		out = append(out, SubjectAlert{
			SubjectStats:  s,
			ClassesNeeded: eligibility.GetClassesNeededFor75(s.AttendedClasses, s.AttendedClasses+s.MissedClasses),
		})
	}
	return out
}

func roundPercent(attended, countable int) int {
	if countable <= 0 {
		return 0
	}
	return int(math.Round(float64(attended) / float64(countable) * 100))
}
