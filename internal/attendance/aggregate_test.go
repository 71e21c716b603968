package attendance

import (
	"testing"

	"attendtrack/internal/eligibility"
	"attendtrack/internal/model"
)

var testSubjects = []model.Subject{
	{ID: "math", CourseCode: "MA101", Name: "Calculus", WeeklyClasses: 3, Type: model.SubjectTheory},
	{ID: "phy", CourseCode: "PH101", Name: "Physics", WeeklyClasses: 2, Type: model.SubjectTheory},
	{ID: "lab", CourseCode: "PH101L", Name: "Physics Lab", WeeklyClasses: 1, Type: model.SubjectLab},
}

func rec(subject, date string, st model.Status) model.AttendanceRecord {
	return model.AttendanceRecord{ID: subject + date, UserID: "u1", SubjectID: subject, Date: date, Status: st}
}

func repeat(n int, subject string, st model.Status, from int) []model.AttendanceRecord {
	out := make([]model.AttendanceRecord, 0, n)
	for i := 0; i < n; i++ {
		// one record per day keeps (subject, date) unique
		d := 1 + (from+i)%28
		month := 2 + (from+i)/28
		out = append(out, rec(subject, dateOf(month, d), st))
	}
	return out
}

func dateOf(month, day int) string {
	const digits = "0123456789"
	return "2026-" + string(digits[month/10]) + string(digits[month%10]) + "-" + string(digits[day/10]) + string(digits[day%10])
}

func TestByDate(t *testing.T) {
	records := []model.AttendanceRecord{
		rec("math", "2026-01-20", model.StatusAttended),
		rec("phy", "2026-01-20", model.StatusExcused),
		rec("lab", "2026-01-20", model.StatusMissed),
		rec("math", "2026-01-19", model.StatusAttended),
	}
	got := ByDate(records)
	if len(got) != 2 || got[0].Date != "2026-01-19" {
		t.Fatalf("ByDate() = %+v", got)
	}
	d := got[1]
	if d.Attended != 1 || d.Missed != 1 || d.Excused != 1 {
		t.Errorf("2026-01-20 counts = %+v, excused must not count as attended", d.Counts)
	}
}

func TestBySubject(t *testing.T) {
	var records []model.AttendanceRecord
	records = append(records, repeat(30, "math", model.StatusAttended, 0)...)
	records = append(records, repeat(10, "math", model.StatusMissed, 30)...)
	records = append(records, repeat(5, "math", model.StatusExcused, 40)...)
	records = append(records, repeat(7, "phy", model.StatusAttended, 0)...)
	records = append(records, repeat(3, "phy", model.StatusMissed, 7)...)
	records = append(records, repeat(3, "orphan", model.StatusMissed, 0)...)

	got := BySubject(records, testSubjects)
	if len(got) != 3 {
		t.Fatalf("stats for %d subjects, want 3", len(got))
	}

	m := got[0]
	if m.AttendedClasses != 30 || m.MissedClasses != 10 || m.CancelledClasses != 5 || m.TotalClasses != 45 {
		t.Errorf("math counts = %+v", m)
	}
	if m.Percentage != 75 || m.Status != eligibility.StatusSafe {
		t.Errorf("math = %d%% %s, want 75%% safe", m.Percentage, m.Status)
	}

	p := got[1]
	if p.Percentage != 70 || p.Status != eligibility.StatusWarning {
		t.Errorf("physics = %d%% %s, want 70%% warning", p.Percentage, p.Status)
	}

	l := got[2]
	if l.TotalClasses != 0 || l.Percentage != 0 || l.Status != eligibility.StatusSafe {
		t.Errorf("lab without records = %+v", l)
	}
}

func TestByWeek(t *testing.T) {
	records := []model.AttendanceRecord{
		rec("math", "2026-01-19", model.StatusAttended), // Monday
		rec("phy", "2026-01-21", model.StatusMissed),
		rec("lab", "2026-01-25", model.StatusExcused), // Sunday, same week
		rec("math", "2026-01-12", model.StatusAttended),
		rec("math", "not-a-date", model.StatusAttended),
	}
	got := ByWeek(records)
	if len(got) != 2 {
		t.Fatalf("ByWeek() = %+v", got)
	}
	if got[0].WeekStart != "2026-01-12" || got[0].Percentage != 100 {
		t.Errorf("first week = %+v", got[0])
	}
	w := got[1]
	if w.WeekStart != "2026-01-19" || w.Label != "Week of Jan 19" {
		t.Errorf("second week header = %+v", w)
	}
	if w.Attended != 1 || w.Missed != 1 || w.Excused != 1 || w.Percentage != 50 {
		t.Errorf("second week = %+v, excused stays out of the denominator", w)
	}
}

func TestSummarizeAndAlerts(t *testing.T) {
	var records []model.AttendanceRecord
	records = append(records, repeat(20, "math", model.StatusAttended, 0)...)
	records = append(records, repeat(20, "math", model.StatusMissed, 20)...)
	records = append(records, repeat(9, "phy", model.StatusAttended, 0)...)
	records = append(records, repeat(1, "phy", model.StatusMissed, 9)...)
	records = append(records, repeat(2, "lab", model.StatusExcused, 0)...)

	sum := Summarize(records, testSubjects)
	if sum.Attended != 29 || sum.Missed != 21 || sum.Excused != 2 {
		t.Errorf("totals = %+v", sum)
	}
	if sum.Overall.Percentage != 58 || sum.Overall.Status != eligibility.StatusDanger {
		t.Errorf("overall = %+v", sum.Overall)
	}

	alerts := AlertsForSubjects(sum.Subjects)
	if len(alerts) != 1 || alerts[0].SubjectID != "math" {
		t.Fatalf("alerts = %+v", alerts)
	}
	if alerts[0].ClassesNeeded != 40 {
		t.Errorf("classes needed = %d, want 40", alerts[0].ClassesNeeded)
	}
	if got := AlertsForSubjects(nil); got == nil || len(got) != 0 {
		t.Errorf("no stats should give an empty list, got %#v", got)
	}
}
