// Package validate checks semester configurations and attendance records
// before they reach a store. Validators never mutate their input and never
// panic; each returns a Result the caller can surface or just test.
package validate

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"attendtrack/internal/dates"
	"attendtrack/internal/model"
)

// Result is the uniform outcome of every validator.
type Result struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// Err converts a failed Result into a *model.ValidationError, or nil.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return model.NewValidationError("", r.Error)
}

var (
	ok = Result{Valid: true}

	hhmmRe         = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	academicYearRe = regexp.MustCompile(`^(\d{4})-(\d{4})$`)

	nowFunc = time.Now

	v = newValidator()
)

func fail(msg string) Result { return Result{Error: msg} }

func newValidator() *validator.Validate {
	val := validator.New()
	_ = val.RegisterValidation("ymd", func(fl validator.FieldLevel) bool {
		_, err := dates.Parse(fl.Field().String())
		return err == nil
	})
	_ = val.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return hhmmRe.MatchString(fl.Field().String())
	})
	_ = val.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		return isWeekday(fl.Field().String())
	})
	_ = val.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		return model.Status(fl.Field().String()).Valid()
	})
	_ = val.RegisterValidation("subjecttype", func(fl validator.FieldLevel) bool {
		t := model.SubjectType(fl.Field().String())
		return t == model.SubjectTheory || t == model.SubjectLab
	})
	_ = val.RegisterValidation("semtype", func(fl validator.FieldLevel) bool {
		t := model.SemesterType(fl.Field().String())
		return t == model.SemesterOdd || t == model.SemesterEven
	})
	_ = val.RegisterValidation("academicyear", func(fl validator.FieldLevel) bool {
		return isAcademicYear(fl.Field().String())
	})
	return val
}

type rule struct {
	value any
	tag   string
	msg   string
}

// check applies the rules in order and reports the first failure.
func check(rules ...rule) Result {
	for _, r := range rules {
		if err := v.Var(r.value, r.tag); err != nil {
			return fail(r.msg)
		}
	}
	return ok
}

// ValidateDateRange checks format, order, and that the range is neither
// stale (ended over a year ago) nor far out (starting over two years ahead).
// It does not enforce a duration; see ValidateSemesterDuration.
func ValidateDateRange(start, end string) Result {
	if !dates.IsYMD(start) || !dates.IsYMD(end) {
		return fail("Dates must be in YYYY-MM-DD format")
	}
	s, errS := dates.Parse(start)
	e, errE := dates.Parse(end)
	if errS != nil || errE != nil {
		return fail("Invalid date values")
	}
	if !s.Before(e) {
		return fail("Start date must be before end date")
	}
	today := dates.Midnight(nowFunc().In(time.Local))
	if e.Before(today.AddDate(-1, 0, 0)) {
		return fail("End date cannot be more than 1 year in the past")
	}
	if s.After(today.AddDate(2, 0, 0)) {
		return fail("Start date cannot be more than 2 years in the future")
	}
	return ok
}

// ValidateSemesterDuration enforces the 90 to 180 day semester length,
// counting both ends.
func ValidateSemesterDuration(start, end string) Result {
	s, errS := dates.Parse(start)
	e, errE := dates.Parse(end)
	if errS != nil || errE != nil {
		return fail("Invalid date values")
	}
	days := dates.DaysBetweenInclusive(s, e)
	if days < 90 || days > 180 {
		return fail("Semester must be between 90 and 180 days long (got " + strconv.Itoa(days) + ")")
	}
	return ok
}

// ValidateSubject checks a subject definition.
func ValidateSubject(s model.Subject) Result {
	return check(
		rule{strings.TrimSpace(s.ID), "required", "Subject ID is required"},
		rule{strings.TrimSpace(s.CourseCode), "required", "Course code is required"},
		rule{strings.TrimSpace(s.Name), "required", "Subject name is required"},
		rule{s.WeeklyClasses, "min=1,max=50", "Weekly classes must be between 1 and 50"},
		rule{string(s.Type), "omitempty,subjecttype", "Subject type must be theory or lab"},
	)
}

// ValidateSchedulePeriod checks one class period.
func ValidateSchedulePeriod(p model.SchedulePeriod) Result {
	if r := validatePeriodTimes(p); !r.Valid {
		return r
	}
	return check(
		rule{strings.TrimSpace(p.SubjectID), "required", "Subject is required"},
		rule{strings.TrimSpace(p.Classroom), "required", "Classroom is required"},
	)
}

func validatePeriodTimes(p model.SchedulePeriod) Result {
	r := check(
		rule{p.PeriodNumber, "min=1,max=20", "Period number must be between 1 and 20"},
		rule{p.StartTime, "hhmm", "Start time must be in HH:MM format"},
		rule{p.EndTime, "hhmm", "End time must be in HH:MM format"},
	)
	if !r.Valid {
		return r
	}
	if minutes(p.EndTime) <= minutes(p.StartTime) {
		return fail("End time must be after start time")
	}
	return ok
}

// ValidateAttendanceRecord checks a record before it is written.
func ValidateAttendanceRecord(r model.AttendanceRecord) Result {
	return check(
		rule{strings.TrimSpace(r.UserID), "required", "User ID is required"},
		rule{strings.TrimSpace(r.SubjectID), "required", "Subject ID is required"},
		rule{r.Date, "ymd", "Date must be a valid YYYY-MM-DD date"},
		rule{string(r.Status), "status", "Status must be present, absent, or late"},
	)
}

// ValidateEmail checks the address shape.
func ValidateEmail(email string) Result {
	return check(rule{strings.TrimSpace(email), "required,email", "Invalid email address"})
}

// ValidateAcademicYear accepts "YYYY-YYYY" with consecutive years.
func ValidateAcademicYear(year string) Result {
	return check(rule{year, "academicyear", "Academic year must be in YYYY-YYYY format with consecutive years"})
}

func isAcademicYear(s string) bool {
	m := academicYearRe.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	first, _ := strconv.Atoi(m[1])
	second, _ := strconv.Atoi(m[2])
	return second == first+1
}

func isWeekday(s string) bool {
	for _, d := range model.Weekdays {
		if d == s {
			return true
		}
	}
	return false
}

// minutes converts a checked HH:MM string to minutes after midnight.
func minutes(hhmm string) int {
	h, _ := strconv.Atoi(hhmm[:2])
	m, _ := strconv.Atoi(hhmm[3:])
	return h*60 + m
}
