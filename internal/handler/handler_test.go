package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"attendtrack/internal/attendance"
	"attendtrack/internal/auth"
	"attendtrack/internal/dates"
	"attendtrack/internal/model"
	"attendtrack/internal/motivation"
	"attendtrack/internal/semester"
	"attendtrack/internal/store"
)

const (
	testKey    = "handler-test-key"
	testIssuer = "attendtrack-test"
)

type testAPI struct {
	router *gin.Engine
	token  string
	db     *store.DB
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := store.NewDB(store.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	sem := semester.NewService(semester.NewRepository(db), log)
	att := attendance.NewService(attendance.NewRepository(db), sem, log)
	mot := motivation.NewService(nil, motivation.NewMemoryCache(), time.Local, log)

	r := gin.New()
	New(att, sem, mot, time.Local, log).Register(r.Group("/v1", auth.UserAuth(testKey, testIssuer)))

	token, err := auth.Issue("student-1", testIssuer, testKey, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return &testAPI{router: r, token: token, db: db}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Authorization", "Bearer "+a.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

// semesterConfig starts today and holds one class on every weekday, so
// today's schedule always has a period.
func semesterConfig() (model.SemesterConfig, string) {
	start := dates.Today(time.Local)
	year := start.Year()
	sched := model.WeeklySchedule{}
	for _, day := range model.Weekdays {
		sched[day] = []model.SchedulePeriod{
			{PeriodNumber: 1, StartTime: "09:00", EndTime: "10:00", SubjectID: "math", Classroom: "A1"},
		}
	}
	return model.SemesterConfig{
		StartDate:    dates.FormatLocalDate(start),
		EndDate:      dates.FormatLocalDate(start.AddDate(0, 0, 119)),
		AcademicYear: strconv.Itoa(year) + "-" + strconv.Itoa(year+1),
		SemesterType: model.SemesterOdd,
		Subjects: []model.Subject{
			{ID: "math", CourseCode: "MA101", Name: "Calculus", WeeklyClasses: 5, Type: model.SubjectTheory},
		},
		Schedule: sched,
	}, dates.FormatLocalDate(start)
}

func TestRequiresAuth(t *testing.T) {
	api := newTestAPI(t)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/stats", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestConfigLifecycle(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(t, http.MethodGet, "/v1/config", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("GET before save = %d, want 404", w.Code)
	}

	cfg, _ := semesterConfig()
	bad := cfg
	bad.AcademicYear = "2026-2030"
	w = api.do(t, http.MethodPut, "/v1/config", bad)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("PUT invalid = %d, want 422", w.Code)
	}
	var verr struct {
		Error string `json:"error"`
	}
	decode(t, w, &verr)
	if verr.Error == "" {
		t.Error("validation response has no reason")
	}

	w = api.do(t, http.MethodPut, "/v1/config", cfg)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT valid = %d: %s", w.Code, w.Body.String())
	}

	w = api.do(t, http.MethodGet, "/v1/config", nil)
	var got struct {
		Configured bool                 `json:"configured"`
		Config     model.SemesterConfig `json:"config"`
	}
	decode(t, w, &got)
	if !got.Configured || got.Config.UserID != "student-1" || len(got.Config.Subjects) != 1 {
		t.Errorf("GET after save = %+v", got)
	}
}

func TestScheduleAndRecords(t *testing.T) {
	api := newTestAPI(t)

	if w := api.do(t, http.MethodGet, "/v1/schedule", nil); w.Code != http.StatusNotFound {
		t.Fatalf("schedule before config = %d, want 404", w.Code)
	}

	cfg, today := semesterConfig()
	if w := api.do(t, http.MethodPut, "/v1/config", cfg); w.Code != http.StatusOK {
		t.Fatalf("PUT config = %d: %s", w.Code, w.Body.String())
	}

	var sched struct {
		Plan struct {
			InSemester bool `json:"inSemester"`
			Periods    []struct {
				SubjectID string `json:"subjectId"`
				Status    string `json:"status"`
			} `json:"periods"`
		} `json:"plan"`
	}
	decode(t, api.do(t, http.MethodGet, "/v1/schedule?date="+today, nil), &sched)
	if !sched.Plan.InSemester || len(sched.Plan.Periods) != 1 || sched.Plan.Periods[0].Status != "pending" {
		t.Fatalf("schedule = %+v", sched)
	}

	w := api.do(t, http.MethodPut, "/v1/records", map[string]string{"subjectId": "math", "date": today, "status": "absent"})
	if w.Code != http.StatusOK {
		t.Fatalf("PUT record = %d: %s", w.Code, w.Body.String())
	}
	var put struct {
		Cell attendance.Cell `json:"cell"`
	}
	decode(t, w, &put)
	if put.Cell.State != attendance.CellCommitted || put.Cell.Record == nil {
		t.Fatalf("cell = %+v", put.Cell)
	}

	decode(t, api.do(t, http.MethodGet, "/v1/schedule?date="+today, nil), &sched)
	if sched.Plan.Periods[0].Status != "absent" {
		t.Errorf("status after mark = %q", sched.Plan.Periods[0].Status)
	}

	var list struct {
		Records  []model.AttendanceRecord `json:"records"`
		Degraded bool                     `json:"degraded"`
	}
	decode(t, api.do(t, http.MethodGet, "/v1/records?from="+today+"&to="+today, nil), &list)
	if len(list.Records) != 1 || list.Degraded {
		t.Fatalf("records = %+v", list)
	}

	var alerts struct {
		Alerts []attendance.SubjectAlert `json:"alerts"`
	}
	decode(t, api.do(t, http.MethodGet, "/v1/alerts", nil), &alerts)
	if len(alerts.Alerts) != 1 || alerts.Alerts[0].ClassesNeeded != 3 {
		t.Errorf("alerts = %+v", alerts)
	}

	if w := api.do(t, http.MethodDelete, "/v1/records/"+list.Records[0].ID, nil); w.Code != http.StatusNoContent {
		t.Fatalf("DELETE = %d", w.Code)
	}
	decode(t, api.do(t, http.MethodGet, "/v1/records", nil), &list)
	if len(list.Records) != 0 {
		t.Errorf("records after delete = %+v", list.Records)
	}
}

func TestSetRecordValidation(t *testing.T) {
	api := newTestAPI(t)
	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing fields", map[string]string{"subjectId": "math"}, http.StatusBadRequest},
		{"unknown status", map[string]string{"subjectId": "math", "date": "2026-01-19", "status": "sick"}, http.StatusUnprocessableEntity},
		{"bad date", map[string]string{"subjectId": "math", "date": "2026-13-01", "status": "present"}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := api.do(t, http.MethodPut, "/v1/records", tt.body); w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestRangeQueryValidation(t *testing.T) {
	api := newTestAPI(t)
	for _, path := range []string{
		"/v1/records?from=yesterday",
		"/v1/calendar?from=2026-02-01&to=2026-01-01",
	} {
		if w := api.do(t, http.MethodGet, path, nil); w.Code != http.StatusUnprocessableEntity {
			t.Errorf("GET %s = %d, want 422", path, w.Code)
		}
	}
}

func TestStatsProjectionAndMotivation(t *testing.T) {
	api := newTestAPI(t)
	cfg, today := semesterConfig()
	api.do(t, http.MethodPut, "/v1/config", cfg)
	api.do(t, http.MethodPut, "/v1/records", map[string]string{"subjectId": "math", "date": today, "status": "present"})

	var stats struct {
		Attended int `json:"attended"`
		Overall  struct {
			Percentage float64 `json:"percentage"`
			Status     string  `json:"status"`
		} `json:"overall"`
	}
	decode(t, api.do(t, http.MethodGet, "/v1/stats", nil), &stats)
	if stats.Attended != 1 || stats.Overall.Percentage != 100 || stats.Overall.Status != "safe" {
		t.Errorf("stats = %+v", stats)
	}

	var proj struct {
		Projection attendance.Projection `json:"projection"`
	}
	w := api.do(t, http.MethodPost, "/v1/projection", map[string]int{"upcomingAttended": 0, "upcomingTotal": 3})
	decode(t, w, &proj)
	if proj.Projection.Projected != 25 || proj.Projection.Status != "danger" {
		t.Errorf("projection = %+v", proj.Projection)
	}

	var msg motivation.Result
	decode(t, api.do(t, http.MethodGet, "/v1/motivation", nil), &msg)
	if msg.Text == "" || msg.Source != motivation.SourceFallback {
		t.Errorf("motivation = %+v", msg)
	}
	decode(t, api.do(t, http.MethodGet, "/v1/motivation", nil), &msg)
	if msg.Source != motivation.SourceCached {
		t.Errorf("second motivation source = %q, want cached", msg.Source)
	}
}

func TestProjectionDegradesWhenConfigUnreadable(t *testing.T) {
	api := newTestAPI(t)
	cfg, _ := semesterConfig()
	api.do(t, http.MethodPut, "/v1/config", cfg)
	if err := api.db.Close(); err != nil {
		t.Fatal(err)
	}

	w := api.do(t, http.MethodPost, "/v1/projection", map[string]int{"upcomingAttended": 2, "upcomingTotal": 4})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	var got struct {
		Projection attendance.Projection `json:"projection"`
		Degraded   bool                  `json:"degraded"`
	}
	decode(t, w, &got)
	if !got.Degraded || got.Projection.Projected != 0 || got.Projection.UpcomingTotal != 4 {
		t.Errorf("response = %+v", got)
	}
}
