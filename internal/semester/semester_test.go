package semester

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"attendtrack/internal/attendance"
	"attendtrack/internal/dates"
	"attendtrack/internal/model"
	"attendtrack/internal/store"
)

func newTestDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.NewDB(store.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*Service, *Repository) {
	t.Helper()
	repo := NewRepository(newTestDB(t))
	return NewService(repo, quietLogger()), repo
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memorySnapshots struct {
	data map[string]attendance.Summary
}

func (m *memorySnapshots) Get(_ context.Context, userID string) (*attendance.Summary, error) {
	sum, ok := m.data[userID]
	if !ok {
		return nil, nil
	}
	return &sum, nil
}

func (m *memorySnapshots) Put(_ context.Context, userID string, sum attendance.Summary) error {
	m.data[userID] = sum
	return nil
}

func (m *memorySnapshots) Invalidate(_ context.Context, userID string) error {
	delete(m.data, userID)
	return nil
}

// validConfig starts today so the date range checks pass on any run date.
func validConfig() model.SemesterConfig {
	start := dates.Midnight(time.Now())
	year := start.Year()
	return model.SemesterConfig{
		StartDate:    dates.FormatLocalDate(start),
		EndDate:      dates.FormatLocalDate(start.AddDate(0, 0, 119)),
		AcademicYear: itoa(year) + "-" + itoa(year+1),
		SemesterType: model.SemesterOdd,
		Subjects: []model.Subject{
			{ID: "math", CourseCode: "MA101", Name: "Calculus", WeeklyClasses: 3, Type: model.SubjectTheory},
			{ID: "lab", CourseCode: "PH101L", Name: "Physics Lab", WeeklyClasses: 1, Type: model.SubjectLab},
		},
		Schedule: model.WeeklySchedule{
			"Monday": {
				{PeriodNumber: 1, StartTime: "09:00", EndTime: "10:00", SubjectID: "math", Classroom: "A1"},
				{PeriodNumber: 2, StartTime: "10:00", EndTime: "11:00"},
				{PeriodNumber: 3, StartTime: "11:00", EndTime: "13:00", SubjectID: "lab", Classroom: "L2", IsLab: true},
			},
		},
	}
}

func itoa(n int) string {
	b := []byte{byte('0' + n/1000%10), byte('0' + n/100%10), byte('0' + n/10%10), byte('0' + n%10)}
	return string(b)
}

func TestGetNotConfigured(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	cfg, err := repo.GetConfig(ctx, "u1")
	if err != nil || cfg != nil {
		t.Fatalf("GetConfig() = %v, %v; want nil, nil", cfg, err)
	}
	if _, err := svc.Get(ctx, "u1"); !errors.Is(err, model.ErrNotConfigured) {
		t.Errorf("Get() error = %v, want ErrNotConfigured", err)
	}
}

func TestSaveAndReplace(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Save(ctx, "u1", validConfig())
	if err != nil {
		t.Fatal(err)
	}
	if first.UserID != "u1" || len(first.Subjects) != 2 || len(first.Schedule["Monday"]) != 3 {
		t.Fatalf("saved config = %+v", first)
	}
	if !first.Schedule["Monday"][2].IsLab {
		t.Error("schedule lost the lab flag")
	}

	next := validConfig()
	next.SemesterType = model.SemesterEven
	next.Subjects = next.Subjects[:1]
	next.Schedule = model.WeeklySchedule{}
	second, err := svc.Save(ctx, "u1", next)
	if err != nil {
		t.Fatal(err)
	}
	if second.SemesterType != model.SemesterEven || len(second.Subjects) != 1 || len(second.Schedule) != 0 {
		t.Errorf("replaced config = %+v", second)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("created_at changed on replace: %v -> %v", first.CreatedAt, second.CreatedAt)
	}

	got, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if got.SemesterType != model.SemesterEven {
		t.Errorf("Get() = %+v", got)
	}
}

func TestSaveRejectsInvalidConfig(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*model.SemesterConfig)
	}{
		{"no subjects", func(c *model.SemesterConfig) { c.Subjects = nil }},
		{"bad academic year", func(c *model.SemesterConfig) { c.AcademicYear = "2026-2028" }},
		{"unknown subject reference", func(c *model.SemesterConfig) {
			c.Schedule["Monday"][0].SubjectID = "chem"
		}},
		{"overlapping periods", func(c *model.SemesterConfig) {
			c.Schedule["Monday"][1].StartTime = "09:30"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			if _, err := svc.Save(ctx, "u1", cfg); !model.IsValidation(err) {
				t.Errorf("Save() error = %v, want a validation error", err)
			}
		})
	}
	if cfg, _ := repo.GetConfig(ctx, "u1"); cfg != nil {
		t.Error("invalid config reached the store")
	}
}

func TestSaveInvalidatesStatsSnapshot(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	snaps := &memorySnapshots{data: map[string]attendance.Summary{}}
	svc := NewService(NewRepository(db), quietLogger(), WithSnapshots(snaps))
	att := attendance.NewService(attendance.NewRepository(db), svc, quietLogger(), attendance.WithSnapshots(snaps))

	if _, err := svc.Save(ctx, "u1", validConfig()); err != nil {
		t.Fatal(err)
	}
	sum, _, err := att.Summary(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Subjects) != 2 {
		t.Fatalf("summary covers %d subjects, want 2", len(sum.Subjects))
	}
	if _, ok := snaps.data["u1"]; !ok {
		t.Fatal("summary was not cached")
	}

	next := validConfig()
	next.Subjects = next.Subjects[:1]
	next.Schedule = model.WeeklySchedule{}
	if _, err := svc.Save(ctx, "u1", next); err != nil {
		t.Fatal(err)
	}
	sum, _, err = att.Summary(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Subjects) != 1 || sum.Subjects[0].SubjectID != "math" {
		t.Errorf("summary after config change = %+v", sum.Subjects)
	}
}
