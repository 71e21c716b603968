package attendance

import (
	"context"
	"log/slog"
	"time"

	"attendtrack/internal/dates"
	"attendtrack/internal/eligibility"
	"attendtrack/internal/metrics"
	"attendtrack/internal/model"
	"attendtrack/internal/queue"
	"attendtrack/internal/schedule"
	"attendtrack/internal/validate"
)

// RecordStore is the attendance record data-access contract.
type RecordStore interface {
	FetchRecords(ctx context.Context, userID string, rng *model.DateRange) ([]model.AttendanceRecord, error)
	UpsertRecord(ctx context.Context, userID, subjectID, date string, status model.Status, notes *string) (model.AttendanceRecord, error)
	GetByCompositeKey(ctx context.Context, userID, subjectID, date string) (*model.AttendanceRecord, error)
	DeleteRecord(ctx context.Context, userID, id string) error
	DeleteByCompositeKey(ctx context.Context, userID, subjectID, date string) error
}

// ConfigSource supplies the user's semester configuration; nil means not configured.
type ConfigSource interface {
	GetConfig(ctx context.Context, userID string) (*model.SemesterConfig, error)
}

// SnapshotCache stores precomputed summaries per user.
type SnapshotCache interface {
	Get(ctx context.Context, userID string) (*Summary, error)
	Put(ctx context.Context, userID string, sum Summary) error
	Invalidate(ctx context.Context, userID string) error
}

// Service coordinates the stores with the schedule and statistics code.
// Read failures degrade to empty results and are reported through the
// degraded flag; write failures are returned to the caller.
type Service struct {
	records   RecordStore
	configs   ConfigSource
	snapshots SnapshotCache
	events    queue.Queue
	log       *slog.Logger
}

// Option configures optional collaborators.
type Option func(*Service)

// WithSnapshots serves Summary from a cache and invalidates it on writes.
func WithSnapshots(c SnapshotCache) Option { return func(s *Service) { s.snapshots = c } }

// WithEvents publishes a change event after every committed write.
func WithEvents(q queue.Queue) Option { return func(s *Service) { s.events = q } }

// NewService creates a service backed by the two stores.
func NewService(records RecordStore, configs ConfigSource, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{records: records, configs: configs, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Records returns the user's records in the range, or none when the store fails.
func (s *Service) Records(ctx context.Context, userID string, rng *model.DateRange) ([]model.AttendanceRecord, bool) {
	recs, err := s.records.FetchRecords(ctx, userID, rng)
	if err != nil {
		s.readFailed("fetch_records", userID, err)
		return []model.AttendanceRecord{}, true
	}
	return recs, false
}

// config loads the configuration; a failed read counts as degraded.
func (s *Service) config(ctx context.Context, userID string) (*model.SemesterConfig, bool, error) {
	cfg, err := s.configs.GetConfig(ctx, userID)
	if err != nil {
		s.readFailed("get_config", userID, err)
		return nil, true, model.ErrNotConfigured
	}
	if cfg == nil {
		return nil, false, model.ErrNotConfigured
	}
	return cfg, false, nil
}

// DayPlan joins the expected periods of day with the recorded statuses.
func (s *Service) DayPlan(ctx context.Context, userID string, day time.Time) (schedule.DayPlan, bool, error) {
	cfg, degraded, err := s.config(ctx, userID)
	if err != nil {
		return schedule.DayPlan{}, degraded, err
	}
	key := dates.FormatLocalDate(day)
	recs, degraded := s.Records(ctx, userID, &model.DateRange{From: key, To: key})
	return schedule.BuildDayPlan(day, *cfg, recs), degraded, nil
}

// SetStatus moves a (subject, date) cell to target. PeriodPending deletes the
// record. Validation failures return an error before any write; store
// failures return the reverted cell together with the error.
func (s *Service) SetStatus(ctx context.Context, userID, subjectID, date string, target model.PeriodStatus, notes *string) (*Cell, error) {
	stored, isRecord := target.Stored()
	if target != model.PeriodPending && !isRecord {
		return nil, model.NewValidationError("status", "Status must be present, absent, late, or pending")
	}
	candidate := model.AttendanceRecord{UserID: userID, SubjectID: subjectID, Date: date, Status: stored}
	if !isRecord {
		// a reset carries no stored status; only the key is checked
		candidate.Status = model.StatusAttended
	}
	if err := validate.ValidateAttendanceRecord(candidate).Err(); err != nil {
		return nil, err
	}
	if isRecord {
		if err := s.checkConfigured(ctx, userID, subjectID, date); err != nil {
			return nil, err
		}
	}

	current := model.PeriodPending
	if existing, err := s.records.GetByCompositeKey(ctx, userID, subjectID, date); err != nil {
		s.readFailed("get_record", userID, err)
	} else if existing != nil {
		current = model.PeriodStatusOf(existing.Status)
	}

	cell := NewCell(subjectID, date, current)
	if err := cell.Submit(target); err != nil {
		return nil, err
	}

	op := "upsert"
	var (
		rec *model.AttendanceRecord
		err error
	)
	if isRecord {
		var saved model.AttendanceRecord
		saved, err = s.records.UpsertRecord(ctx, userID, subjectID, date, stored, notes)
		rec = &saved
	} else {
		op = "delete"
		err = s.records.DeleteByCompositeKey(ctx, userID, subjectID, date)
	}
	if err != nil {
		if terr := cell.Revert(err); terr != nil {
			return nil, terr
		}
		metrics.RecordWrites.WithLabelValues(op, "reverted").Inc()
		s.log.Error("record_write_failed", "op", op, "user_id", userID, "subject_id", subjectID, "date", date, "error", err)
		return cell, err
	}
	if err := cell.Commit(rec); err != nil {
		return nil, err
	}
	metrics.RecordWrites.WithLabelValues(op, "committed").Inc()
	s.changed(ctx, userID)
	return cell, nil
}

// checkConfigured rejects records for subjects the configuration does not
// list and for dates outside the semester. Without a readable configuration
// the write goes through.
func (s *Service) checkConfigured(ctx context.Context, userID, subjectID, date string) error {
	cfg, err := s.configs.GetConfig(ctx, userID)
	if err != nil {
		s.readFailed("get_config", userID, err)
		return nil
	}
	if cfg == nil {
		return nil
	}
	if _, ok := cfg.SubjectByID(subjectID); !ok {
		return model.NewValidationError("subjectId", "Subject is not part of the semester configuration")
	}
	if date < cfg.StartDate || date > cfg.EndDate {
		return model.NewValidationError("date", "Date is outside the semester")
	}
	return nil
}

// DeleteRecord removes a record by id.
func (s *Service) DeleteRecord(ctx context.Context, userID, id string) error {
	if id == "" {
		return model.NewValidationError("id", "record id is required")
	}
	if err := s.records.DeleteRecord(ctx, userID, id); err != nil {
		metrics.RecordWrites.WithLabelValues("delete", "reverted").Inc()
		s.log.Error("record_write_failed", "op", "delete", "user_id", userID, "record_id", id, "error", err)
		return err
	}
	metrics.RecordWrites.WithLabelValues("delete", "committed").Inc()
	s.changed(ctx, userID)
	return nil
}

// Summary returns per-subject statistics and overall eligibility, from the
// snapshot cache when one is present.
func (s *Service) Summary(ctx context.Context, userID string) (Summary, bool, error) {
	if s.snapshots != nil {
		if sum, err := s.snapshots.Get(ctx, userID); err == nil && sum != nil {
			metrics.SnapshotLookups.WithLabelValues("hit").Inc()
			return *sum, false, nil
		}
		metrics.SnapshotLookups.WithLabelValues("miss").Inc()
	}
	sum, degraded, err := s.computeSummary(ctx, userID)
	if err == nil && !degraded && s.snapshots != nil {
		if perr := s.snapshots.Put(ctx, userID, sum); perr != nil {
			s.log.Warn("snapshot_put_failed", "user_id", userID, "error", perr)
		}
	}
	return sum, degraded, err
}

// RebuildSnapshot recomputes and stores the user's summary.
func (s *Service) RebuildSnapshot(ctx context.Context, userID string) error {
	if s.snapshots == nil {
		return nil
	}
	sum, degraded, err := s.computeSummary(ctx, userID)
	if err != nil {
		if err == model.ErrNotConfigured {
			return s.snapshots.Invalidate(ctx, userID)
		}
		return err
	}
	if degraded {
		return s.snapshots.Invalidate(ctx, userID)
	}
	return s.snapshots.Put(ctx, userID, sum)
}

func (s *Service) computeSummary(ctx context.Context, userID string) (Summary, bool, error) {
	cfg, degraded, err := s.config(ctx, userID)
	if err != nil {
		return Summary{}, degraded, err
	}
	recs, degraded := s.Records(ctx, userID, semesterRange(cfg))
	return Summarize(recs, cfg.Subjects), degraded, nil
}

// Calendar aggregates records per date for calendar cells.
func (s *Service) Calendar(ctx context.Context, userID string, rng *model.DateRange) ([]DayStatus, bool) {
	recs, degraded := s.Records(ctx, userID, rng)
	return ByDate(recs), degraded
}

// Trend returns the weekly trend over the semester.
func (s *Service) Trend(ctx context.Context, userID string) ([]TrendPoint, bool, error) {
	cfg, degraded, err := s.config(ctx, userID)
	if err != nil {
		return nil, degraded, err
	}
	recs, degraded := s.Records(ctx, userID, semesterRange(cfg))
	return ByWeek(recs), degraded, nil
}

// Alerts lists the subjects below the safe zone.
func (s *Service) Alerts(ctx context.Context, userID string) ([]SubjectAlert, bool, error) {
	sum, degraded, err := s.Summary(ctx, userID)
	if err != nil {
		return nil, degraded, err
	}
	return AlertsForSubjects(sum.Subjects), degraded, nil
}

func (s *Service) changed(ctx context.Context, userID string) {
	if s.snapshots != nil {
		if err := s.snapshots.Invalidate(ctx, userID); err != nil {
			s.log.Warn("snapshot_invalidate_failed", "user_id", userID, "error", err)
		}
	}
	if s.events != nil {
		msg := queue.Message{Type: queue.TypeRecordChanged, UserID: userID, At: time.Now().UTC()}
		if err := s.events.Publish(ctx, msg); err != nil {
			s.log.Warn("queue_publish_failed", "user_id", userID, "error", err)
		}
	}
}

func (s *Service) readFailed(op, userID string, err error) {
	metrics.StoreReadFailures.WithLabelValues(op).Inc()
	s.log.Warn("store_read_failed", "op", op, "user_id", userID, "error", err)
}

func semesterRange(cfg *model.SemesterConfig) *model.DateRange {
	return &model.DateRange{From: cfg.StartDate, To: cfg.EndDate}
}

// Projection is the eligibility outlook after a number of upcoming classes.
type Projection struct {
	Current          float64            `json:"current"`
	Projected        float64            `json:"projected"`
	Status           eligibility.Status `json:"status"`
	UpcomingAttended int                `json:"upcomingAttended"`
	UpcomingTotal    int                `json:"upcomingTotal"`
}

// Projection projects the overall percentage if the user attends
// upcomingAttended of the next upcomingTotal classes.
func (s *Service) Projection(ctx context.Context, userID string, upcomingAttended, upcomingTotal int) (Projection, bool, error) {
	if upcomingTotal < 0 || upcomingAttended < 0 || upcomingAttended > upcomingTotal {
		return Projection{}, false, model.NewValidationError("upcoming", "upcoming attended must be between 0 and upcoming total")
	}
	sum, degraded, err := s.Summary(ctx, userID)
	if err != nil {
		return Projection{}, degraded, err
	}
	projected := eligibility.GetProjectedPercentage(sum.Attended, sum.Attended+sum.Missed, upcomingAttended, upcomingTotal)
	return Projection{
		Current:          sum.Overall.Percentage,
		Projected:        projected,
		Status:           eligibility.Classify(projected),
		UpcomingAttended: upcomingAttended,
		UpcomingTotal:    upcomingTotal,
	}, degraded, nil
}
