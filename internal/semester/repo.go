package semester

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"attendtrack/internal/model"
	"attendtrack/internal/store"
)

// Repository persists one semester configuration per user. Subjects and the
// weekly schedule are stored as JSON documents.
type Repository struct {
	db *store.DB
}

// NewRepository creates a repo.
func NewRepository(db *store.DB) *Repository {
	return &Repository{db: db}
}

// GetConfig returns the user's configuration, or nil when none is saved.
func (r *Repository) GetConfig(ctx context.Context, userID string) (*model.SemesterConfig, error) {
	row := r.db.Client.QueryRowContext(ctx, r.db.Rebind(`
		SELECT user_id, start_date, end_date, academic_year, semester_type, subjects, schedule, created_at, updated_at
		FROM semester_configs WHERE user_id = ?
	`), userID)

	var cfg model.SemesterConfig
	var semType string
	var subjects, sched []byte
	err := row.Scan(&cfg.UserID, &cfg.StartDate, &cfg.EndDate, &cfg.AcademicYear, &semType, &subjects, &sched, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("get config", err)
	}
	cfg.SemesterType = model.SemesterType(semType)
	if err := json.Unmarshal(subjects, &cfg.Subjects); err != nil {
		return nil, storeErr("get config", errors.Wrap(err, "decode subjects"))
	}
	if err := json.Unmarshal(sched, &cfg.Schedule); err != nil {
		return nil, storeErr("get config", errors.Wrap(err, "decode schedule"))
	}
	if cfg.Subjects == nil {
		cfg.Subjects = []model.Subject{}
	}
	if cfg.Schedule == nil {
		cfg.Schedule = model.WeeklySchedule{}
	}
	return &cfg, nil
}

// SaveConfig replaces the user's configuration as a whole.
func (r *Repository) SaveConfig(ctx context.Context, cfg model.SemesterConfig) (model.SemesterConfig, error) {
	subjects, err := json.Marshal(cfg.Subjects)
	if err != nil {
		return model.SemesterConfig{}, errors.Wrap(err, "encode subjects")
	}
	sched, err := json.Marshal(cfg.Schedule)
	if err != nil {
		return model.SemesterConfig{}, errors.Wrap(err, "encode schedule")
	}
	now := time.Now().UTC()
	_, err = r.db.Client.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO semester_configs (user_id, start_date, end_date, academic_year, semester_type, subjects, schedule, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			academic_year = excluded.academic_year,
			semester_type = excluded.semester_type,
			subjects = excluded.subjects,
			schedule = excluded.schedule,
			updated_at = excluded.updated_at
	`), cfg.UserID, cfg.StartDate, cfg.EndDate, cfg.AcademicYear, string(cfg.SemesterType), string(subjects), string(sched), now, now)
	if err != nil {
		return model.SemesterConfig{}, storeErr("save config", err)
	}
	saved, err := r.GetConfig(ctx, cfg.UserID)
	if err != nil {
		return model.SemesterConfig{}, err
	}
	if saved == nil {
		return model.SemesterConfig{}, storeErr("save config", sql.ErrNoRows)
	}
	return *saved, nil
}

func storeErr(op string, err error) error {
	return &model.StoreError{Op: op, Err: errors.WithStack(err)}
}
