package semester

import (
	"context"
	"log/slog"

	"attendtrack/internal/model"
	"attendtrack/internal/validate"
)

// Store is the configuration data-access contract.
type Store interface {
	GetConfig(ctx context.Context, userID string) (*model.SemesterConfig, error)
	SaveConfig(ctx context.Context, cfg model.SemesterConfig) (model.SemesterConfig, error)
}

// SnapshotInvalidator drops the precomputed statistics of a user.
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// Service validates configurations at the store boundary.
type Service struct {
	store     Store
	snapshots SnapshotInvalidator
	log       *slog.Logger
}

// Option configures optional collaborators.
type Option func(*Service)

// WithSnapshots invalidates the user's statistics snapshot after every save.
func WithSnapshots(inv SnapshotInvalidator) Option { return func(s *Service) { s.snapshots = inv } }

// NewService wires the service.
func NewService(store Store, log *slog.Logger, opts ...Option) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{store: store, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the configuration or model.ErrNotConfigured.
func (s *Service) Get(ctx context.Context, userID string) (*model.SemesterConfig, error) {
	cfg, err := s.store.GetConfig(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, model.ErrNotConfigured
	}
	return cfg, nil
}

// GetConfig satisfies the read contract used by the attendance service.
func (s *Service) GetConfig(ctx context.Context, userID string) (*model.SemesterConfig, error) {
	return s.store.GetConfig(ctx, userID)
}

// Save validates cfg for userID and replaces the stored configuration.
func (s *Service) Save(ctx context.Context, userID string, cfg model.SemesterConfig) (model.SemesterConfig, error) {
	cfg.UserID = userID
	if cfg.Schedule == nil {
		cfg.Schedule = model.WeeklySchedule{}
	}
	if err := validate.ValidateSemesterConfig(cfg).Err(); err != nil {
		return model.SemesterConfig{}, err
	}
	saved, err := s.store.SaveConfig(ctx, cfg)
	if err != nil {
		s.log.Error("config_save_failed", "user_id", userID, "error", err)
		return model.SemesterConfig{}, err
	}
	if s.snapshots != nil {
		if err := s.snapshots.Invalidate(ctx, userID); err != nil {
			s.log.Warn("snapshot_invalidate_failed", "user_id", userID, "error", err)
		}
	}
	s.log.Info("config_saved", "user_id", userID, "subjects", len(saved.Subjects))
	return saved, nil
}
