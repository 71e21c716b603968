package attendance

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"attendtrack/internal/model"
	"attendtrack/internal/store"
)

// Repository persists attendance records in Postgres or SQLite.
type Repository struct {
	db *store.DB
}

// NewRepository creates a repo.
func NewRepository(db *store.DB) *Repository {
	return &Repository{db: db}
}

const recordColumns = `id, user_id, subject_id, date, status, notes, created_at, updated_at`

// FetchRecords returns the user's records, optionally bounded by an inclusive
// date range, ordered by date. No rows is an empty slice, not an error.
func (r *Repository) FetchRecords(ctx context.Context, userID string, rng *model.DateRange) ([]model.AttendanceRecord, error) {
	clauses := []string{"user_id = ?"}
	args := []any{userID}
	if rng != nil && rng.From != "" {
		clauses = append(clauses, "date >= ?")
		args = append(args, rng.From)
	}
	if rng != nil && rng.To != "" {
		clauses = append(clauses, "date <= ?")
		args = append(args, rng.To)
	}
	query := `SELECT ` + recordColumns + ` FROM attendance_records WHERE ` +
		strings.Join(clauses, " AND ") + ` ORDER BY date, subject_id`

	rows, err := r.db.Client.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, storeErr("fetch records", err)
	}
	defer rows.Close()

	res := []model.AttendanceRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, storeErr("fetch records", err)
		}
		res = append(res, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("fetch records", err)
	}
	return res, nil
}

// UpsertRecord creates or updates the record for (user, subject, date). Two
// concurrent writes to the same key resolve last-write-wins in the database.
func (r *Repository) UpsertRecord(ctx context.Context, userID, subjectID, date string, status model.Status, notes *string) (model.AttendanceRecord, error) {
	now := time.Now().UTC()
	_, err := r.db.Client.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO attendance_records (id, user_id, subject_id, date, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, subject_id, date) DO UPDATE SET
			status = excluded.status,
			notes = excluded.notes,
			updated_at = excluded.updated_at
	`), uuid.NewString(), userID, subjectID, date, string(status), nullString(notes), now, now)
	if err != nil {
		return model.AttendanceRecord{}, storeErr("upsert record", err)
	}
	// on conflict the stored row keeps its original id and created_at
	rec, err := r.GetByCompositeKey(ctx, userID, subjectID, date)
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	if rec == nil {
		return model.AttendanceRecord{}, storeErr("upsert record", sql.ErrNoRows)
	}
	return *rec, nil
}

// GetByCompositeKey returns the record for (user, subject, date), or nil.
func (r *Repository) GetByCompositeKey(ctx context.Context, userID, subjectID, date string) (*model.AttendanceRecord, error) {
	row := r.db.Client.QueryRowContext(ctx, r.db.Rebind(`
		SELECT `+recordColumns+` FROM attendance_records
		WHERE user_id = ? AND subject_id = ? AND date = ?
	`), userID, subjectID, date)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, storeErr("get record", err)
	}
	return &rec, nil
}

// DeleteRecord removes a record by id. Deleting a missing record is not an error.
func (r *Repository) DeleteRecord(ctx context.Context, userID, id string) error {
	_, err := r.db.Client.ExecContext(ctx, r.db.Rebind(`DELETE FROM attendance_records WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return storeErr("delete record", err)
	}
	return nil
}

// DeleteByCompositeKey resets a period to pending by removing its record.
func (r *Repository) DeleteByCompositeKey(ctx context.Context, userID, subjectID, date string) error {
	_, err := r.db.Client.ExecContext(ctx, r.db.Rebind(`
		DELETE FROM attendance_records WHERE user_id = ? AND subject_id = ? AND date = ?
	`), userID, subjectID, date)
	if err != nil {
		return storeErr("delete record", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (model.AttendanceRecord, error) {
	var (
		rec    model.AttendanceRecord
		status string
		notes  sql.NullString
	)
	if err := s.Scan(&rec.ID, &rec.UserID, &rec.SubjectID, &rec.Date, &status, &notes, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return model.AttendanceRecord{}, err
	}
	rec.Status = model.Status(status)
	if notes.Valid {
		n := notes.String
		rec.Notes = &n
	}
	return rec, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func storeErr(op string, err error) error {
	return &model.StoreError{Op: op, Err: errors.WithStack(err)}
}
