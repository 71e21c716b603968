package store

import "context"

// Dates are stored as YYYY-MM-DD text in both dialects so range filters are
// plain string comparisons and no driver turns them into timestamps.

const postgresSchema = `
CREATE TABLE IF NOT EXISTS semester_configs (
	user_id       TEXT PRIMARY KEY,
	start_date    TEXT NOT NULL,
	end_date      TEXT NOT NULL,
	academic_year TEXT NOT NULL,
	semester_type TEXT NOT NULL CHECK (semester_type IN ('odd', 'even')),
	subjects      JSONB NOT NULL DEFAULT '[]',
	schedule      JSONB NOT NULL DEFAULT '{}',
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS attendance_records (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	subject_id TEXT NOT NULL,
	date       TEXT NOT NULL,
	status     TEXT NOT NULL CHECK (status IN ('present', 'absent', 'late')),
	notes      TEXT,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (user_id, subject_id, date)
);

CREATE INDEX IF NOT EXISTS idx_attendance_records_user_date ON attendance_records (user_id, date);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS semester_configs (
	user_id       TEXT PRIMARY KEY,
	start_date    TEXT NOT NULL,
	end_date      TEXT NOT NULL,
	academic_year TEXT NOT NULL,
	semester_type TEXT NOT NULL CHECK (semester_type IN ('odd', 'even')),
	subjects      TEXT NOT NULL DEFAULT '[]',
	schedule      TEXT NOT NULL DEFAULT '{}',
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS attendance_records (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	subject_id TEXT NOT NULL,
	date       TEXT NOT NULL,
	status     TEXT NOT NULL CHECK (status IN ('present', 'absent', 'late')),
	notes      TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE (user_id, subject_id, date)
);

CREATE INDEX IF NOT EXISTS idx_attendance_records_user_date ON attendance_records (user_id, date);
`

// Migrate creates the tables when they do not exist.
func (d *DB) Migrate(ctx context.Context) error {
	schema := sqliteSchema
	if d.Driver == DriverPostgres {
		schema = postgresSchema
	}
	_, err := d.Client.ExecContext(ctx, schema)
	return err
}
