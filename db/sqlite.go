package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"exoscope/ml"
)

// AuditLog keeps a history of artifact load attempts in SQLite.
type AuditLog struct {
	database *sql.DB
}

// Open initializes the SQLite database at path
func Open(path string) (*AuditLog, error) {
	if path == "" {
		return nil, errors.New("database path required")
	}
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	query := `
    CREATE TABLE IF NOT EXISTS artifact_loads (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        slot TEXT NOT NULL,
        file TEXT NOT NULL,
        source TEXT NOT NULL,
        kind TEXT DEFAULT '',
        sha256 TEXT DEFAULT '',
        found INTEGER NOT NULL,
        loaded INTEGER NOT NULL,
        supports_confidence INTEGER DEFAULT 0,
        error TEXT DEFAULT '',
        attempted_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_artifact_loads_attempted_at ON artifact_loads(attempted_at);
    `
	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, err
	}
	return &AuditLog{database: database}, nil
}

func (a *AuditLog) Close() error {
	if a == nil || a.database == nil {
		return nil
	}
	return a.database.Close()
}

// RecordLoad satisfies ml.LoadRecorder.
func (a *AuditLog) RecordLoad(ctx context.Context, report ml.LoadReport) error {
	if a == nil || a.database == nil {
		return errors.New("database not initialized")
	}
	attempted := report.AttemptedAt
	if attempted.IsZero() {
		attempted = time.Now().UTC()
	}
	_, err := a.database.ExecContext(ctx, `
        INSERT INTO artifact_loads (
            slot, file, source, kind, sha256, found, loaded, supports_confidence, error, attempted_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `,
		string(report.Slot),
		report.File,
		report.Source,
		report.Kind,
		report.SHA256,
		report.Found,
		report.Loaded,
		report.SupportsConfidence,
		report.Error,
		attempted.UTC(),
	)
	return err
}

// History returns the most recent load attempts, newest first.
func (a *AuditLog) History(ctx context.Context, limit int) ([]ml.LoadReport, error) {
	if a == nil || a.database == nil {
		return nil, errors.New("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := a.database.QueryContext(ctx, `
        SELECT slot, file, source, kind, sha256, found, loaded, supports_confidence, error, attempted_at
        FROM artifact_loads
        ORDER BY attempted_at DESC, id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]ml.LoadReport, 0)
	for rows.Next() {
		var r ml.LoadReport
		var slot string
		if err := rows.Scan(&slot, &r.File, &r.Source, &r.Kind, &r.SHA256, &r.Found, &r.Loaded,
			&r.SupportsConfidence, &r.Error, &r.AttemptedAt); err != nil {
			return nil, err
		}
		r.Slot = ml.Slot(slot)
		reports = append(reports, r)
	}
	return reports, rows.Err()
}
