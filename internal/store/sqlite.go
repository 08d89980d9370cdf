package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"stagehub/pkg/database"
	"stagehub/pkg/models"
)

// SQLite keeps the last Retain snapshots in the snapshots table.
type SQLite struct {
	db     *sql.DB
	retain int
	loc    *time.Location
}

// OpenSQLite opens the database at path and applies the schema.
func OpenSQLite(path string, retain int, loc *time.Location) (*SQLite, error) {
	db, err := database.Open(database.Config{Path: path})
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQLite(db, retain, loc), nil
}

// NewSQLite wraps an already migrated database.
func NewSQLite(db *sql.DB, retain int, loc *time.Location) *SQLite {
	if retain <= 0 {
		retain = 10
	}
	if loc == nil {
		loc = time.Local
	}
	return &SQLite{db: db, retain: retain, loc: loc}
}

func (s *SQLite) Save(ctx context.Context, rec Record) error {
	if rec.Snapshot == nil {
		return errors.New("save: nil snapshot")
	}
	payload, err := json.Marshal(rec.Snapshot.Document())
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	snap := rec.Snapshot
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO snapshots (cycle_id, mode, computed_at, total, payload)
		VALUES (?, ?, ?, ?, ?)`,
		snap.CycleID, snap.Mode, snap.ComputedAt.Format(time.RFC3339), snap.Total(), string(payload),
	); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	if len(rec.Runs) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO source_runs (cycle_id, source, records, error, elapsed_ms, started_at)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare source run: %w", err)
		}
		defer stmt.Close()

		for _, r := range rec.Runs {
			if _, err := stmt.ExecContext(ctx,
				snap.CycleID, r.Source, r.Records, r.Error, r.Elapsed.Milliseconds(), r.StartedAt.Format(time.RFC3339),
			); err != nil {
				return fmt.Errorf("insert source run %s: %w", r.Source, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM snapshots
		WHERE id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)`, s.retain,
	); err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM source_runs
		WHERE cycle_id NOT IN (SELECT cycle_id FROM snapshots)`,
	); err != nil {
		return fmt.Errorf("prune source runs: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLite) Latest(ctx context.Context) (*models.Snapshot, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM snapshots ORDER BY id DESC LIMIT 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("query latest snapshot: %w", err)
	}

	var doc models.SnapshotDocument
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return doc.Snapshot(s.loc)
}

// Runs returns the per-source results recorded for a cycle.
func (s *SQLite) Runs(ctx context.Context, cycleID string) ([]SourceRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT source, records, error, elapsed_ms, started_at
		FROM source_runs WHERE cycle_id = ? ORDER BY id`, cycleID)
	if err != nil {
		return nil, fmt.Errorf("query source runs: %w", err)
	}
	defer rows.Close()

	var out []SourceRun
	for rows.Next() {
		var (
			r       SourceRun
			ms      int64
			started string
		)
		if err := rows.Scan(&r.Source, &r.Records, &r.Error, &ms, &started); err != nil {
			return nil, fmt.Errorf("scan source run: %w", err)
		}
		r.Elapsed = time.Duration(ms) * time.Millisecond
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
