package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type migration struct {
	version int
	up      string
}

var migrations = []migration{
	{
		version: 1,
		up: `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	created_at TEXT NOT NULL,
	stepper TEXT NOT NULL,
	stiffness REAL NOT NULL,
	damping REAL NOT NULL,
	mass REAL NOT NULL,
	rest_speed REAL NOT NULL,
	rest_delta REAL NOT NULL,
	from_value REAL NOT NULL,
	to_value REAL NOT NULL,
	steps INTEGER NOT NULL,
	settled INTEGER NOT NULL,
	metrics_json TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`,
	},
}

// Index is the sqlite table of recorded runs.
type Index struct {
	db *sql.DB
}

func OpenIndex(ctx context.Context, path string) (*Index, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Index{db: db}, nil
}

func (x *Index) Close() error {
	if x == nil || x.db == nil {
		return nil
	}
	return x.db.Close()
}

func migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations(version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	for _, m := range migrations {
		var exists int
		err := db.QueryRowContext(ctx, `SELECT 1 FROM schema_migrations WHERE version = ?`, m.version).Scan(&exists)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("check migration %d: %w", m.version, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, m.up); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("apply migration %d: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, applied_at) VALUES (?, datetime('now'))`, m.version); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
	}
	return nil
}

// Put inserts or replaces a run row.
func (x *Index) Put(ctx context.Context, meta RunMetadata) error {
	metrics := meta.Metrics
	if metrics == nil {
		metrics = map[string]float64{}
	}
	mj, err := json.Marshal(metrics)
	if err != nil {
		return err
	}
	_, err = x.db.ExecContext(ctx, `
INSERT INTO runs(run_id, kind, created_at, stepper, stiffness, damping, mass, rest_speed, rest_delta, from_value, to_value, steps, settled, metrics_json)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id) DO UPDATE SET
	kind=excluded.kind,
	created_at=excluded.created_at,
	stepper=excluded.stepper,
	stiffness=excluded.stiffness,
	damping=excluded.damping,
	mass=excluded.mass,
	rest_speed=excluded.rest_speed,
	rest_delta=excluded.rest_delta,
	from_value=excluded.from_value,
	to_value=excluded.to_value,
	steps=excluded.steps,
	settled=excluded.settled,
	metrics_json=excluded.metrics_json
`, meta.ID, meta.Kind, ts(meta.Timestamp), meta.Stepper,
		meta.Spring.Stiffness, meta.Spring.Damping, meta.Spring.Mass, meta.Spring.RestSpeed, meta.Spring.RestDelta,
		meta.From, meta.To, meta.Steps, boolToInt(meta.Settled), string(mj))
	if err != nil {
		return fmt.Errorf("put run: %w", err)
	}
	return nil
}

// List returns runs newest first. An empty kind lists every run.
func (x *Index) List(ctx context.Context, kind string) ([]RunMetadata, error) {
	rows, err := x.db.QueryContext(ctx, `
SELECT run_id, kind, created_at, stepper, stiffness, damping, mass, rest_speed, rest_delta, from_value, to_value, steps, settled, metrics_json
FROM runs
WHERE ? = '' OR kind = ?
ORDER BY created_at DESC, run_id
`, kind, kind)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	out := make([]RunMetadata, 0)
	for rows.Next() {
		meta, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	return out, rows.Err()
}

func (x *Index) Get(ctx context.Context, runID string) (RunMetadata, error) {
	row := x.db.QueryRowContext(ctx, `
SELECT run_id, kind, created_at, stepper, stiffness, damping, mass, rest_speed, rest_delta, from_value, to_value, steps, settled, metrics_json
FROM runs WHERE run_id = ?
`, runID)
	meta, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunMetadata{}, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return meta, err
}

func (x *Index) Delete(ctx context.Context, runID string) error {
	res, err := x.db.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (RunMetadata, error) {
	var (
		meta    RunMetadata
		created string
		settled int
		mj      string
	)
	err := sc.Scan(&meta.ID, &meta.Kind, &created, &meta.Stepper,
		&meta.Spring.Stiffness, &meta.Spring.Damping, &meta.Spring.Mass, &meta.Spring.RestSpeed, &meta.Spring.RestDelta,
		&meta.From, &meta.To, &meta.Steps, &settled, &mj)
	if err != nil {
		return RunMetadata{}, err
	}
	if meta.Timestamp, err = parseTS(created); err != nil {
		return RunMetadata{}, fmt.Errorf("parse created_at: %w", err)
	}
	meta.Settled = settled != 0
	if err := json.Unmarshal([]byte(mj), &meta.Metrics); err != nil {
		return RunMetadata{}, fmt.Errorf("parse metrics: %w", err)
	}
	return meta, nil
}

func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTS(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
