// Package archive keeps a local SQLite history of simulation runs: their
// parameters, a few summary figures and every collision step, so earlier runs
// can be listed and compared without re-running them.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/papapumpkin/orbitflow/internal/orbit"
)

// ErrRunNotFound is returned when a run ID is not in the archive.
var ErrRunNotFound = errors.New("archive: run not found")

// schema is executed on every open; IF NOT EXISTS makes it idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id              TEXT PRIMARY KEY,
    scenario        TEXT NOT NULL,
    kind            TEXT NOT NULL,
    g               REAL NOT NULL,
    central_mass    REAL NOT NULL,
    steps           INTEGER NOT NULL,
    dt              REAL NOT NULL,
    seed            INTEGER NOT NULL,
    perturbed       BOOLEAN NOT NULL,
    bodies          INTEGER NOT NULL,
    energy_drift    REAL NOT NULL,
    collision_pairs INTEGER NOT NULL,
    created_at      TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS collisions (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    body_i INTEGER NOT NULL,
    body_j INTEGER NOT NULL,
    step   INTEGER NOT NULL,
    PRIMARY KEY (run_id, body_i, body_j, step)
);

CREATE INDEX IF NOT EXISTS runs_created_at ON runs(created_at);
`

// timeLayout is fixed-width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run is the archived summary of one simulation.
type Run struct {
	ID             uuid.UUID
	Scenario       string
	Kind           string
	G              float64
	CentralMass    float64
	Steps          int
	Dt             float64
	Seed           uint64
	Perturbed      bool
	Bodies         int
	EnergyDrift    float64
	CollisionPairs int
	CreatedAt      time.Time
}

// Store is a SQLite-backed run archive.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the archive at path in WAL mode and ensures the
// schema exists. Missing parent directories are created.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("archive: create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("archive: open database: %w", err)
	}

	// SQLite has a single writer; one connection keeps the PRAGMAs below in
	// effect for every statement.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return nil, fmt.Errorf("archive: %s: %w", p, err)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores run and its collision steps in one transaction. A zero ID is
// replaced with a new random UUID and a zero CreatedAt with the current time;
// the stored run is returned.
func (s *Store) SaveRun(ctx context.Context, run Run, events []orbit.CollisionEvent) (Run, error) {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.CreatedAt = run.CreatedAt.UTC()
	run.CollisionPairs = len(events)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("archive: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insertRun = `
		INSERT INTO runs (id, scenario, kind, g, central_mass, steps, dt, seed,
		                  perturbed, bodies, energy_drift, collision_pairs, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, insertRun,
		run.ID.String(), run.Scenario, run.Kind, run.G, run.CentralMass, run.Steps, run.Dt,
		int64(run.Seed), run.Perturbed, run.Bodies, run.EnergyDrift, run.CollisionPairs,
		run.CreatedAt.Format(timeLayout),
	); err != nil {
		return Run{}, fmt.Errorf("archive: insert run %s: %w", run.ID, err)
	}

	if len(events) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO collisions (run_id, body_i, body_j, step) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return Run{}, fmt.Errorf("archive: prepare collision insert: %w", err)
		}
		defer stmt.Close()
		for _, ev := range events {
			for _, step := range ev.Steps {
				if _, err := stmt.ExecContext(ctx, run.ID.String(), ev.I, ev.J, step); err != nil {
					return Run{}, fmt.Errorf("archive: insert collision %d-%d@%d: %w", ev.I, ev.J, step, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("archive: commit: %w", err)
	}
	return run, nil
}

const selectRun = `
	SELECT id, scenario, kind, g, central_mass, steps, dt, seed, perturbed,
	       bodies, energy_drift, collision_pairs, created_at
	FROM runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		r       Run
		id      string
		seed    int64
		created string
	)
	if err := row.Scan(&id, &r.Scenario, &r.Kind, &r.G, &r.CentralMass, &r.Steps, &r.Dt,
		&seed, &r.Perturbed, &r.Bodies, &r.EnergyDrift, &r.CollisionPairs, &created); err != nil {
		return Run{}, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return Run{}, fmt.Errorf("archive: bad run id %q: %w", id, err)
	}
	r.ID = parsed
	r.Seed = uint64(seed)
	r.CreatedAt, err = parseTimestamp(created)
	if err != nil {
		return Run{}, err
	}
	return r, nil
}

// parseTimestamp accepts the RFC 3339 text SaveRun writes as well as the
// "YYYY-MM-DD HH:MM:SS" form SQLite uses for CURRENT_TIMESTAMP.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.DateTime} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("archive: unrecognised timestamp %q", s)
}

// GetRun returns the run with the given ID or ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, id uuid.UUID) (Run, error) {
	r, err := scanRun(s.db.QueryRowContext(ctx, selectRun+" WHERE id = ?", id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("archive: get run %s: %w", id, err)
	}
	return r, nil
}

// ListRuns returns the most recent runs first. limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	q := selectRun + " ORDER BY created_at DESC"
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("archive: list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("archive: scan run: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("archive: list runs: %w", err)
	}
	return out, nil
}

// Collisions rebuilds the collision events stored for a run, ordered by pair
// and step.
func (s *Store) Collisions(ctx context.Context, id uuid.UUID) ([]orbit.CollisionEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT body_i, body_j, step FROM collisions WHERE run_id = ? ORDER BY body_i, body_j, step`,
		id.String())
	if err != nil {
		return nil, fmt.Errorf("archive: collisions %s: %w", id, err)
	}
	defer rows.Close()

	var out []orbit.CollisionEvent
	for rows.Next() {
		var i, j, step int
		if err := rows.Scan(&i, &j, &step); err != nil {
			return nil, fmt.Errorf("archive: scan collision: %w", err)
		}
		if n := len(out); n > 0 && out[n-1].I == i && out[n-1].J == j {
			out[n-1].Steps = append(out[n-1].Steps, step)
			continue
		}
		out = append(out, orbit.CollisionEvent{I: i, J: j, Steps: []int{step}})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("archive: collisions %s: %w", id, err)
	}
	return out, nil
}

// DeleteRun removes a run and its collisions.
func (s *Store) DeleteRun(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("archive: delete run %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("archive: delete run %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}
