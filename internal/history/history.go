// Package history persists one record per completed run in a local SQLite
// database, so past builds and deploys stay inspectable from the CLI.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Destination is one publish destination of a recorded run.
type Destination struct {
	Target   string `json:"target"`
	Detail   string `json:"detail"`
	Commit   string `json:"commit,omitempty"`
	DeployID string `json:"deploy_id,omitempty"`
}

// Run is one recorded build, publish or package run.
type Run struct {
	ID        int64
	BuildID   string
	StartedAt time.Time
	Duration  time.Duration
	Outcome   string
	System    string // trigger context
	Event     string
	Branch    string
	Commit    string
	Posts     int
	Pages     int
	Published []Destination
	Artifact  string // preview zip path, empty for publishing runs
}

// Store records runs in SQLite. Safe for concurrent use.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (or creates) the history database at path. ":memory:" gives an
// ephemeral store for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		system TEXT NOT NULL,
		event TEXT NOT NULL,
		branch TEXT,
		commit_sha TEXT,
		posts INTEGER NOT NULL,
		pages INTEGER NOT NULL,
		published TEXT,
		artifact TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_build_id ON runs(build_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record appends a completed run.
func (s *Store) Record(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var publishedJSON []byte
	if len(run.Published) > 0 {
		var err error
		publishedJSON, err = json.Marshal(run.Published)
		if err != nil {
			return fmt.Errorf("marshal published destinations: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs
		 (build_id, started_at, duration_ms, outcome, system, event, branch, commit_sha, posts, pages, published, artifact)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.BuildID,
		run.StartedAt.Unix(),
		run.Duration.Milliseconds(),
		run.Outcome,
		run.System,
		run.Event,
		run.Branch,
		run.Commit,
		run.Posts,
		run.Pages,
		publishedJSON,
		run.Artifact,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Recent returns the newest runs, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, build_id, started_at, duration_ms, outcome, system, event, branch, commit_sha, posts, pages, published, artifact
		 FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

// ByBuildID returns all records for one build ID, oldest first.
func (s *Store) ByBuildID(ctx context.Context, buildID string) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, build_id, started_at, duration_ms, outcome, system, event, branch, commit_sha, posts, pages, published, artifact
		 FROM runs WHERE build_id = ? ORDER BY id`, buildID)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	return scanRuns(rows)
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var (
			run           Run
			startedUnix   int64
			durationMS    int64
			branch        sql.NullString
			commit        sql.NullString
			publishedJSON sql.NullString
			artifact      sql.NullString
		)
		err := rows.Scan(&run.ID, &run.BuildID, &startedUnix, &durationMS, &run.Outcome,
			&run.System, &run.Event, &branch, &commit, &run.Posts, &run.Pages, &publishedJSON, &artifact)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		run.StartedAt = time.Unix(startedUnix, 0)
		run.Duration = time.Duration(durationMS) * time.Millisecond
		run.Branch = branch.String
		run.Commit = commit.String
		run.Artifact = artifact.String
		if publishedJSON.Valid && publishedJSON.String != "" {
			if err := json.Unmarshal([]byte(publishedJSON.String), &run.Published); err != nil {
				return nil, fmt.Errorf("unmarshal published destinations: %w", err)
			}
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
