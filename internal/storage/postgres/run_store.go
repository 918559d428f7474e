// Package postgres provides Postgres-backed persistence implementations.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/rollcall-crawler/internal/store"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// DefaultTable holds crawl-run bookkeeping.
const DefaultTable = "crawl_runs"

// RunStoreConfig controls the Postgres connection pool used for crawl runs.
type RunStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type pool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	Ping(context.Context) error
	Close()
}

// RunStore implements store.RunRepository on Postgres.
type RunStore struct {
	pool  pool
	table string
}

var _ store.RunRepository = (*RunStore)(nil)

// NewRunStore connects a pool using the provided config.
func NewRunStore(ctx context.Context, cfg RunStoreConfig) (*RunStore, error) {
	if cfg.DSN == "" {
		return nil, errors.New("progress.dsn is required")
	}
	table, err := tableName(cfg.Table)
	if err != nil {
		return nil, err
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	p, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &RunStore{pool: p, table: table}, nil
}

// NewRunStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewRunStoreWithPool(p pool, table string) (*RunStore, error) {
	if p == nil {
		return nil, errors.New("pool is required")
	}
	table, err := tableName(table)
	if err != nil {
		return nil, err
	}
	return &RunStore{pool: p, table: table}, nil
}

func tableName(table string) (string, error) {
	if table == "" {
		return DefaultTable, nil
	}
	if !validTableName.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return table, nil
}

// Close releases the underlying pool resources.
func (s *RunStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Ping checks the database is reachable.
func (s *RunStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping progress database: %w", err)
	}
	return nil
}

// EnsureSchema creates the runs table when it does not exist.
func (s *RunStore) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
	id               uuid PRIMARY KEY,
	chamber          text NOT NULL,
	start_coordinate text NOT NULL DEFAULT '',
	last_coordinate  text NOT NULL DEFAULT '',
	started_at       timestamptz NOT NULL,
	finished_at      timestamptz,
	status           text NOT NULL,
	error_message    text,
	documents        bigint NOT NULL DEFAULT 0,
	bytes_total      bigint NOT NULL DEFAULT 0,
	ingested         bigint NOT NULL DEFAULT 0,
	dropped          bigint NOT NULL DEFAULT 0,
	votes            bigint NOT NULL DEFAULT 0
)`, s.table)
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", s.table, err)
	}
	return nil
}

// StartRun inserts the run row.
func (s *RunStore) StartRun(ctx context.Context, runID uuid.UUID, chamber, startCoordinate string, startedAt time.Time) error {
	query := fmt.Sprintf(`
INSERT INTO %s (id, chamber, start_coordinate, last_coordinate, started_at, status)
VALUES ($1, $2, $3, $3, $4, $5)
ON CONFLICT (id) DO NOTHING`, s.table)
	if _, err := s.pool.Exec(ctx, query, runID, chamber, startCoordinate, startedAt, string(store.RunRunning)); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// AddRunCounts applies counter deltas. The last coordinate only moves when
// the delta carries one.
func (s *RunStore) AddRunCounts(ctx context.Context, runID uuid.UUID, delta store.RunDelta) error {
	query := fmt.Sprintf(`
UPDATE %s SET
	documents = documents + $1,
	bytes_total = bytes_total + $2,
	ingested = ingested + $3,
	dropped = dropped + $4,
	votes = votes + $5,
	last_coordinate = CASE WHEN $6 = '' THEN last_coordinate ELSE $6 END
WHERE id = $7`, s.table)
	tag, err := s.pool.Exec(ctx, query,
		delta.Documents, delta.BytesTotal, delta.Ingested, delta.Dropped, delta.Votes,
		delta.LastCoordinate, runID,
	)
	if err != nil {
		return fmt.Errorf("update run counts: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run %s: %w", runID, store.ErrNotFound)
	}
	return nil
}

// CompleteRun marks the run finished.
func (s *RunStore) CompleteRun(
	ctx context.Context,
	runID uuid.UUID,
	finishedAt time.Time,
	status store.RunStatus,
	errMsg *string,
) error {
	query := fmt.Sprintf(`
UPDATE %s SET finished_at = $1, status = $2, error_message = $3
WHERE id = $4`, s.table)
	tag, err := s.pool.Exec(ctx, query, finishedAt, string(status), errMsg, runID)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("run %s: %w", runID, store.ErrNotFound)
	}
	return nil
}

const runColumns = `id, chamber, start_coordinate, last_coordinate, started_at, finished_at,
	status, error_message, documents, bytes_total, ingested, dropped, votes`

// GetRun loads a single run by id.
func (s *RunStore) GetRun(ctx context.Context, runID uuid.UUID) (store.CrawlRun, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, runColumns, s.table)
	run, err := scanRun(s.pool.QueryRow(ctx, query, runID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.CrawlRun{}, store.ErrNotFound
		}
		return store.CrawlRun{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs newest first. Empty chamber or nil status match all.
func (s *RunStore) ListRuns(
	ctx context.Context,
	chamber string,
	status *store.RunStatus,
	limit,
	offset int,
) ([]store.CrawlRun, error) {
	statusArg := ""
	if status != nil {
		statusArg = string(*status)
	}
	query := fmt.Sprintf(`
SELECT %s FROM %s
WHERE ($1 = '' OR chamber = $1) AND ($2 = '' OR status = $2)
ORDER BY started_at DESC
LIMIT $3 OFFSET $4`, runColumns, s.table)
	rows, err := s.pool.Query(ctx, query, chamber, statusArg, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []store.CrawlRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

func scanRun(row pgx.Row) (store.CrawlRun, error) {
	var (
		run      store.CrawlRun
		finished sql.NullTime
		status   string
		errMsg   sql.NullString
	)
	err := row.Scan(
		&run.ID,
		&run.Chamber,
		&run.StartCoordinate,
		&run.LastCoordinate,
		&run.StartedAt,
		&finished,
		&status,
		&errMsg,
		&run.Documents,
		&run.BytesTotal,
		&run.Ingested,
		&run.Dropped,
		&run.Votes,
	)
	if err != nil {
		return store.CrawlRun{}, err
	}
	run.Status = store.RunStatus(status)
	if finished.Valid {
		at := finished.Time
		run.FinishedAt = &at
	}
	if errMsg.Valid {
		msg := errMsg.String
		run.ErrorMessage = &msg
	}
	return run, nil
}
