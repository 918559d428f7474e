// Package neo4jgraph implements graph.Store on Neo4j. Each write unit runs
// in one managed write transaction, so the driver retries transient cluster
// errors and the whole unit commits or none of it does.
package neo4jgraph

import (
	"context"
	"errors"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/JakeFAU/rollcall-crawler/internal/graph"
	"github.com/JakeFAU/rollcall-crawler/internal/model"
)

// Config describes the Bolt connection.
type Config struct {
	URI      string
	Username string
	Password string
	Database string
}

// Store is a Neo4j-backed graph.Store.
type Store struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

// New connects to Neo4j and verifies connectivity.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	if cfg.URI == "" {
		return nil, errors.New("neo4j uri is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	logger.Info("connected to neo4j", zap.String("uri", cfg.URI), zap.String("database", cfg.Database))
	return &Store{driver: driver, database: cfg.Database, logger: logger}, nil
}

// Ping verifies the driver can still reach the server.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.driver.VerifyConnectivity(ctx); err != nil {
		return fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return nil
}

// EnsureSchema creates the uniqueness constraints backing each natural key.
func (s *Store) EnsureSchema(ctx context.Context) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)
	for _, stmt := range schemaStatements {
		result, err := session.Run(ctx, stmt, nil)
		if err != nil {
			return fmt.Errorf("apply schema %q: %w", stmt, err)
		}
		if _, err := result.Consume(ctx); err != nil {
			return fmt.Errorf("apply schema %q: %w", stmt, err)
		}
	}
	return nil
}

// WriteTx implements graph.Store.
func (s *Store) WriteTx(ctx context.Context, fn func(ctx context.Context, tx graph.Tx) error) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)
	_, err := session.ExecuteWrite(ctx, func(mtx neo4j.ManagedTransaction) (any, error) {
		return nil, fn(ctx, &cypherTx{runner: managedRunner{tx: mtx}})
	})
	if err != nil {
		return fmt.Errorf("neo4j write: %w", err)
	}
	return nil
}

// LatestRollCall implements graph.Store.
func (s *Store) LatestRollCall(ctx context.Context, chamber model.Chamber) (model.RollCall, error) {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)
	out, err := session.ExecuteRead(ctx, func(mtx neo4j.ManagedTransaction) (any, error) {
		return latestRollCall(ctx, managedRunner{tx: mtx}, chamber)
	})
	if err != nil {
		if errors.Is(err, graph.ErrNotFound) {
			return model.RollCall{}, graph.ErrNotFound
		}
		return model.RollCall{}, fmt.Errorf("neo4j read latest roll call: %w", err)
	}
	rc, ok := out.(model.RollCall)
	if !ok {
		return model.RollCall{}, fmt.Errorf("neo4j read latest roll call: unexpected %T", out)
	}
	return rc, nil
}

// Close implements graph.Store.
func (s *Store) Close(ctx context.Context) error {
	if err := s.driver.Close(ctx); err != nil {
		return fmt.Errorf("close neo4j driver: %w", err)
	}
	return nil
}

func (s *Store) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

// runner executes one Cypher statement and returns every row.
type runner interface {
	run(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)
}

type managedRunner struct {
	tx neo4j.ManagedTransaction
}

func (r managedRunner) run(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	result, err := r.tx.Run(ctx, cypher, params)
	if err != nil {
		return nil, err
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		rows = append(rows, rec.AsMap())
	}
	return rows, nil
}

func latestRollCall(ctx context.Context, r runner, chamber model.Chamber) (model.RollCall, error) {
	rows, err := r.run(ctx, latestRollCallQuery, map[string]any{"chamber": string(chamber)})
	if err != nil {
		return model.RollCall{}, err
	}
	if len(rows) == 0 {
		return model.RollCall{}, graph.ErrNotFound
	}
	return decodeRollCall(rows[0])
}
