// Package store persists knowledge graph snapshots and publication plans
// in a local SQLite database.
package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/adalundhe/topicalmap/core/planner"
	"github.com/adalundhe/topicalmap/core/semantic"
)

const (
	// DefaultPath is used when Open is given an empty path.
	DefaultPath = "topicalmap.db"

	schemaVersion = 1
	timeLayout    = time.RFC3339Nano
)

// Store is safe for concurrent use; database/sql serializes access.
type Store struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
	now    func() time.Time
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger.Named("store")
		}
	}
}

// GraphInfo describes a stored graph without loading it.
type GraphInfo struct {
	Name      string    `json:"name" yaml:"name"`
	Nodes     int       `json:"nodes" yaml:"nodes"`
	Edges     int       `json:"edges" yaml:"edges"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updated_at"`
}

// PlanInfo describes a stored plan without loading it.
type PlanInfo struct {
	ID        string    `json:"id" yaml:"id"`
	Topics    int       `json:"topics" yaml:"topics"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
}

// Open opens or creates the database at path in WAL mode.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	if path == "" {
		path = DefaultPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create store directory")
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "open store database")
	}

	s := &Store{db: db, path: path, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "enable WAL mode")
	}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "initialize schema")
	}

	s.logger.Debug("opened store", zap.String("path", path))
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS graphs (
		name TEXT PRIMARY KEY,
		data JSON NOT NULL,
		node_count INTEGER NOT NULL DEFAULT 0,
		edge_count INTEGER NOT NULL DEFAULT 0,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS plans (
		id TEXT PRIMARY KEY,
		data JSON NOT NULL,
		topic_count INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_plans_created ON plans(created_at);
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "INSERT OR IGNORE INTO schema_version (version) VALUES (?)", schemaVersion)
	return err
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// Graphs
// =============================================================================

// SaveGraph stores g under name, replacing any previous snapshot.
func (s *Store) SaveGraph(ctx context.Context, name string, g *semantic.KnowledgeGraph) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.Wrap(ErrEmptyKey, "graph name")
	}

	data, err := json.Marshal(g)
	if err != nil {
		return errors.Wrapf(err, "encode graph %q", name)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO graphs (name, data, node_count, edge_count, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			data = excluded.data,
			node_count = excluded.node_count,
			edge_count = excluded.edge_count,
			updated_at = excluded.updated_at
	`, name, string(data), g.NodeCount(), g.EdgeCount(), s.now().UTC().Format(timeLayout))
	if err != nil {
		return errors.Wrapf(err, "save graph %q", name)
	}

	s.logger.Info("saved graph",
		zap.String("name", name),
		zap.Int("nodes", g.NodeCount()),
		zap.Int("edges", g.EdgeCount()),
	)
	return nil
}

// LoadGraph decodes the graph stored under name. A corrupt snapshot fails
// with semantic.ErrCorruptSnapshot.
func (s *Store) LoadGraph(ctx context.Context, name string, opts ...semantic.Option) (*semantic.KnowledgeGraph, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM graphs WHERE name = ?", name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "graph %q", name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load graph %q", name)
	}

	g, err := semantic.Load(bytes.NewReader([]byte(data)), opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "graph %q", name)
	}
	return g, nil
}

// ListGraphs returns every stored graph ordered by name.
func (s *Store) ListGraphs(ctx context.Context) ([]GraphInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, node_count, edge_count, updated_at FROM graphs ORDER BY name")
	if err != nil {
		return nil, errors.Wrap(err, "list graphs")
	}
	defer rows.Close()

	graphs := []GraphInfo{}
	for rows.Next() {
		var info GraphInfo
		var updated string
		if err := rows.Scan(&info.Name, &info.Nodes, &info.Edges, &updated); err != nil {
			return nil, errors.Wrap(err, "scan graph row")
		}
		info.UpdatedAt = parseTime(updated)
		graphs = append(graphs, info)
	}
	return graphs, errors.Wrap(rows.Err(), "list graphs")
}

// DeleteGraph removes the graph stored under name.
func (s *Store) DeleteGraph(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM graphs WHERE name = ?", name)
	if err != nil {
		return errors.Wrapf(err, "delete graph %q", name)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.Wrapf(ErrNotFound, "graph %q", name)
	}
	s.logger.Info("deleted graph", zap.String("name", name))
	return nil
}

// =============================================================================
// Plans
// =============================================================================

// SavePlan stores plan under its ID, replacing any previous version.
func (s *Store) SavePlan(ctx context.Context, plan *planner.Plan) error {
	if plan == nil || plan.ID == "" {
		return errors.Wrap(ErrEmptyKey, "plan id")
	}

	data, err := json.Marshal(plan)
	if err != nil {
		return errors.Wrapf(err, "encode plan %s", plan.ID)
	}

	created := plan.GeneratedAt
	if created.IsZero() {
		created = s.now()
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO plans (id, data, topic_count, created_at)
		VALUES (?, ?, ?, ?)
	`, plan.ID, string(data), len(plan.Topics), created.UTC().Format(timeLayout))
	if err != nil {
		return errors.Wrapf(err, "save plan %s", plan.ID)
	}

	s.logger.Info("saved plan", zap.String("plan_id", plan.ID), zap.Int("topics", len(plan.Topics)))
	return nil
}

func (s *Store) LoadPlan(ctx context.Context, id string) (*planner.Plan, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM plans WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "plan %s", id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "load plan %s", id)
	}

	var plan planner.Plan
	if err := json.Unmarshal([]byte(data), &plan); err != nil {
		return nil, errors.Wrapf(err, "decode plan %s", id)
	}
	return &plan, nil
}

// ListPlans returns stored plans, newest first.
func (s *Store) ListPlans(ctx context.Context) ([]PlanInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, topic_count, created_at FROM plans ORDER BY created_at DESC, id")
	if err != nil {
		return nil, errors.Wrap(err, "list plans")
	}
	defer rows.Close()

	plans := []PlanInfo{}
	for rows.Next() {
		var info PlanInfo
		var created string
		if err := rows.Scan(&info.ID, &info.Topics, &created); err != nil {
			return nil, errors.Wrap(err, "scan plan row")
		}
		info.CreatedAt = parseTime(created)
		plans = append(plans, info)
	}
	return plans, errors.Wrap(rows.Err(), "list plans")
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
