package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/feasibility-cli/internal/db"
	"github.com/sells-group/feasibility-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_project": `INSERT INTO projects (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
	"get_project":    `SELECT id, name, financial, technical, market, result, is_completed, created_at, updated_at FROM projects WHERE id = $1`,
	"update_data":    `UPDATE projects SET financial = $1, technical = $2, market = $3, is_completed = $4, updated_at = $5 WHERE id = $6`,
	"save_result":    `UPDATE projects SET result = $1, updated_at = $2 WHERE id = $3`,
	"delete_project": `DELETE FROM projects WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: pool.Close}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name         TEXT NOT NULL,
	financial    JSONB,
	technical    JSONB,
	market       JSONB,
	result       JSONB,
	is_completed BOOLEAN NOT NULL DEFAULT false,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_projects_name ON projects(name);
CREATE INDEX IF NOT EXISTS idx_projects_completed ON projects(is_completed);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateProject(ctx context.Context, name string) (*model.Project, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO projects (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		id, name, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert project")
	}

	return &model.Project{
		ID:        id,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) GetProject(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	var financial, technical, market, result []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, name, financial, technical, market, result, is_completed, created_at, updated_at FROM projects WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &financial, &technical, &market, &result, &p.IsCompleted, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "project %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get project %s", id)
	}

	if err := unmarshalSections(&p, financial, technical, market, result); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal project data")
	}
	return &p, nil
}

func (s *PostgresStore) ListProjects(ctx context.Context, filter ProjectFilter) ([]model.Project, error) {
	query := `SELECT id, name, financial, technical, market, result, is_completed, created_at, updated_at FROM projects WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Completed != nil {
		query += ` AND is_completed = ` + arg(*filter.Completed)
	}
	if filter.NameLike != "" {
		query += ` AND name ILIKE ` + arg("%"+filter.NameLike+"%")
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)

	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list projects")
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		var financial, technical, market, result []byte
		if err := rows.Scan(&p.ID, &p.Name, &financial, &technical, &market, &result, &p.IsCompleted, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan project")
		}
		if err := unmarshalSections(&p, financial, technical, market, result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal project data")
		}
		projects = append(projects, p)
	}
	return projects, eris.Wrap(rows.Err(), "postgres: list projects iterate")
}

func (s *PostgresStore) UpdateProjectData(ctx context.Context, id string, update model.ProjectUpdate) (*model.Project, error) {
	p, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	applyUpdate(p, update)

	financial, technical, market, err := marshalSections(p)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal project data")
	}

	p.UpdatedAt = time.Now().UTC()
	tag, err := s.pool.Exec(ctx,
		`UPDATE projects SET financial = $1, technical = $2, market = $3, is_completed = $4, updated_at = $5 WHERE id = $6`,
		financial, technical, market, p.IsCompleted, p.UpdatedAt, id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: update project %s", id)
	}
	if tag.RowsAffected() == 0 {
		return nil, eris.Wrapf(ErrNotFound, "project %s", id)
	}
	return p, nil
}

func (s *PostgresStore) SaveResult(ctx context.Context, id string, result *model.FeasibilityResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE projects SET result = $1, updated_at = $2 WHERE id = $3`,
		resultJSON, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save result %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "project %s", id)
	}
	return nil
}

// SaveProjects bulk-inserts via the COPY protocol: one round trip no
// matter how large the batch.
func (s *PostgresStore) SaveProjects(ctx context.Context, projects []model.Project) (int64, error) {
	if len(projects) == 0 {
		return 0, nil
	}

	columns := []string{"id", "name", "financial", "technical", "market", "result", "is_completed", "created_at", "updated_at"}
	rows := make([][]any, 0, len(projects))
	for _, p := range projects {
		financial, technical, market, err := marshalSections(&p)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal project data")
		}
		result, err := marshalNullable(p.Result)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal result")
		}
		rows = append(rows, []any{p.ID, p.Name, financial, technical, market, result, p.IsCompleted, p.CreatedAt, p.UpdatedAt})
	}

	return db.CopyFrom(ctx, s.pool, "projects", columns, rows)
}

func (s *PostgresStore) DeleteProject(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete project %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "project %s", id)
	}
	return nil
}
