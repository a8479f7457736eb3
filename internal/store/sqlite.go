package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/feasibility-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	financial    TEXT,
	technical    TEXT,
	market       TEXT,
	result       TEXT,
	is_completed INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_projects_name ON projects(name);
CREATE INDEX IF NOT EXISTS idx_projects_completed ON projects(is_completed);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateProject(ctx context.Context, name string) (*model.Project, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		id, name, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert project")
	}

	return &model.Project{
		ID:        id,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*model.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, financial, technical, market, result, is_completed, created_at, updated_at
		 FROM projects WHERE id = ?`,
		id,
	)
	return scanProject(row)
}

func (s *SQLiteStore) ListProjects(ctx context.Context, filter ProjectFilter) ([]model.Project, error) {
	query := `SELECT id, name, financial, technical, market, result, is_completed, created_at, updated_at
	          FROM projects WHERE 1=1`
	var args []any

	if filter.Completed != nil {
		query += ` AND is_completed = ?`
		args = append(args, boolToInt(*filter.Completed))
	}
	if filter.NameLike != "" {
		query += ` AND name LIKE ?`
		args = append(args, "%"+filter.NameLike+"%")
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list projects")
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProjectFromRows(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, eris.Wrap(rows.Err(), "sqlite: list projects iterate")
}

func (s *SQLiteStore) UpdateProjectData(ctx context.Context, id string, update model.ProjectUpdate) (*model.Project, error) {
	p, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	applyUpdate(p, update)

	financial, technical, market, err := marshalSections(p)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal project data")
	}

	p.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET financial = ?, technical = ?, market = ?, is_completed = ?, updated_at = ? WHERE id = ?`,
		financial, technical, market, boolToInt(p.IsCompleted), p.UpdatedAt, id,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: update project %s", id)
	}
	if err := checkRowsAffected(res, "project", id); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *SQLiteStore) SaveResult(ctx context.Context, id string, result *model.FeasibilityResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET result = ?, updated_at = ? WHERE id = ?`,
		string(resultJSON), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save result %s", id)
	}
	return checkRowsAffected(res, "project", id)
}

func (s *SQLiteStore) SaveProjects(ctx context.Context, projects []model.Project) (int64, error) {
	if len(projects) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin bulk insert")
	}
	defer tx.Rollback()

	var n int64
	for _, p := range projects {
		financial, technical, market, err := marshalSections(&p)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: marshal project data")
		}
		resultJSON, err := marshalNullable(p.Result)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: marshal result")
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO projects (id, name, financial, technical, market, result, is_completed, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, financial, technical, market, resultJSON, boolToInt(p.IsCompleted), p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: bulk insert project %s", p.ID)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit bulk insert")
	}
	return n, nil
}

func (s *SQLiteStore) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete project %s", id)
	}
	return checkRowsAffected(res, "project", id)
}

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*model.Project, error) {
	var p model.Project
	var financial, technical, market, result sql.NullString
	var completed int

	err := row.Scan(&p.ID, &p.Name, &financial, &technical, &market, &result, &completed, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, eris.Wrap(ErrNotFound, "project")
		}
		return nil, eris.Wrap(err, "sqlite: scan project")
	}

	p.IsCompleted = completed != 0
	if err := unmarshalSections(&p, nullBytes(financial), nullBytes(technical), nullBytes(market), nullBytes(result)); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal project data")
	}
	return &p, nil
}

func scanProjectFromRows(rows *sql.Rows) (*model.Project, error) {
	return scanProject(rows)
}

func nullBytes(s sql.NullString) []byte {
	if !s.Valid || s.String == "" {
		return nil
	}
	return []byte(s.String)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "rows affected for %s %s", kind, id)
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", kind, id)
	}
	return nil
}

// applyUpdate merges the non-nil update sections and recomputes the
// completion flag.
func applyUpdate(p *model.Project, update model.ProjectUpdate) {
	if update.Financial != nil {
		p.Financial = update.Financial
	}
	if update.Technical != nil {
		p.Technical = update.Technical
	}
	if update.Market != nil {
		p.Market = update.Market
	}
	p.IsCompleted = p.Financial != nil && p.Technical != nil && p.Market != nil
}

func marshalSections(p *model.Project) (financial, technical, market any, err error) {
	if financial, err = marshalNullable(p.Financial); err != nil {
		return nil, nil, nil, err
	}
	if technical, err = marshalNullable(p.Technical); err != nil {
		return nil, nil, nil, err
	}
	if market, err = marshalNullable(p.Market); err != nil {
		return nil, nil, nil, err
	}
	return financial, technical, market, nil
}

// marshalNullable marshals v to a JSON string, or nil for nil-ish values so
// the column stays NULL.
func marshalNullable(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		if t == nil {
			return nil, nil
		}
	case *model.TechnicalInput:
		if t == nil {
			return nil, nil
		}
	case *model.MarketInput:
		if t == nil {
			return nil, nil
		}
	case *model.FeasibilityResult:
		if t == nil {
			return nil, nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func unmarshalSections(p *model.Project, financial, technical, market, result []byte) error {
	if financial != nil {
		if err := json.Unmarshal(financial, &p.Financial); err != nil {
			return err
		}
	}
	if technical != nil {
		p.Technical = &model.TechnicalInput{}
		if err := json.Unmarshal(technical, p.Technical); err != nil {
			return err
		}
	}
	if market != nil {
		p.Market = &model.MarketInput{}
		if err := json.Unmarshal(market, p.Market); err != nil {
			return err
		}
	}
	if result != nil {
		p.Result = &model.FeasibilityResult{}
		if err := json.Unmarshal(result, p.Result); err != nil {
			return err
		}
	}
	return nil
}
