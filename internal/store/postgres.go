package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-scout/internal/model"
)

// Pool is the subset of *pgxpool.Pool the store uses.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 1
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			pgxCfg.MaxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			pgxCfg.MinConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

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

const postgresMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS queries (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'pending',
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS leads (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	query_id   TEXT NOT NULL DEFAULT '',
	url        TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'new',
	quality    TEXT NOT NULL DEFAULT 'low',
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS entity_searches (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'pending',
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS entities (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	search_id  TEXT NOT NULL DEFAULT '',
	type       TEXT NOT NULL,
	data       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_queries_project ON queries(project_id);
CREATE INDEX IF NOT EXISTS idx_entity_searches_project ON entity_searches(project_id);
CREATE INDEX IF NOT EXISTS idx_entities_project_type ON entities(project_id, type);
CREATE INDEX IF NOT EXISTS idx_entities_search ON entities(search_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_leads_project_url ON leads(project_id, url);
CREATE INDEX IF NOT EXISTS idx_leads_query ON leads(query_id);
CREATE INDEX IF NOT EXISTS idx_leads_status ON leads(status);
CREATE INDEX IF NOT EXISTS idx_leads_quality ON leads(quality);
`

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

// --- Projects ---

func (s *PostgresStore) CreateProject(ctx context.Context, p *model.Project) error {
	prepareProject(p)
	data, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal project")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO projects (id, name, data, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.Name, data, p.CreatedAt, p.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: insert project")
}

func (s *PostgresStore) GetProject(ctx context.Context, id string) (*model.Project, error) {
	data, err := s.getData(ctx, `SELECT data FROM projects WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return decode[model.Project](data, "project")
}

func (s *PostgresStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	return pgList[model.Project](ctx, s.pool, "project",
		`SELECT data FROM projects ORDER BY created_at DESC`)
}

func (s *PostgresStore) UpdateProject(ctx context.Context, p *model.Project) error {
	p.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal project")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE projects SET name = $1, data = $2, updated_at = $3 WHERE id = $4`,
		p.Name, data, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update project %s", p.ID)
	}
	return affected(tag)
}

func (s *PostgresStore) DeleteProject(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin delete project")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, q := range []string{
		`DELETE FROM leads WHERE project_id = $1`,
		`DELETE FROM queries WHERE project_id = $1`,
		`DELETE FROM entities WHERE project_id = $1`,
		`DELETE FROM entity_searches WHERE project_id = $1`,
	} {
		if _, err := tx.Exec(ctx, q, id); err != nil {
			return eris.Wrapf(err, "postgres: delete project %s children", id)
		}
	}
	tag, err := tx.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete project %s", id)
	}
	if err := affected(tag); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit delete project")
}

// --- Queries ---

func (s *PostgresStore) CreateQuery(ctx context.Context, q *model.Query) error {
	prepareQuery(q)
	data, err := json.Marshal(q)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal query")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO queries (id, project_id, status, data, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		q.ID, q.ProjectID, string(q.Status), data, q.CreatedAt, q.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: insert query")
}

func (s *PostgresStore) GetQuery(ctx context.Context, id string) (*model.Query, error) {
	data, err := s.getData(ctx, `SELECT data FROM queries WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return decode[model.Query](data, "query")
}

func (s *PostgresStore) ListQueries(ctx context.Context, projectID string) ([]model.Query, error) {
	if projectID == "" {
		return pgList[model.Query](ctx, s.pool, "query",
			`SELECT data FROM queries ORDER BY created_at DESC`)
	}
	return pgList[model.Query](ctx, s.pool, "query",
		`SELECT data FROM queries WHERE project_id = $1 ORDER BY created_at DESC`, projectID)
}

func (s *PostgresStore) UpdateQuery(ctx context.Context, q *model.Query) error {
	q.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(q)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal query")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE queries SET status = $1, data = $2, updated_at = $3 WHERE id = $4`,
		string(q.Status), data, q.UpdatedAt, q.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update query %s", q.ID)
	}
	return affected(tag)
}

func (s *PostgresStore) DeleteQuery(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM queries WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete query %s", id)
	}
	return affected(tag)
}

// --- Leads ---

func (s *PostgresStore) CreateLead(ctx context.Context, l *model.Lead) error {
	prepareLead(l)
	data, err := json.Marshal(l)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal lead")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO leads (id, project_id, query_id, url, status, quality, data, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		l.ID, l.ProjectID, l.QueryID, l.URL, string(l.Status), string(l.Quality), data,
		l.CreatedAt, l.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: insert lead")
}

func (s *PostgresStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	data, err := s.getData(ctx, `SELECT data FROM leads WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return decode[model.Lead](data, "lead")
}

func (s *PostgresStore) GetLeadByURL(ctx context.Context, projectID, url string) (*model.Lead, error) {
	data, err := s.getData(ctx, `SELECT data FROM leads WHERE project_id = $1 AND url = $2`, projectID, url)
	if err != nil {
		return nil, err
	}
	return decode[model.Lead](data, "lead")
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT data FROM leads WHERE 1=1`
	var args []any
	arg := func(clause string, v any) {
		args = append(args, v)
		query += clause + "$" + strconv.Itoa(len(args))
	}

	if filter.ProjectID != "" {
		arg(` AND project_id = `, filter.ProjectID)
	}
	if filter.QueryID != "" {
		arg(` AND query_id = `, filter.QueryID)
	}
	if filter.Status != "" {
		arg(` AND status = `, string(filter.Status))
	}
	if filter.Quality != "" {
		arg(` AND quality = `, string(filter.Quality))
	}
	query += ` ORDER BY created_at DESC`
	arg(` LIMIT `, filter.limit())
	if filter.Offset > 0 {
		arg(` OFFSET `, filter.Offset)
	}

	return pgList[model.Lead](ctx, s.pool, "lead", query, args...)
}

func (s *PostgresStore) UpdateLead(ctx context.Context, l *model.Lead) error {
	l.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(l)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal lead")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET query_id = $1, url = $2, status = $3, quality = $4, data = $5, updated_at = $6 WHERE id = $7`,
		l.QueryID, l.URL, string(l.Status), string(l.Quality), data, l.UpdatedAt, l.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead %s", l.ID)
	}
	return affected(tag)
}

func (s *PostgresStore) DeleteLead(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete lead %s", id)
	}
	return affected(tag)
}

// --- Directory ---

func (s *PostgresStore) CreateEntitySearch(ctx context.Context, es *model.EntitySearch) error {
	prepareEntitySearch(es)
	data, err := json.Marshal(es)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal entity search")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO entity_searches (id, project_id, status, data, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		es.ID, es.ProjectID, string(es.Status), data, es.CreatedAt, es.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: insert entity search")
}

func (s *PostgresStore) GetEntitySearch(ctx context.Context, id string) (*model.EntitySearch, error) {
	data, err := s.getData(ctx, `SELECT data FROM entity_searches WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return decode[model.EntitySearch](data, "entity search")
}

func (s *PostgresStore) ListEntitySearches(ctx context.Context, projectID string) ([]model.EntitySearch, error) {
	if projectID == "" {
		return pgList[model.EntitySearch](ctx, s.pool, "entity search",
			`SELECT data FROM entity_searches ORDER BY created_at DESC`)
	}
	return pgList[model.EntitySearch](ctx, s.pool, "entity search",
		`SELECT data FROM entity_searches WHERE project_id = $1 ORDER BY created_at DESC`, projectID)
}

func (s *PostgresStore) UpdateEntitySearch(ctx context.Context, es *model.EntitySearch) error {
	es.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(es)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal entity search")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE entity_searches SET status = $1, data = $2, updated_at = $3 WHERE id = $4`,
		string(es.Status), data, es.UpdatedAt, es.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update entity search %s", es.ID)
	}
	return affected(tag)
}

func (s *PostgresStore) CreateEntity(ctx context.Context, e *model.Entity) error {
	prepareEntity(e)
	data, err := json.Marshal(e)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal entity")
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO entities (id, project_id, search_id, type, data, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.ProjectID, e.SearchID, string(e.Type), data, e.CreatedAt, e.UpdatedAt,
	)
	return eris.Wrap(err, "postgres: insert entity")
}

func (s *PostgresStore) GetEntity(ctx context.Context, id string) (*model.Entity, error) {
	data, err := s.getData(ctx, `SELECT data FROM entities WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return decode[model.Entity](data, "entity")
}

func (s *PostgresStore) ListEntities(ctx context.Context, filter EntityFilter) ([]model.Entity, error) {
	query := `SELECT data FROM entities WHERE 1=1`
	var args []any
	arg := func(clause string, v any) {
		args = append(args, v)
		query += clause + "$" + strconv.Itoa(len(args))
	}

	if filter.ProjectID != "" {
		arg(` AND project_id = `, filter.ProjectID)
	}
	if filter.SearchID != "" {
		arg(` AND search_id = `, filter.SearchID)
	}
	if t := filter.typeFilter(); t != "" {
		arg(` AND type = `, t)
	}
	query += ` ORDER BY created_at DESC`
	arg(` LIMIT `, filter.limit())
	if filter.Offset > 0 {
		arg(` OFFSET `, filter.Offset)
	}

	return pgList[model.Entity](ctx, s.pool, "entity", query, args...)
}

func (s *PostgresStore) UpdateEntity(ctx context.Context, e *model.Entity) error {
	e.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(e)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal entity")
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE entities SET type = $1, data = $2, updated_at = $3 WHERE id = $4`,
		string(e.Type), data, e.UpdatedAt, e.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update entity %s", e.ID)
	}
	return affected(tag)
}

func (s *PostgresStore) DeleteEntity(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM entities WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete entity %s", id)
	}
	return affected(tag)
}

// helpers

func (s *PostgresStore) getData(ctx context.Context, query string, args ...any) ([]byte, error) {
	var data []byte
	err := s.pool.QueryRow(ctx, query, args...).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get")
	}
	return data, nil
}

func pgList[T any](ctx context.Context, pool Pool, what, query string, args ...any) ([]T, error) {
	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list %s", what)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrapf(err, "postgres: scan %s", what)
		}
		v, err := decode[T](data, what)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, eris.Wrapf(rows.Err(), "postgres: list %s iterate", what)
}

func affected(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
