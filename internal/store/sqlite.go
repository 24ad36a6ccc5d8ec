package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/lead-scout/internal/model"
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
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	data       TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS queries (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'pending',
	data       TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS leads (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	query_id   TEXT NOT NULL DEFAULT '',
	url        TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'new',
	quality    TEXT NOT NULL DEFAULT 'low',
	data       TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS entity_searches (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'pending',
	data       TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS entities (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL,
	search_id  TEXT NOT NULL DEFAULT '',
	type       TEXT NOT NULL,
	data       TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
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

// tsLayout sorts lexicographically in time order.
const tsLayout = "2006-01-02T15:04:05.000000000Z"

func ts(t time.Time) string { return t.UTC().Format(tsLayout) }

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Projects ---

func (s *SQLiteStore) CreateProject(ctx context.Context, p *model.Project) error {
	prepareProject(p)
	data, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal project")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Name, string(data), ts(p.CreatedAt), ts(p.UpdatedAt),
	)
	return eris.Wrap(err, "sqlite: insert project")
}

func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*model.Project, error) {
	data, err := s.getData(ctx, `SELECT data FROM projects WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return decode[model.Project](data, "project")
}

func (s *SQLiteStore) ListProjects(ctx context.Context) ([]model.Project, error) {
	return listData[model.Project](ctx, s.db, "project",
		`SELECT data FROM projects ORDER BY created_at DESC, rowid DESC`)
}

func (s *SQLiteStore) UpdateProject(ctx context.Context, p *model.Project) error {
	p.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(p)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal project")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET name = ?, data = ?, updated_at = ? WHERE id = ?`,
		p.Name, string(data), ts(p.UpdatedAt), p.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update project %s", p.ID)
	}
	return checkRowsAffected(res)
}

func (s *SQLiteStore) DeleteProject(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin delete project")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, q := range []string{
		`DELETE FROM leads WHERE project_id = ?`,
		`DELETE FROM queries WHERE project_id = ?`,
		`DELETE FROM entities WHERE project_id = ?`,
		`DELETE FROM entity_searches WHERE project_id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return eris.Wrapf(err, "sqlite: delete project %s children", id)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete project %s", id)
	}
	if err := checkRowsAffected(res); err != nil {
		return err
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit delete project")
}

// --- Queries ---

func (s *SQLiteStore) CreateQuery(ctx context.Context, q *model.Query) error {
	prepareQuery(q)
	data, err := json.Marshal(q)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal query")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO queries (id, project_id, status, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		q.ID, q.ProjectID, string(q.Status), string(data), ts(q.CreatedAt), ts(q.UpdatedAt),
	)
	return eris.Wrap(err, "sqlite: insert query")
}

func (s *SQLiteStore) GetQuery(ctx context.Context, id string) (*model.Query, error) {
	data, err := s.getData(ctx, `SELECT data FROM queries WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return decode[model.Query](data, "query")
}

func (s *SQLiteStore) ListQueries(ctx context.Context, projectID string) ([]model.Query, error) {
	if projectID == "" {
		return listData[model.Query](ctx, s.db, "query",
			`SELECT data FROM queries ORDER BY created_at DESC, rowid DESC`)
	}
	return listData[model.Query](ctx, s.db, "query",
		`SELECT data FROM queries WHERE project_id = ? ORDER BY created_at DESC, rowid DESC`, projectID)
}

func (s *SQLiteStore) UpdateQuery(ctx context.Context, q *model.Query) error {
	q.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(q)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal query")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE queries SET status = ?, data = ?, updated_at = ? WHERE id = ?`,
		string(q.Status), string(data), ts(q.UpdatedAt), q.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update query %s", q.ID)
	}
	return checkRowsAffected(res)
}

func (s *SQLiteStore) DeleteQuery(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queries WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete query %s", id)
	}
	return checkRowsAffected(res)
}

// --- Leads ---

func (s *SQLiteStore) CreateLead(ctx context.Context, l *model.Lead) error {
	prepareLead(l)
	data, err := json.Marshal(l)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal lead")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO leads (id, project_id, query_id, url, status, quality, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.ProjectID, l.QueryID, l.URL, string(l.Status), string(l.Quality), string(data),
		ts(l.CreatedAt), ts(l.UpdatedAt),
	)
	return eris.Wrap(err, "sqlite: insert lead")
}

func (s *SQLiteStore) GetLead(ctx context.Context, id string) (*model.Lead, error) {
	data, err := s.getData(ctx, `SELECT data FROM leads WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return decode[model.Lead](data, "lead")
}

func (s *SQLiteStore) GetLeadByURL(ctx context.Context, projectID, url string) (*model.Lead, error) {
	data, err := s.getData(ctx, `SELECT data FROM leads WHERE project_id = ? AND url = ?`, projectID, url)
	if err != nil {
		return nil, err
	}
	return decode[model.Lead](data, "lead")
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT data FROM leads WHERE 1=1`
	var args []any

	if filter.ProjectID != "" {
		query += ` AND project_id = ?`
		args = append(args, filter.ProjectID)
	}
	if filter.QueryID != "" {
		query += ` AND query_id = ?`
		args = append(args, filter.QueryID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Quality != "" {
		query += ` AND quality = ?`
		args = append(args, string(filter.Quality))
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, filter.limit())
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	return listData[model.Lead](ctx, s.db, "lead", query, args...)
}

func (s *SQLiteStore) UpdateLead(ctx context.Context, l *model.Lead) error {
	l.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(l)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal lead")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET query_id = ?, url = ?, status = ?, quality = ?, data = ?, updated_at = ? WHERE id = ?`,
		l.QueryID, l.URL, string(l.Status), string(l.Quality), string(data), ts(l.UpdatedAt), l.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead %s", l.ID)
	}
	return checkRowsAffected(res)
}

func (s *SQLiteStore) DeleteLead(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM leads WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete lead %s", id)
	}
	return checkRowsAffected(res)
}

// --- Directory ---

func (s *SQLiteStore) CreateEntitySearch(ctx context.Context, es *model.EntitySearch) error {
	prepareEntitySearch(es)
	data, err := json.Marshal(es)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal entity search")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entity_searches (id, project_id, status, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		es.ID, es.ProjectID, string(es.Status), string(data), ts(es.CreatedAt), ts(es.UpdatedAt),
	)
	return eris.Wrap(err, "sqlite: insert entity search")
}

func (s *SQLiteStore) GetEntitySearch(ctx context.Context, id string) (*model.EntitySearch, error) {
	data, err := s.getData(ctx, `SELECT data FROM entity_searches WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return decode[model.EntitySearch](data, "entity search")
}

func (s *SQLiteStore) ListEntitySearches(ctx context.Context, projectID string) ([]model.EntitySearch, error) {
	if projectID == "" {
		return listData[model.EntitySearch](ctx, s.db, "entity search",
			`SELECT data FROM entity_searches ORDER BY created_at DESC, rowid DESC`)
	}
	return listData[model.EntitySearch](ctx, s.db, "entity search",
		`SELECT data FROM entity_searches WHERE project_id = ? ORDER BY created_at DESC, rowid DESC`, projectID)
}

func (s *SQLiteStore) UpdateEntitySearch(ctx context.Context, es *model.EntitySearch) error {
	es.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(es)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal entity search")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE entity_searches SET status = ?, data = ?, updated_at = ? WHERE id = ?`,
		string(es.Status), string(data), ts(es.UpdatedAt), es.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update entity search %s", es.ID)
	}
	return checkRowsAffected(res)
}

func (s *SQLiteStore) CreateEntity(ctx context.Context, e *model.Entity) error {
	prepareEntity(e)
	data, err := json.Marshal(e)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal entity")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO entities (id, project_id, search_id, type, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ProjectID, e.SearchID, string(e.Type), string(data), ts(e.CreatedAt), ts(e.UpdatedAt),
	)
	return eris.Wrap(err, "sqlite: insert entity")
}

func (s *SQLiteStore) GetEntity(ctx context.Context, id string) (*model.Entity, error) {
	data, err := s.getData(ctx, `SELECT data FROM entities WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return decode[model.Entity](data, "entity")
}

func (s *SQLiteStore) ListEntities(ctx context.Context, filter EntityFilter) ([]model.Entity, error) {
	query := `SELECT data FROM entities WHERE 1=1`
	var args []any

	if filter.ProjectID != "" {
		query += ` AND project_id = ?`
		args = append(args, filter.ProjectID)
	}
	if filter.SearchID != "" {
		query += ` AND search_id = ?`
		args = append(args, filter.SearchID)
	}
	if t := filter.typeFilter(); t != "" {
		query += ` AND type = ?`
		args = append(args, t)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, filter.limit())
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	return listData[model.Entity](ctx, s.db, "entity", query, args...)
}

func (s *SQLiteStore) UpdateEntity(ctx context.Context, e *model.Entity) error {
	e.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(e)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal entity")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE entities SET type = ?, data = ?, updated_at = ? WHERE id = ?`,
		string(e.Type), string(data), ts(e.UpdatedAt), e.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update entity %s", e.ID)
	}
	return checkRowsAffected(res)
}

func (s *SQLiteStore) DeleteEntity(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM entities WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete entity %s", id)
	}
	return checkRowsAffected(res)
}

// helpers

func (s *SQLiteStore) getData(ctx context.Context, query string, args ...any) ([]byte, error) {
	var data string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get")
	}
	return []byte(data), nil
}

func listData[T any](ctx context.Context, db *sql.DB, what, query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list %s", what)
	}
	defer rows.Close() //nolint:errcheck

	var out []T
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, eris.Wrapf(err, "sqlite: scan %s", what)
		}
		v, err := decode[T]([]byte(data), what)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, eris.Wrapf(rows.Err(), "sqlite: list %s iterate", what)
}

func checkRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
