package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"studystreak/internal/platform/docstore"
	apperrors "studystreak/internal/platform/errors"

	_ "modernc.org/sqlite"
)

const MemoryPath = ":memory:"

var _ docstore.Store = (*Store)(nil)

type Store struct {
	db *sql.DB
}

type txKey struct{ store *Store }

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open opens (and creates) the database at dbPath. MemoryPath opens a
// private in-memory database. The pool holds a single connection so a
// transaction serializes every other writer behind it.
func Open(dbPath string) (*Store, error) {
	dsn := dbPath
	if dbPath != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		dsn = dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	store := &Store{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS documents (
  collection TEXT NOT NULL,
  key TEXT NOT NULL,
  body TEXT NOT NULL,
  updated_at TEXT NOT NULL,
  PRIMARY KEY (collection, key)
);
CREATE TABLE IF NOT EXISTS records (
  collection TEXT NOT NULL,
  id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  date TEXT NOT NULL,
  created_at INTEGER NOT NULL,
  body TEXT NOT NULL,
  PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS records_user_date ON records (collection, user_id, date);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{s}).(*sql.Tx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Within(ctx context.Context, fn func(context.Context) error) error {
	if _, ok := ctx.Value(txKey{s}).(*sql.Tx); ok {
		return fn(ctx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", apperrors.ErrTransientIO, err)
	}
	if err := fn(context.WithValue(ctx, txKey{s}, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", apperrors.ErrTransientIO, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, key string) ([]byte, error) {
	var body string
	err := s.q(ctx).QueryRowContext(ctx, `SELECT body FROM documents WHERE collection = ? AND key = ?`, collection, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", collection, key, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get %s/%s: %w", apperrors.ErrTransientIO, collection, key, err)
	}
	return []byte(body), nil
}

func (s *Store) Put(ctx context.Context, collection, key string, body []byte) error {
	const stmt = `
INSERT INTO documents (collection, key, body, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(collection, key) DO UPDATE SET
  body=excluded.body,
  updated_at=excluded.updated_at;
`
	if _, err := s.q(ctx).ExecContext(ctx, stmt, collection, key, string(body), now()); err != nil {
		return fmt.Errorf("%w: put %s/%s: %w", apperrors.ErrTransientIO, collection, key, err)
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, collection, key string, body []byte) error {
	const stmt = `
INSERT INTO documents (collection, key, body, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(collection, key) DO NOTHING;
`
	res, err := s.q(ctx).ExecContext(ctx, stmt, collection, key, string(body), now())
	if err != nil {
		return fmt.Errorf("%w: insert %s/%s: %w", apperrors.ErrTransientIO, collection, key, err)
	}
	return requireInserted(res, collection, key)
}

func (s *Store) Append(ctx context.Context, collection string, rec docstore.Record) error {
	const stmt = `
INSERT INTO records (collection, id, user_id, date, created_at, body)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(collection, id) DO NOTHING;
`
	res, err := s.q(ctx).ExecContext(ctx, stmt, collection, rec.ID, rec.UserID, rec.Date, rec.CreatedAt.UnixNano(), string(rec.Body))
	if err != nil {
		return fmt.Errorf("%w: append %s/%s: %w", apperrors.ErrTransientIO, collection, rec.ID, err)
	}
	return requireInserted(res, collection, rec.ID)
}

func (s *Store) Query(ctx context.Context, collection string, q docstore.Query) ([]docstore.Record, error) {
	clauses := []string{"collection = ?"}
	args := []any{collection}
	if len(q.UserIDs) > 0 {
		clauses = append(clauses, "user_id IN (?"+strings.Repeat(", ?", len(q.UserIDs)-1)+")")
		for _, id := range q.UserIDs {
			args = append(args, id)
		}
	}
	if q.From != "" {
		clauses = append(clauses, "date >= ?")
		args = append(args, q.From)
	}
	if q.To != "" {
		clauses = append(clauses, "date <= ?")
		args = append(args, q.To)
	}
	order := "created_at ASC, id ASC"
	if q.Newest {
		order = "created_at DESC, id DESC"
	}
	stmt := "SELECT id, user_id, date, created_at, body FROM records WHERE " + strings.Join(clauses, " AND ") + " ORDER BY " + order
	if q.Limit > 0 {
		stmt += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := s.q(ctx).QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query %s: %w", apperrors.ErrTransientIO, collection, err)
	}
	defer rows.Close()

	out := []docstore.Record{}
	for rows.Next() {
		var (
			rec       docstore.Record
			createdAt int64
			body      string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Date, &createdAt, &body); err != nil {
			return nil, fmt.Errorf("%w: scan %s: %w", apperrors.ErrTransientIO, collection, err)
		}
		rec.CreatedAt = time.Unix(0, createdAt).UTC()
		rec.Body = []byte(body)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate %s: %w", apperrors.ErrTransientIO, collection, err)
	}
	return out, nil
}

func requireInserted(res sql.Result, collection, key string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected %s/%s: %w", apperrors.ErrTransientIO, collection, key, err)
	}
	if n == 0 {
		return fmt.Errorf("%s/%s: %w", collection, key, apperrors.ErrAlreadyExists)
	}
	return nil
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
