package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps every collection in one table of JSON bodies and
// queries them with the JSON1 functions.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one connection: keeps ":memory:" databases shared and writes serialized
	db.SetMaxOpenConns(1)

	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id         TEXT NOT NULL,
			body       TEXT NOT NULL,
			PRIMARY KEY (collection, id)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	id := NewID()
	body, err := json.Marshal(withID(doc, id))
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)`, collection, id, string(body))
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *SQLiteStore) Put(ctx context.Context, collection, id string, doc Document) error {
	body, err := json.Marshal(withID(doc, id))
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)
		 ON CONFLICT (collection, id) DO UPDATE SET body = excluded.body`,
		collection, id, string(body))
	return err
}

func (s *SQLiteStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeBody(body)
}

func (s *SQLiteStore) Find(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := checkQuery(q); err != nil {
		return nil, err
	}
	where, args := sqliteWhere(collection, q.Where)
	var b strings.Builder
	b.WriteString(`SELECT body FROM documents WHERE `)
	b.WriteString(where)
	if q.SortBy != "" {
		b.WriteString(` ORDER BY json_extract(body, ?)`)
		args = append(args, "$."+q.SortBy)
		if q.Desc {
			b.WriteString(` DESC`)
		}
	}
	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}
	b.WriteString(` LIMIT ? OFFSET ?`)
	args = append(args, limit, q.Skip)

	rows, err := s.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		doc, err := decodeBody(body)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStore) Count(ctx context.Context, collection string, where map[string]any) (int, error) {
	if err := checkQuery(Query{Where: where}); err != nil {
		return 0, err
	}
	clause, args := sqliteWhere(collection, where)
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE `+clause, args...).Scan(&n)
	return n, err
}

func (s *SQLiteStore) Update(ctx context.Context, collection, id string, set Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var body string
	err = tx.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE collection = ? AND id = ?`, collection, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	doc, err := decodeBody(body)
	if err != nil {
		return err
	}
	for k, v := range set {
		doc[k] = v
	}
	doc[IDField] = id
	out, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE documents SET body = ? WHERE collection = ? AND id = ?`, string(out), collection, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) Increment(ctx context.Context, collection, id, field string, delta int) error {
	if err := checkField(field); err != nil {
		return err
	}
	path := "$." + field
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents
		 SET body = json_set(body, ?, max(0, COALESCE(json_extract(body, ?), 0) + ?))
		 WHERE collection = ? AND id = ?`,
		path, path, delta, collection, id)
	if err != nil {
		return err
	}
	return affected(res)
}

func (s *SQLiteStore) Delete(ctx context.Context, collection, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return err
	}
	return affected(res)
}

func (s *SQLiteStore) EnsureIndexes(ctx context.Context, collection string, fields ...string) error {
	if err := checkField(collection); err != nil {
		return err
	}
	for _, f := range fields {
		if err := checkField(f); err != nil {
			return err
		}
		stmt := fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS idx_%s_%s ON documents (collection, json_extract(body, '$.%s'))`,
			collection, f, f)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("index %s.%s: %w", collection, f, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func sqliteWhere(collection string, where map[string]any) (string, []any) {
	clauses := []string{`collection = ?`}
	args := []any{collection}
	for _, k := range sortedKeys(where) {
		clauses = append(clauses, `json_extract(body, ?) = ?`)
		args = append(args, "$."+k, where[k])
	}
	return strings.Join(clauses, " AND "), args
}

func affected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func decodeBody(body string) (Document, error) {
	var doc Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}
