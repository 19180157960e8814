package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps documents as JSONB rows of a single table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	const stmt = `CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id         TEXT NOT NULL,
		body       JSONB NOT NULL,
		PRIMARY KEY (collection, id)
	);`
	if _, err := s.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

func (s *PostgresStore) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	id := NewID()
	body, err := json.Marshal(withID(doc, id))
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3::jsonb)`, collection, id, string(body))
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *PostgresStore) Put(ctx context.Context, collection, id string, doc Document) error {
	body, err := json.Marshal(withID(doc, id))
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (collection, id, body) VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (collection, id) DO UPDATE SET body = EXCLUDED.body`,
		collection, id, string(body))
	return err
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var body []byte
	err := s.pool.QueryRow(ctx,
		`SELECT body FROM documents WHERE collection = $1 AND id = $2`, collection, id).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeBody(string(body))
}

func (s *PostgresStore) Find(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := checkQuery(q); err != nil {
		return nil, err
	}
	where, args := postgresWhere(collection, q.Where)
	var b strings.Builder
	b.WriteString(`SELECT body FROM documents WHERE `)
	b.WriteString(where)
	if q.SortBy != "" {
		args = append(args, q.SortBy)
		fmt.Fprintf(&b, ` ORDER BY body->$%d::text`, len(args))
		if q.Desc {
			b.WriteString(` DESC NULLS LAST`)
		}
	}
	if q.Limit > 0 {
		args = append(args, q.Limit)
		fmt.Fprintf(&b, ` LIMIT $%d`, len(args))
	}
	if q.Skip > 0 {
		args = append(args, q.Skip)
		fmt.Fprintf(&b, ` OFFSET $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		doc, err := decodeBody(string(body))
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context, collection string, where map[string]any) (int, error) {
	if err := checkQuery(Query{Where: where}); err != nil {
		return 0, err
	}
	clause, args := postgresWhere(collection, where)
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM documents WHERE `+clause, args...).Scan(&n)
	return n, err
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, set Document) error {
	patch := withID(set, id)
	body, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET body = body || $1::jsonb WHERE collection = $2 AND id = $3`,
		string(body), collection, id)
	return rowsTouched(tag, err)
}

func (s *PostgresStore) Increment(ctx context.Context, collection, id, field string, delta int) error {
	if err := checkField(field); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents
		 SET body = jsonb_set(body, ARRAY[$1::text],
		     to_jsonb(GREATEST(0, COALESCE((body->>$1::text)::numeric, 0) + $2::int)))
		 WHERE collection = $3 AND id = $4`,
		field, delta, collection, id)
	return rowsTouched(tag, err)
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	return rowsTouched(tag, err)
}

func (s *PostgresStore) EnsureIndexes(ctx context.Context, collection string, fields ...string) error {
	if err := checkField(collection); err != nil {
		return err
	}
	for _, f := range fields {
		if err := checkField(f); err != nil {
			return err
		}
		stmt := fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS idx_%s_%s ON documents (collection, (body->>'%s'))`,
			collection, f, f)
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("index %s.%s: %w", collection, f, err)
		}
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func postgresWhere(collection string, where map[string]any) (string, []any) {
	clauses := []string{`collection = $1`}
	args := []any{collection}
	for _, k := range sortedKeys(where) {
		args = append(args, k, textValue(where[k]))
		clauses = append(clauses, fmt.Sprintf(`body->>$%d::text = $%d`, len(args)-1, len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

// textValue renders v the way ->> renders the stored JSON value.
func textValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	}
	return fmt.Sprint(v)
}

func rowsTouched(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
