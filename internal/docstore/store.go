// Package docstore is the document-database boundary. Documents are JSON
// objects keyed by an opaque string id kept in their "id" property; every
// backend assigns ids with uuid on Insert and accepts caller ids on Put.
package docstore

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/google/uuid"

	"github.com/parisxmas/formcraft/internal/errorz"
)

const IDField = "id"

var ErrNotFound = fmt.Errorf("docstore: document %w", errorz.ErrNotFound)

type Document = map[string]any

// Query selects documents by top-level equality and orders them by one
// top-level property. Limit <= 0 means no limit.
type Query struct {
	Where  map[string]any
	SortBy string
	Desc   bool
	Skip   int
	Limit  int
}

// Store is implemented by every database backend.
type Store interface {
	// Insert stores doc under a new id and returns it.
	Insert(ctx context.Context, collection string, doc Document) (string, error)
	// Put creates or replaces the document with the given id.
	Put(ctx context.Context, collection, id string, doc Document) error
	// Get returns ErrNotFound when no document has the id.
	Get(ctx context.Context, collection, id string) (Document, error)
	Find(ctx context.Context, collection string, q Query) ([]Document, error)
	Count(ctx context.Context, collection string, where map[string]any) (int, error)
	// Update sets the given top-level properties; ErrNotFound when missing.
	Update(ctx context.Context, collection, id string, set Document) error
	// Increment adds delta to a numeric property, clamping at zero.
	Increment(ctx context.Context, collection, id, field string, delta int) error
	// Delete returns ErrNotFound when no document has the id.
	Delete(ctx context.Context, collection, id string) error
	// EnsureIndexes prepares lookups on the given properties.
	EnsureIndexes(ctx context.Context, collection string, fields ...string) error
	Close() error
}

func NewID() string { return uuid.NewString() }

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// checkField rejects property names that could not be embedded in a query
// path.
func checkField(name string) error {
	if !fieldName.MatchString(name) {
		return fmt.Errorf("docstore: invalid field name %q", name)
	}
	return nil
}

func checkQuery(q Query) error {
	for k := range q.Where {
		if err := checkField(k); err != nil {
			return err
		}
	}
	if q.SortBy != "" {
		return checkField(q.SortBy)
	}
	return nil
}

// withID returns a shallow copy of doc carrying id.
func withID(doc Document, id string) Document {
	out := make(Document, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	out[IDField] = id
	return out
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
