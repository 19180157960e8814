package docstore

import (
	"context"
	"fmt"

	"github.com/parisxmas/formcraft/internal/db"
	"github.com/parisxmas/formcraft/internal/oxidb"
)

// collectionPrefix keeps FormCraft collections apart from other tenants of
// the same OxiDB server.
const collectionPrefix = "_fc_"

// OxiStore maps documents onto an OxiDB server. OxiDB assigns its own
// numeric _id; documents are addressed by their string "id" property, which
// carries a unique index.
type OxiStore struct {
	pool *db.Pool
}

func NewOxiStore(pool *db.Pool) *OxiStore {
	return &OxiStore{pool: pool}
}

func (s *OxiStore) Insert(ctx context.Context, collection string, doc Document) (string, error) {
	id := NewID()
	if _, err := s.pool.Get().Insert(ctx, oxiName(collection), withID(doc, id)); err != nil {
		return "", err
	}
	return id, nil
}

func (s *OxiStore) Put(ctx context.Context, collection, id string, doc Document) error {
	c := s.pool.Get()
	name := oxiName(collection)
	n, err := c.Count(ctx, name, byID(id))
	if err != nil {
		return err
	}
	if n > 0 {
		// replace, not merge: properties absent from doc must go
		if _, err := c.DeleteOne(ctx, name, byID(id)); err != nil {
			return err
		}
	}
	_, err = c.Insert(ctx, name, withID(doc, id))
	return err
}

func (s *OxiStore) Get(ctx context.Context, collection, id string) (Document, error) {
	doc, err := s.pool.Get().FindOne(ctx, oxiName(collection), byID(id))
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return stripInternalID(doc), nil
}

func (s *OxiStore) Find(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := checkQuery(q); err != nil {
		return nil, err
	}
	query := map[string]any{}
	for k, v := range q.Where {
		query[k] = v
	}
	opts := &oxidb.FindOptions{}
	if q.SortBy != "" {
		dir := 1
		if q.Desc {
			dir = -1
		}
		opts.Sort = map[string]any{q.SortBy: dir}
	}
	if q.Skip > 0 {
		opts.Skip = &q.Skip
	}
	if q.Limit > 0 {
		opts.Limit = &q.Limit
	}
	docs, err := s.pool.Get().Find(ctx, oxiName(collection), query, opts)
	if err != nil {
		return nil, err
	}
	for i := range docs {
		docs[i] = stripInternalID(docs[i])
	}
	return docs, nil
}

func (s *OxiStore) Count(ctx context.Context, collection string, where map[string]any) (int, error) {
	if err := checkQuery(Query{Where: where}); err != nil {
		return 0, err
	}
	if where == nil {
		where = map[string]any{}
	}
	return s.pool.Get().Count(ctx, oxiName(collection), where)
}

func (s *OxiStore) Update(ctx context.Context, collection, id string, set Document) error {
	c := s.pool.Get()
	name := oxiName(collection)
	if err := s.mustExist(ctx, c, name, id); err != nil {
		return err
	}
	_, err := c.UpdateOne(ctx, name, byID(id), map[string]any{"$set": withID(set, id)})
	return err
}

// Increment uses $inc for positive deltas. Negative deltas read, clamp and
// set, since the server has no floor operator.
func (s *OxiStore) Increment(ctx context.Context, collection, id, field string, delta int) error {
	if err := checkField(field); err != nil {
		return err
	}
	c := s.pool.Get()
	name := oxiName(collection)
	doc, err := c.FindOne(ctx, name, byID(id))
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrNotFound
	}
	if delta >= 0 {
		_, err = c.UpdateOne(ctx, name, byID(id), map[string]any{"$inc": map[string]any{field: delta}})
		return err
	}
	cur, _ := doc[field].(float64)
	next := int(cur) + delta
	if next < 0 {
		next = 0
	}
	_, err = c.UpdateOne(ctx, name, byID(id), map[string]any{"$set": map[string]any{field: next}})
	return err
}

func (s *OxiStore) Delete(ctx context.Context, collection, id string) error {
	c := s.pool.Get()
	name := oxiName(collection)
	if err := s.mustExist(ctx, c, name, id); err != nil {
		return err
	}
	_, err := c.DeleteOne(ctx, name, byID(id))
	return err
}

func (s *OxiStore) EnsureIndexes(ctx context.Context, collection string, fields ...string) error {
	c := s.pool.Get()
	name := oxiName(collection)
	if err := c.CreateUniqueIndex(ctx, name, IDField); err != nil {
		return fmt.Errorf("index %s.%s: %w", collection, IDField, err)
	}
	for _, f := range fields {
		if err := checkField(f); err != nil {
			return err
		}
		if err := c.CreateIndex(ctx, name, f); err != nil {
			return fmt.Errorf("index %s.%s: %w", collection, f, err)
		}
	}
	return nil
}

func (s *OxiStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *OxiStore) mustExist(ctx context.Context, c *oxidb.Client, name, id string) error {
	n, err := c.Count(ctx, name, byID(id))
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func oxiName(collection string) string { return collectionPrefix + collection }

func byID(id string) map[string]any { return map[string]any{IDField: id} }

// stripInternalID drops OxiDB's numeric _id; the string id property is the
// document identity.
func stripInternalID(doc map[string]any) Document {
	delete(doc, "_id")
	return doc
}
