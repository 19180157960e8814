package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreSuite exercises the Store contract against one backend.
func runStoreSuite(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("insert and get", func(t *testing.T) {
		id, err := s.Insert(ctx, "forms", Document{"title": "One", "userId": "u1"})
		require.NoError(t, err)
		require.NotEmpty(t, id)

		doc, err := s.Get(ctx, "forms", id)
		require.NoError(t, err)
		assert.Equal(t, id, doc[IDField])
		assert.Equal(t, "One", doc["title"])
	})

	t.Run("get missing", func(t *testing.T) {
		_, err := s.Get(ctx, "forms", "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("find filters and sorts", func(t *testing.T) {
		for _, d := range []Document{
			{"userId": "sorter", "updatedAt": "2024-01-01T00:00:00.000Z", "title": "a"},
			{"userId": "sorter", "updatedAt": "2024-06-01T00:00:00.000Z", "title": "b"},
			{"userId": "sorter", "updatedAt": nil, "title": "c"},
			{"userId": "other", "updatedAt": "2025-01-01T00:00:00.000Z", "title": "x"},
		} {
			_, err := s.Insert(ctx, "sorted", d)
			require.NoError(t, err)
		}
		docs, err := s.Find(ctx, "sorted", Query{Where: map[string]any{"userId": "sorter"}, SortBy: "updatedAt", Desc: true})
		require.NoError(t, err)
		require.Len(t, docs, 3)
		assert.Equal(t, "b", docs[0]["title"])
		assert.Equal(t, "a", docs[1]["title"])
		assert.Equal(t, "c", docs[2]["title"])

		page, err := s.Find(ctx, "sorted", Query{Where: map[string]any{"userId": "sorter"}, SortBy: "updatedAt", Desc: true, Skip: 1, Limit: 1})
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "a", page[0]["title"])

		n, err := s.Count(ctx, "sorted", map[string]any{"userId": "sorter"})
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})

	t.Run("find rejects unsafe field names", func(t *testing.T) {
		_, err := s.Find(ctx, "sorted", Query{Where: map[string]any{"a') OR 1=1 --": "x"}})
		assert.Error(t, err)
	})

	t.Run("put upserts", func(t *testing.T) {
		require.NoError(t, s.Put(ctx, "drafts", "f1_u1", Document{"data": map[string]any{"q": "v1"}}))
		require.NoError(t, s.Put(ctx, "drafts", "f1_u1", Document{"data": map[string]any{"q": "v2"}}))
		doc, err := s.Get(ctx, "drafts", "f1_u1")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"q": "v2"}, doc["data"])
		n, err := s.Count(ctx, "drafts", nil)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("update sets properties", func(t *testing.T) {
		id, err := s.Insert(ctx, "forms", Document{"title": "Before", "status": "draft"})
		require.NoError(t, err)
		require.NoError(t, s.Update(ctx, "forms", id, Document{"status": "published"}))
		doc, err := s.Get(ctx, "forms", id)
		require.NoError(t, err)
		assert.Equal(t, "Before", doc["title"])
		assert.Equal(t, "published", doc["status"])

		assert.ErrorIs(t, s.Update(ctx, "forms", "missing", Document{"a": 1}), ErrNotFound)
	})

	t.Run("increment clamps at zero", func(t *testing.T) {
		id, err := s.Insert(ctx, "forms", Document{"responseCount": 0})
		require.NoError(t, err)
		require.NoError(t, s.Increment(ctx, "forms", id, "responseCount", 1))
		require.NoError(t, s.Increment(ctx, "forms", id, "responseCount", 1))
		require.NoError(t, s.Increment(ctx, "forms", id, "responseCount", -5))
		doc, err := s.Get(ctx, "forms", id)
		require.NoError(t, err)
		assert.EqualValues(t, 0, doc["responseCount"])

		require.NoError(t, s.Increment(ctx, "forms", id, "responseCount", 2))
		doc, err = s.Get(ctx, "forms", id)
		require.NoError(t, err)
		assert.EqualValues(t, 2, doc["responseCount"])

		assert.ErrorIs(t, s.Increment(ctx, "forms", "missing", "responseCount", 1), ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		id, err := s.Insert(ctx, "forms", Document{"title": "gone"})
		require.NoError(t, err)
		require.NoError(t, s.Delete(ctx, "forms", id))
		_, err = s.Get(ctx, "forms", id)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, "forms", id), ErrNotFound)
	})

	t.Run("indexes", func(t *testing.T) {
		require.NoError(t, s.EnsureIndexes(ctx, "forms", "userId", "updatedAt"))
		assert.Error(t, s.EnsureIndexes(ctx, "forms", "bad field"))
	})
}
