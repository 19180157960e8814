package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parisxmas/formcraft/internal/docstore"
	"github.com/parisxmas/formcraft/internal/errorz"
	"github.com/parisxmas/formcraft/internal/models"
)

func newStore(t *testing.T) docstore.Store {
	t.Helper()
	s, err := docstore.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestFormRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewFormRepo(newStore(t))
	require.NoError(t, repo.EnsureIndexes(ctx))

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	older := &models.Form{UserID: "u1", Title: "Older", Status: models.StatusDraft, UpdatedAt: models.NewTimestamp(base)}
	newer := &models.Form{UserID: "u1", Title: "Newer", Status: models.StatusPublished, UpdatedAt: models.NewTimestamp(base.Add(time.Hour))}
	other := &models.Form{UserID: "u2", Title: "Other", Status: models.StatusDraft}

	olderID, err := repo.Create(ctx, older)
	require.NoError(t, err)
	_, err = repo.Create(ctx, newer)
	require.NoError(t, err)
	_, err = repo.Create(ctx, other)
	require.NoError(t, err)

	forms, err := repo.FindByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, forms, 2)
	assert.Equal(t, "Newer", forms[0].Title)
	assert.Equal(t, "Older", forms[1].Title)
	assert.NotEmpty(t, forms[0].ID)

	t.Run("invalid status rejected", func(t *testing.T) {
		_, err := repo.Create(ctx, &models.Form{UserID: "u1", Status: "deleted"})
		assert.ErrorIs(t, err, errorz.ErrInvalid)
		err = repo.Update(ctx, olderID, docstore.Document{"status": "deleted"})
		assert.ErrorIs(t, err, errorz.ErrInvalid)
	})

	t.Run("update ignores counter and id", func(t *testing.T) {
		require.NoError(t, repo.Update(ctx, olderID, docstore.Document{
			"title": "Renamed", "responseCount": 99, "id": "hijack",
		}))
		f, err := repo.FindByID(ctx, olderID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", f.Title)
		assert.Equal(t, 0, f.ResponseCount)
		assert.Equal(t, olderID, f.ID)
	})

	t.Run("response counter", func(t *testing.T) {
		require.NoError(t, repo.AddResponses(ctx, olderID, 1))
		require.NoError(t, repo.AddResponses(ctx, olderID, -3))
		f, err := repo.FindByID(ctx, olderID)
		require.NoError(t, err)
		assert.Equal(t, 0, f.ResponseCount)
	})

	t.Run("missing", func(t *testing.T) {
		f, err := repo.FindByID(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, f)
		assert.ErrorIs(t, repo.Update(ctx, "nope", docstore.Document{"title": "x"}), errorz.ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, "nope"), errorz.ErrNotFound)
	})
}

func TestResponseRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewResponseRepo(newStore(t))
	require.NoError(t, repo.EnsureIndexes(ctx))

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		_, err := repo.Create(ctx, &models.Response{
			FormID:      "f1",
			Answers:     map[string]any{"q1": i},
			Metadata:    models.ResponseMetadata{UserID: "u1"},
			SubmittedAt: models.NewTimestamp(base.Add(time.Duration(i) * time.Minute)),
		})
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, &models.Response{FormID: "f2", Answers: map[string]any{}})
	require.NoError(t, err)

	page, total, err := repo.FindByFormID(ctx, "f1", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.EqualValues(t, 3, page[0].Answers["q1"])
	assert.EqualValues(t, 2, page[1].Answers["q1"])

	n, err := repo.CountByRespondent(ctx, "f1", "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	n, err = repo.CountByRespondent(ctx, "f2", "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := repo.FindByID(ctx, page[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "f1", got.FormID)
	assert.Equal(t, "u1", got.Metadata.UserID)

	require.NoError(t, repo.Delete(ctx, page[0].ID))
	got, err = repo.FindByID(ctx, page[0].ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUploadRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewUploadRepo(newStore(t))

	id, err := repo.Create(ctx, &models.Upload{
		FormID: "f1", FieldID: "cv", FileName: "cv.pdf",
		ContentType: "application/pdf", Size: 4, Content: []byte("%PDF"),
	})
	require.NoError(t, err)

	up, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), up.Content)
	assert.Equal(t, id, up.ID)
}

func TestDocDraftRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewDocDraftRepo(newStore(t))
	id := models.DraftID("f1", "")

	_, ok, err := repo.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.Set(ctx, models.Draft{ID: id, FormID: "f1", UserID: models.AnonymousUser, Data: map[string]any{"q": "a"}}))
	require.NoError(t, repo.Set(ctx, models.Draft{ID: id, FormID: "f1", UserID: models.AnonymousUser, Data: map[string]any{"q": "b"}}))

	d, ok, err := repo.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", d.Data["q"])

	require.NoError(t, repo.Delete(ctx, id))
	require.NoError(t, repo.Delete(ctx, id))
	_, ok, err = repo.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}
