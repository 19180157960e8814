package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parisxmas/formcraft/internal/docstore"
	"github.com/parisxmas/formcraft/internal/models"
	"github.com/parisxmas/formcraft/internal/repository"
)

var fixedNow = time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	forms     *FormService
	drafts    *DraftService
	responses *ResponseService
	uploads   *UploadService
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := docstore.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	formRepo := repository.NewFormRepo(store)
	drafts := NewDraftService(repository.NewDocDraftRepo(store), zap.NewNop())
	env := &testEnv{
		forms:     NewFormService(formRepo),
		drafts:    drafts,
		responses: NewResponseService(repository.NewResponseRepo(store), formRepo, repository.NewUploadRepo(store), drafts, zap.NewNop()),
		uploads:   NewUploadService(repository.NewUploadRepo(store), formRepo),
	}
	clock := func() time.Time { return fixedNow }
	env.forms.now = clock
	env.drafts.now = clock
	env.responses.now = clock
	env.uploads.now = clock
	return env
}

// publishedForm creates and publishes a form owned by owner.
func (e *testEnv) publishedForm(t *testing.T, owner string, data map[string]any) *models.Form {
	t.Helper()
	ctx := context.Background()
	id, err := e.forms.CreateForm(ctx, owner, data)
	require.NoError(t, err)
	form, err := e.forms.PublishForm(ctx, id)
	require.NoError(t, err)
	return form
}

// memDrafts is an in-memory DraftStore that counts writes.
type memDrafts struct {
	mu   sync.Mutex
	m    map[string]models.Draft
	sets int
	err  error
}

func newMemDrafts() *memDrafts {
	return &memDrafts{m: map[string]models.Draft{}}
}

func (s *memDrafts) Get(_ context.Context, id string) (models.Draft, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return models.Draft{}, false, s.err
	}
	d, ok := s.m[id]
	return d, ok, nil
}

func (s *memDrafts) Set(_ context.Context, d models.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sets++
	s.m[d.ID] = d
	return nil
}

func (s *memDrafts) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	delete(s.m, id)
	return nil
}

func (s *memDrafts) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets
}

func (s *memDrafts) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = errors.New("store unavailable")
}
