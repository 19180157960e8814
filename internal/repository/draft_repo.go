package repository

import (
	"context"
	"errors"

	"github.com/parisxmas/formcraft/internal/docstore"
	"github.com/parisxmas/formcraft/internal/models"
)

const DraftsCollection = "drafts"

// DraftStore keeps one draft per composite draft id. Delete of a missing
// draft is not an error.
type DraftStore interface {
	Get(ctx context.Context, id string) (models.Draft, bool, error)
	Set(ctx context.Context, draft models.Draft) error
	Delete(ctx context.Context, id string) error
}

type DocDraftRepo struct {
	store docstore.Store
}

var _ DraftStore = (*DocDraftRepo)(nil)

func NewDocDraftRepo(store docstore.Store) *DocDraftRepo {
	return &DocDraftRepo{store: store}
}

func (r *DocDraftRepo) EnsureIndexes(ctx context.Context) error {
	return r.store.EnsureIndexes(ctx, DraftsCollection, "formId")
}

func (r *DocDraftRepo) Get(ctx context.Context, id string) (models.Draft, bool, error) {
	doc, err := r.store.Get(ctx, DraftsCollection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return models.Draft{}, false, nil
	}
	if err != nil {
		return models.Draft{}, false, err
	}
	d, err := fromDoc[models.Draft](doc)
	if err != nil {
		return models.Draft{}, false, err
	}
	return *d, true, nil
}

func (r *DocDraftRepo) Set(ctx context.Context, draft models.Draft) error {
	doc, err := toDoc(draft)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, DraftsCollection, draft.ID, doc)
}

func (r *DocDraftRepo) Delete(ctx context.Context, id string) error {
	err := r.store.Delete(ctx, DraftsCollection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil
	}
	return err
}
