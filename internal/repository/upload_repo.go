package repository

import (
	"context"
	"errors"

	"github.com/parisxmas/formcraft/internal/docstore"
	"github.com/parisxmas/formcraft/internal/models"
)

const UploadsCollection = "uploads"

type UploadRepo struct {
	store docstore.Store
}

func NewUploadRepo(store docstore.Store) *UploadRepo {
	return &UploadRepo{store: store}
}

func (r *UploadRepo) EnsureIndexes(ctx context.Context) error {
	return r.store.EnsureIndexes(ctx, UploadsCollection, "formId")
}

func (r *UploadRepo) Create(ctx context.Context, up *models.Upload) (string, error) {
	doc, err := toDoc(up)
	if err != nil {
		return "", err
	}
	delete(doc, docstore.IDField)
	return r.store.Insert(ctx, UploadsCollection, doc)
}

// FindByID returns nil, nil when the upload does not exist.
func (r *UploadRepo) FindByID(ctx context.Context, id string) (*models.Upload, error) {
	doc, err := r.store.Get(ctx, UploadsCollection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fromDoc[models.Upload](doc)
}

func (r *UploadRepo) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, UploadsCollection, id)
}
