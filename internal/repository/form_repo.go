package repository

import (
	"context"
	"errors"

	"github.com/parisxmas/formcraft/internal/docstore"
	"github.com/parisxmas/formcraft/internal/errorz"
	"github.com/parisxmas/formcraft/internal/models"
)

const FormsCollection = "forms"

type FormRepo struct {
	store docstore.Store
}

func NewFormRepo(store docstore.Store) *FormRepo {
	return &FormRepo{store: store}
}

func (r *FormRepo) EnsureIndexes(ctx context.Context) error {
	return r.store.EnsureIndexes(ctx, FormsCollection, "userId", "status", "updatedAt")
}

func (r *FormRepo) Create(ctx context.Context, form *models.Form) (string, error) {
	if !form.Status.Valid() {
		return "", errorz.Newf(errorz.ErrInvalid, "invalid status %q", form.Status)
	}
	doc, err := toDoc(form)
	if err != nil {
		return "", err
	}
	delete(doc, docstore.IDField)
	return r.store.Insert(ctx, FormsCollection, doc)
}

// FindByID returns nil, nil when the form does not exist.
func (r *FormRepo) FindByID(ctx context.Context, id string) (*models.Form, error) {
	doc, err := r.FindDoc(ctx, id)
	if err != nil || doc == nil {
		return nil, err
	}
	return fromDoc[models.Form](doc)
}

// FindDoc returns the raw stored document, or nil when it does not exist.
func (r *FormRepo) FindDoc(ctx context.Context, id string) (docstore.Document, error) {
	doc, err := r.store.Get(ctx, FormsCollection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	return doc, err
}

// FindByUser lists a user's forms, most recently updated first.
func (r *FormRepo) FindByUser(ctx context.Context, userID string) ([]models.Form, error) {
	docs, err := r.store.Find(ctx, FormsCollection, docstore.Query{
		Where:  map[string]any{"userId": userID},
		SortBy: "updatedAt",
		Desc:   true,
	})
	if err != nil {
		return nil, err
	}
	return fromDocs[models.Form](docs), nil
}

// Update sets top-level properties of a stored form. The status, when
// present, must be valid; the response counter is never written here.
func (r *FormRepo) Update(ctx context.Context, id string, set docstore.Document) error {
	if s, ok := set["status"]; ok {
		str, _ := s.(string)
		if !models.FormStatus(str).Valid() {
			return errorz.Newf(errorz.ErrInvalid, "invalid status %v", s)
		}
	}
	clean := make(docstore.Document, len(set))
	for k, v := range set {
		switch k {
		case docstore.IDField, "responseCount":
			continue
		}
		clean[k] = v
	}
	return r.store.Update(ctx, FormsCollection, id, clean)
}

// AddResponses moves the response counter by delta, never below zero.
func (r *FormRepo) AddResponses(ctx context.Context, id string, delta int) error {
	return r.store.Increment(ctx, FormsCollection, id, "responseCount", delta)
}

func (r *FormRepo) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, FormsCollection, id)
}
