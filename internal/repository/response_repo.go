package repository

import (
	"context"
	"errors"

	"github.com/parisxmas/formcraft/internal/docstore"
	"github.com/parisxmas/formcraft/internal/models"
)

const ResponsesCollection = "responses"

// respondentField mirrors metadata.userId at the top level so it can be
// queried.
const respondentField = "respondentId"

type ResponseRepo struct {
	store docstore.Store
}

func NewResponseRepo(store docstore.Store) *ResponseRepo {
	return &ResponseRepo{store: store}
}

func (r *ResponseRepo) EnsureIndexes(ctx context.Context) error {
	return r.store.EnsureIndexes(ctx, ResponsesCollection, "formId", "submittedAt", respondentField)
}

func (r *ResponseRepo) Create(ctx context.Context, resp *models.Response) (string, error) {
	doc, err := toDoc(resp)
	if err != nil {
		return "", err
	}
	delete(doc, docstore.IDField)
	if resp.Metadata.UserID != "" {
		doc[respondentField] = resp.Metadata.UserID
	}
	return r.store.Insert(ctx, ResponsesCollection, doc)
}

// FindByFormID returns one page of a form's responses, newest first, and
// the total count. limit <= 0 returns every response after skip.
func (r *ResponseRepo) FindByFormID(ctx context.Context, formID string, skip, limit int) ([]models.Response, int, error) {
	where := map[string]any{"formId": formID}
	total, err := r.store.Count(ctx, ResponsesCollection, where)
	if err != nil {
		return nil, 0, err
	}
	docs, err := r.store.Find(ctx, ResponsesCollection, docstore.Query{
		Where:  where,
		SortBy: "submittedAt",
		Desc:   true,
		Skip:   skip,
		Limit:  limit,
	})
	if err != nil {
		return nil, 0, err
	}
	return fromDocs[models.Response](docs), total, nil
}

// FindByID returns nil, nil when the response does not exist.
func (r *ResponseRepo) FindByID(ctx context.Context, id string) (*models.Response, error) {
	doc, err := r.store.Get(ctx, ResponsesCollection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return fromDoc[models.Response](doc)
}

func (r *ResponseRepo) CountByRespondent(ctx context.Context, formID, userID string) (int, error) {
	return r.store.Count(ctx, ResponsesCollection, map[string]any{"formId": formID, respondentField: userID})
}

func (r *ResponseRepo) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, ResponsesCollection, id)
}
