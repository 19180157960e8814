package repository

import (
	"encoding/json"
	"fmt"

	"github.com/parisxmas/formcraft/internal/docstore"
)

// toDoc converts a model into its stored document shape.
func toDoc(v any) (docstore.Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, err)
	}
	var doc docstore.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal %T doc: %w", v, err)
	}
	return doc, nil
}

// fromDoc decodes a stored document into a model.
func fromDoc[T any](doc docstore.Document) (*T, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal doc: %w", err)
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unmarshal %T: %w", v, err)
	}
	return &v, nil
}

// fromDocs decodes every document, skipping ones that no longer match the
// model shape.
func fromDocs[T any](docs []docstore.Document) []T {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := fromDoc[T](d)
		if err != nil {
			continue
		}
		out = append(out, *v)
	}
	return out
}
