package fieldtypes

import (
	"encoding/json"
	"fmt"

	"github.com/parisxmas/formcraft/internal/models"
)

// NewField builds a field of the given kind prefilled with the kind's
// default configuration.
func NewField(id string, kind models.FieldKind) (models.Field, error) {
	ft, ok := GetFieldTypeByID(kind)
	if !ok {
		return models.Field{}, fmt.Errorf("unknown field type %q", kind)
	}
	data, err := json.Marshal(ft.DefaultConfig)
	if err != nil {
		return models.Field{}, fmt.Errorf("encode default config: %w", err)
	}
	var f models.Field
	if err := json.Unmarshal(data, &f); err != nil {
		return models.Field{}, fmt.Errorf("decode default config: %w", err)
	}
	f.ID = id
	f.Type = kind
	return f, nil
}
