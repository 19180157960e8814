package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/parisxmas/formcraft/internal/fieldtypes"
	"github.com/parisxmas/formcraft/internal/models"
)

// ListFieldTypes returns the registry, optionally narrowed to ?category=.
func ListFieldTypes(w http.ResponseWriter, r *http.Request) {
	types := fieldtypes.GetAllFieldTypes()
	if c := r.URL.Query().Get("category"); c != "" {
		types = fieldtypes.GetFieldsByCategory(c)
	}
	writeJSON(w, http.StatusOK, map[string]any{"fieldTypes": types, "categories": fieldtypes.Categories()})
}

func GetFieldType(w http.ResponseWriter, r *http.Request) {
	ft, ok := fieldtypes.GetFieldTypeByID(models.FieldKind(chi.URLParam(r, "typeId")))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown field type")
		return
	}
	writeJSON(w, http.StatusOK, ft)
}

// NewField returns a field of the requested type with a fresh id and the
// type's default configuration, ready to append to a form.
func NewField(w http.ResponseWriter, r *http.Request) {
	f, err := fieldtypes.NewField("field_"+uuid.NewString()[:8], models.FieldKind(chi.URLParam(r, "typeId")))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown field type")
		return
	}
	writeJSON(w, http.StatusOK, f)
}
