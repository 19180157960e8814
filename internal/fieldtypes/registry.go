// Package fieldtypes is the static catalog of field types a form can use.
package fieldtypes

import (
	"maps"

	"github.com/parisxmas/formcraft/internal/models"
)

const (
	CategoryBasic    = "basic"
	CategoryChoice   = "choice"
	CategoryDateTime = "datetime"
	CategoryAdvanced = "advanced"
	CategoryLayout   = "layout"
)

// FieldType describes one entry of the catalog. DefaultConfig is merged into
// new fields of this type.
type FieldType struct {
	ID            models.FieldKind `json:"id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Icon          string           `json:"icon"`
	Category      string           `json:"category"`
	DefaultConfig map[string]any   `json:"defaultConfig"`
}

var categories = []string{CategoryBasic, CategoryChoice, CategoryDateTime, CategoryAdvanced, CategoryLayout}

var registry = []FieldType{
	{
		ID: models.KindShortText, Name: "Short Text", Icon: "type", Category: CategoryBasic,
		Description:   "Single line text input",
		DefaultConfig: map[string]any{"label": "Short answer", "placeholder": "Enter your answer", "maxLength": 255},
	},
	{
		ID: models.KindLongText, Name: "Long Text", Icon: "align-left", Category: CategoryBasic,
		Description:   "Multi-line text area",
		DefaultConfig: map[string]any{"label": "Long answer", "placeholder": "Enter your answer", "maxLength": 5000},
	},
	{
		ID: models.KindEmail, Name: "Email", Icon: "mail", Category: CategoryBasic,
		Description:   "Email address with format validation",
		DefaultConfig: map[string]any{"label": "Email address", "placeholder": "name@example.com"},
	},
	{
		ID: models.KindPhone, Name: "Phone", Icon: "phone", Category: CategoryBasic,
		Description:   "Phone number",
		DefaultConfig: map[string]any{"label": "Phone number", "placeholder": "+1 (555) 000-0000"},
	},
	{
		ID: models.KindURL, Name: "Website", Icon: "link", Category: CategoryBasic,
		Description:   "Web address",
		DefaultConfig: map[string]any{"label": "Website", "placeholder": "https://"},
	},
	{
		ID: models.KindNumber, Name: "Number", Icon: "hash", Category: CategoryBasic,
		Description:   "Numeric input with optional bounds",
		DefaultConfig: map[string]any{"label": "Number", "placeholder": "0"},
	},
	{
		ID: models.KindSingleChoice, Name: "Single Choice", Icon: "circle-dot", Category: CategoryChoice,
		Description:   "Pick one option",
		DefaultConfig: map[string]any{"label": "Choose one", "options": []string{"Option 1", "Option 2", "Option 3"}},
	},
	{
		ID: models.KindMultipleChoice, Name: "Multiple Choice", Icon: "check-square", Category: CategoryChoice,
		Description:   "Pick any number of options",
		DefaultConfig: map[string]any{"label": "Choose all that apply", "options": []string{"Option 1", "Option 2", "Option 3"}},
	},
	{
		ID: models.KindDropdown, Name: "Dropdown", Icon: "chevron-down", Category: CategoryChoice,
		Description:   "Pick one option from a list",
		DefaultConfig: map[string]any{"label": "Select an option", "options": []string{"Option 1", "Option 2", "Option 3"}},
	},
	{
		ID: models.KindDate, Name: "Date", Icon: "calendar", Category: CategoryDateTime,
		Description:   "Calendar date",
		DefaultConfig: map[string]any{"label": "Date"},
	},
	{
		ID: models.KindTime, Name: "Time", Icon: "clock", Category: CategoryDateTime,
		Description:   "Time of day",
		DefaultConfig: map[string]any{"label": "Time"},
	},
	{
		ID: models.KindRating, Name: "Rating", Icon: "star", Category: CategoryAdvanced,
		Description:   "Star rating",
		DefaultConfig: map[string]any{"label": "Rating", "maxRating": 5},
	},
	{
		ID: models.KindScale, Name: "Linear Scale", Icon: "sliders", Category: CategoryAdvanced,
		Description: "Numbered scale between two labels",
		DefaultConfig: map[string]any{
			"label": "Scale", "scaleMin": 1, "scaleMax": 10,
			"scaleMinLabel": "Not likely", "scaleMaxLabel": "Very likely",
		},
	},
	{
		ID: models.KindFileUpload, Name: "File Upload", Icon: "upload", Category: CategoryAdvanced,
		Description: "Attach a file",
		DefaultConfig: map[string]any{
			"label": "Upload a file", "maxFileSizeMB": 10,
			"allowedFileTypes": []string{".pdf", ".png", ".jpg", ".jpeg", ".doc", ".docx"},
		},
	},
	{
		ID: models.KindSectionHeading, Name: "Section Heading", Icon: "heading", Category: CategoryLayout,
		Description:   "Title that groups the fields below it",
		DefaultConfig: map[string]any{"label": "Section title"},
	},
	{
		ID: models.KindDescriptionText, Name: "Description", Icon: "text", Category: CategoryLayout,
		Description:   "Paragraph of explanatory text",
		DefaultConfig: map[string]any{"label": "Description", "content": "Add some context for respondents."},
	},
	{
		ID: models.KindDivider, Name: "Divider", Icon: "minus", Category: CategoryLayout,
		Description:   "Horizontal rule between fields",
		DefaultConfig: map[string]any{},
	},
}

// GetFieldTypeByID returns the entry for id, or false for unknown ids.
func GetFieldTypeByID(id models.FieldKind) (FieldType, bool) {
	for _, ft := range registry {
		if ft.ID == id {
			return ft.clone(), true
		}
	}
	return FieldType{}, false
}

// GetFieldsByCategory returns the entries of category in declaration order.
func GetFieldsByCategory(category string) []FieldType {
	out := []FieldType{}
	for _, ft := range registry {
		if ft.Category == category {
			out = append(out, ft.clone())
		}
	}
	return out
}

func GetAllFieldTypes() []FieldType {
	out := make([]FieldType, len(registry))
	for i, ft := range registry {
		out[i] = ft.clone()
	}
	return out
}

func Categories() []string {
	return append([]string(nil), categories...)
}

func (ft FieldType) clone() FieldType {
	ft.DefaultConfig = cloneConfig(ft.DefaultConfig)
	return ft
}

func cloneConfig(in map[string]any) map[string]any {
	out := maps.Clone(in)
	if out == nil {
		out = map[string]any{}
	}
	for k, v := range out {
		if opts, ok := v.([]string); ok {
			out[k] = append([]string(nil), opts...)
		}
	}
	return out
}
