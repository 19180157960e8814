package models

type FormStatus string

const (
	StatusDraft     FormStatus = "draft"
	StatusPublished FormStatus = "published"
	StatusArchived  FormStatus = "archived"
)

func (s FormStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// FieldKind identifies a field type. The set is closed; renderers and
// validators switch over it exhaustively and treat anything else as
// unsupported.
type FieldKind string

const (
	KindShortText      FieldKind = "short_text"
	KindLongText       FieldKind = "long_text"
	KindEmail          FieldKind = "email"
	KindPhone          FieldKind = "phone"
	KindURL            FieldKind = "url"
	KindNumber         FieldKind = "number"
	KindDate           FieldKind = "date"
	KindTime           FieldKind = "time"
	KindSingleChoice   FieldKind = "single_choice"
	KindMultipleChoice FieldKind = "multiple_choice"
	KindDropdown       FieldKind = "dropdown"
	KindRating         FieldKind = "rating"
	KindScale          FieldKind = "scale"
	KindFileUpload     FieldKind = "file_upload"

	KindSectionHeading  FieldKind = "section_heading"
	KindDescriptionText FieldKind = "description_text"
	KindDivider         FieldKind = "divider"
)

// IsLayout reports whether the kind is presentation-only and carries no
// response value.
func (k FieldKind) IsLayout() bool {
	switch k {
	case KindSectionHeading, KindDescriptionText, KindDivider:
		return true
	}
	return false
}

func (k FieldKind) Known() bool {
	switch k {
	case KindShortText, KindLongText, KindEmail, KindPhone, KindURL, KindNumber,
		KindDate, KindTime, KindSingleChoice, KindMultipleChoice, KindDropdown,
		KindRating, KindScale, KindFileUpload,
		KindSectionHeading, KindDescriptionText, KindDivider:
		return true
	}
	return false
}

// HasOptions reports whether the kind draws its value from Field.Options.
func (k FieldKind) HasOptions() bool {
	switch k {
	case KindSingleChoice, KindMultipleChoice, KindDropdown:
		return true
	}
	return false
}

// Field is one question, input or layout element of a form. Only the
// configuration relevant to Type is set.
type Field struct {
	ID          string    `json:"id"`
	Type        FieldKind `json:"type"`
	Label       string    `json:"label"`
	Required    bool      `json:"required"`
	HelpText    string    `json:"helpText,omitempty"`
	Placeholder string    `json:"placeholder,omitempty"`
	Content     string    `json:"content,omitempty"`

	Options []string `json:"options,omitempty"`

	Min       *float64 `json:"min,omitempty"`
	Max       *float64 `json:"max,omitempty"`
	MinLength *int     `json:"minLength,omitempty"`
	MaxLength *int     `json:"maxLength,omitempty"`

	MaxRating     int    `json:"maxRating,omitempty"`
	ScaleMin      *int   `json:"scaleMin,omitempty"`
	ScaleMax      *int   `json:"scaleMax,omitempty"`
	ScaleMinLabel string `json:"scaleMinLabel,omitempty"`
	ScaleMaxLabel string `json:"scaleMaxLabel,omitempty"`

	AllowedFileTypes []string `json:"allowedFileTypes,omitempty"`
	MaxFileSizeMB    float64  `json:"maxFileSizeMB,omitempty"`
}

// Bounds on the steps a rating or scale field offers.
const (
	MaxRating     = 10
	MaxScaleSteps = 101
)

// ScaleRange returns the inclusive bounds of a scale field, defaulting to 1..5.
func (f Field) ScaleRange() (int, int) {
	lo, hi := 1, 5
	if f.ScaleMin != nil {
		lo = *f.ScaleMin
	}
	if f.ScaleMax != nil {
		hi = *f.ScaleMax
	}
	return lo, hi
}

// RatingMax returns the highest rating value, defaulting to 5 and capped at
// MaxRating.
func (f Field) RatingMax() int {
	switch {
	case f.MaxRating > MaxRating:
		return MaxRating
	case f.MaxRating > 0:
		return f.MaxRating
	}
	return 5
}

type FormSettings struct {
	SubmitButtonText       string `json:"submitButtonText"`
	ConfirmationMessage    string `json:"confirmationMessage"`
	MaxSubmissions         int    `json:"maxSubmissions"`
	AllowMultipleResponses bool   `json:"allowMultipleResponses"`
	RequireAuth            bool   `json:"requireAuth"`
	ShowProgressBar        bool   `json:"showProgressBar"`
}

type FormTheme struct {
	PrimaryColor    string `json:"primaryColor"`
	BackgroundColor string `json:"backgroundColor"`
	TextColor       string `json:"textColor"`
	FontFamily      string `json:"fontFamily"`
}

func DefaultSettings() FormSettings {
	return FormSettings{
		SubmitButtonText:       "Submit",
		ConfirmationMessage:    "Thank you for your response!",
		AllowMultipleResponses: true,
	}
}

func DefaultTheme() FormTheme {
	return FormTheme{
		PrimaryColor:    "#4F46E5",
		BackgroundColor: "#FFFFFF",
		TextColor:       "#111827",
		FontFamily:      "Inter, sans-serif",
	}
}

// Form is a user-authored schema of fields plus presentation settings.
// ResponseCount is maintained by the persistence layer only.
type Form struct {
	ID            string       `json:"id,omitempty"`
	UserID        string       `json:"userId"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Status        FormStatus   `json:"status"`
	Fields        []Field      `json:"fields"`
	Settings      FormSettings `json:"settings"`
	Theme         FormTheme    `json:"theme"`
	ResponseCount int          `json:"responseCount"`
	CreatedAt     Timestamp    `json:"createdAt"`
	UpdatedAt     Timestamp    `json:"updatedAt"`
}

// InputFields returns the fields that carry a response value, in order.
func (f *Form) InputFields() []Field {
	out := make([]Field, 0, len(f.Fields))
	for _, fd := range f.Fields {
		if !fd.Type.IsLayout() {
			out = append(out, fd)
		}
	}
	return out
}

func (f *Form) FieldByID(id string) (Field, bool) {
	for _, fd := range f.Fields {
		if fd.ID == id {
			return fd, true
		}
	}
	return Field{}, false
}
