// Package render turns form fields into presentations for the public fill
// page and decodes submitted HTML form values back into answers. It holds
// no state: the current value of every field is owned by the caller.
package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/parisxmas/formcraft/internal/models"
)

//go:embed templates/*.html
var tplFS embed.FS

var tpl = template.Must(template.ParseFS(tplFS, "templates/*.html"))

// Widget names the control a field is drawn as. Input widgets reuse the
// HTML input type.
type Widget string

const (
	WidgetText        Widget = "text"
	WidgetTextarea    Widget = "textarea"
	WidgetEmail       Widget = "email"
	WidgetPhone       Widget = "tel"
	WidgetURL         Widget = "url"
	WidgetNumber      Widget = "number"
	WidgetDate        Widget = "date"
	WidgetTime        Widget = "time"
	WidgetRadio       Widget = "radio"
	WidgetCheckbox    Widget = "checkbox"
	WidgetSelect      Widget = "select"
	WidgetRating      Widget = "rating"
	WidgetScale       Widget = "scale"
	WidgetFile        Widget = "file"
	WidgetHeading     Widget = "heading"
	WidgetDescription Widget = "description"
	WidgetDivider     Widget = "divider"
	WidgetUnsupported Widget = "unsupported"
)

type Option struct {
	Value    string
	Label    string
	Selected bool
}

// Presentation is everything needed to draw one field. Layout
// presentations carry no label, help text or error.
type Presentation struct {
	FieldID     string
	Kind        models.FieldKind
	Widget      Widget
	Layout      bool
	Label       string
	Required    bool
	HelpText    string
	Error       string
	Placeholder string
	Content     string
	Value       string
	Options     []Option

	Min       string
	Max       string
	MinLength string
	MaxLength string
	Accept    string
	FileHint  string
	MinLabel  string
	MaxLabel  string

	// UploadID and UploadName carry a stored file across a re-render.
	UploadID   string
	UploadName string

	// Message is set for unsupported kinds only.
	Message string
	Theme   models.FormTheme
}

// Field builds the presentation of f showing value and, when errMsg is
// non-empty, a validation error.
func Field(f models.Field, value any, errMsg string, theme models.FormTheme) Presentation {
	p := Presentation{FieldID: f.ID, Kind: f.Type, Theme: theme}

	switch f.Type {
	case models.KindSectionHeading:
		p.Widget, p.Layout, p.Label, p.Content = WidgetHeading, true, f.Label, f.Content
		return p
	case models.KindDescriptionText:
		p.Widget, p.Layout, p.Content = WidgetDescription, true, f.Content
		return p
	case models.KindDivider:
		p.Widget, p.Layout = WidgetDivider, true
		return p
	}

	p.Label = f.Label
	p.Required = f.Required
	p.HelpText = f.HelpText
	p.Error = errMsg
	p.Placeholder = f.Placeholder

	switch f.Type {
	case models.KindShortText:
		p.Widget = WidgetText
		textLimits(&p, f)
	case models.KindLongText:
		p.Widget = WidgetTextarea
		textLimits(&p, f)
	case models.KindEmail:
		p.Widget = WidgetEmail
	case models.KindPhone:
		p.Widget = WidgetPhone
	case models.KindURL:
		p.Widget = WidgetURL
	case models.KindNumber:
		p.Widget = WidgetNumber
		if f.Min != nil {
			p.Min = formatNumber(*f.Min)
		}
		if f.Max != nil {
			p.Max = formatNumber(*f.Max)
		}
	case models.KindDate:
		p.Widget = WidgetDate
	case models.KindTime:
		p.Widget = WidgetTime
	case models.KindSingleChoice:
		p.Widget = WidgetRadio
		p.Options = choices(f.Options, value)
		return p
	case models.KindMultipleChoice:
		p.Widget = WidgetCheckbox
		p.Options = choices(f.Options, value)
		return p
	case models.KindDropdown:
		p.Widget = WidgetSelect
		p.Options = choices(f.Options, value)
		return p
	case models.KindRating:
		p.Widget = WidgetRating
		p.Options = steps(1, f.RatingMax(), value)
		return p
	case models.KindScale:
		p.Widget = WidgetScale
		lo, hi := f.ScaleRange()
		p.Options = steps(lo, hi, value)
		p.MinLabel, p.MaxLabel = f.ScaleMinLabel, f.ScaleMaxLabel
		return p
	case models.KindFileUpload:
		p.Widget = WidgetFile
		p.Accept = accept(f.AllowedFileTypes)
		p.FileHint = fileHint(f)
		if ref, ok := value.(map[string]any); ok {
			p.Value, _ = ref["fileName"].(string)
			p.UploadID, _ = ref["uploadId"].(string)
			p.UploadName = UploadParam(f.ID)
		}
		return p
	default:
		return Presentation{
			FieldID: f.ID,
			Kind:    f.Type,
			Widget:  WidgetUnsupported,
			Message: fmt.Sprintf("Unsupported field type: %s", f.Type),
			Theme:   theme,
		}
	}
	p.Value = scalar(value)
	return p
}

// HTML renders one presentation.
func HTML(p Presentation) (template.HTML, error) {
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "field", p); err != nil {
		return "", fmt.Errorf("render field %s: %w", p.FieldID, err)
	}
	return template.HTML(buf.String()), nil
}

type page struct {
	Form     *models.Form
	Theme    models.FormTheme
	Fields   []Presentation
	Answered int
	Total    int
	Invalid  bool
	Done     bool
}

// Form writes the complete fill page for form, showing values and the
// per-field errors.
func Form(w io.Writer, form *models.Form, values map[string]any, errs map[string]string) error {
	pg := page{Form: form, Theme: form.Theme, Invalid: len(errs) > 0}
	for _, f := range form.Fields {
		v := values[f.ID]
		pg.Fields = append(pg.Fields, Field(f, v, errs[f.ID], form.Theme))
		if f.Type.IsLayout() {
			continue
		}
		pg.Total++
		if !isBlank(v) {
			pg.Answered++
		}
	}
	return tpl.ExecuteTemplate(w, "page", pg)
}

// Confirmation writes the page shown after a successful submission.
func Confirmation(w io.Writer, form *models.Form) error {
	return tpl.ExecuteTemplate(w, "page", page{Form: form, Theme: form.Theme, Done: true})
}

// ValueFromForm decodes the submitted value of one field. Choice lists
// become []string, numeric kinds float64 and everything else a string.
// It returns nil for layout fields, file uploads and absent values.
// Numbers that do not parse are returned as entered so validation can
// report them.
func ValueFromForm(f models.Field, vals url.Values) any {
	if f.Type.IsLayout() || f.Type == models.KindFileUpload {
		return nil
	}
	raw, ok := vals[f.ID]
	if !ok || len(raw) == 0 {
		return nil
	}
	switch f.Type {
	case models.KindMultipleChoice:
		return append([]string(nil), raw...)
	case models.KindNumber, models.KindRating, models.KindScale:
		s := strings.TrimSpace(raw[0])
		if s == "" {
			return nil
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return s
		}
		return n
	}
	return raw[0]
}

// UploadParam names the form parameter holding the id of a file already
// stored for a file-upload field.
func UploadParam(fieldID string) string {
	return fieldID + "__upload"
}

// ValuesFromForm decodes every input field of form.
func ValuesFromForm(form *models.Form, vals url.Values) map[string]any {
	out := make(map[string]any, len(form.Fields))
	for _, f := range form.Fields {
		if v := ValueFromForm(f, vals); v != nil {
			out[f.ID] = v
		}
	}
	return out
}

func textLimits(p *Presentation, f models.Field) {
	if f.MinLength != nil {
		p.MinLength = strconv.Itoa(*f.MinLength)
	}
	if f.MaxLength != nil {
		p.MaxLength = strconv.Itoa(*f.MaxLength)
	}
}

func choices(options []string, value any) []Option {
	selected := map[string]bool{}
	switch v := value.(type) {
	case string:
		selected[v] = true
	case []string:
		for _, s := range v {
			selected[s] = true
		}
	case []any:
		for _, s := range v {
			if str, ok := s.(string); ok {
				selected[str] = true
			}
		}
	}
	out := make([]Option, 0, len(options))
	for _, o := range options {
		out = append(out, Option{Value: o, Label: o, Selected: selected[o]})
	}
	return out
}

// steps lists lo..hi, at most models.MaxScaleSteps of them. An inverted
// range yields no options.
func steps(lo, hi int, value any) []Option {
	if hi < lo {
		return nil
	}
	n := hi - lo + 1
	if n <= 0 || n > models.MaxScaleSteps {
		n = models.MaxScaleSteps
	}
	current := scalar(value)
	out := make([]Option, 0, n)
	for k := 0; k < n; k++ {
		s := strconv.Itoa(lo + k)
		out = append(out, Option{Value: s, Label: s, Selected: s == current})
	}
	return out
}

func accept(types []string) string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if !strings.Contains(t, "/") && !strings.HasPrefix(t, ".") {
			t = "." + t
		}
		out = append(out, t)
	}
	return strings.Join(out, ",")
}

func fileHint(f models.Field) string {
	var parts []string
	if a := accept(f.AllowedFileTypes); a != "" {
		parts = append(parts, "Accepted: "+strings.ReplaceAll(a, ",", ", "))
	}
	if f.MaxFileSizeMB > 0 {
		parts = append(parts, "Max size: "+humanize.IBytes(uint64(f.MaxFileSizeMB*1024*1024)))
	}
	return strings.Join(parts, ". ")
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return formatNumber(t)
	case int:
		return strconv.Itoa(t)
	case json.Number:
		return t.String()
	}
	return fmt.Sprint(v)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	}
	return false
}
