// Package listing filters and orders forms and responses for the dashboard.
package listing

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/parisxmas/formcraft/internal/models"
)

const StatusAll = "all"

type SortKey string

const (
	SortUpdated   SortKey = "updated"
	SortCreated   SortKey = "created"
	SortName      SortKey = "name"
	SortResponses SortKey = "responses"
)

// ParseSortKey maps a query value to a SortKey, defaulting to SortUpdated.
func ParseSortKey(s string) SortKey {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case SortCreated:
		return SortCreated
	case SortName:
		return SortName
	case SortResponses:
		return SortResponses
	}
	return SortUpdated
}

type Filter struct {
	Status string
	Search string
}

func (f Filter) matches(form *models.Form) bool {
	if f.Status != "" && f.Status != StatusAll && string(form.Status) != f.Status {
		return false
	}
	term := strings.ToLower(strings.TrimSpace(f.Search))
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(form.Title), term) ||
		strings.Contains(strings.ToLower(form.Description), term)
}

// FilterForms keeps the forms matching both the status and the search term.
func FilterForms(forms []models.Form, f Filter) []models.Form {
	out := make([]models.Form, 0, len(forms))
	for i := range forms {
		if f.matches(&forms[i]) {
			out = append(out, forms[i])
		}
	}
	return out
}

// SortForms orders forms in place. Timestamps that failed to parse are zero
// and therefore sort as the oldest.
func SortForms(forms []models.Form, key SortKey) {
	var less func(a, b *models.Form) bool
	switch key {
	case SortCreated:
		less = func(a, b *models.Form) bool { return a.CreatedAt.After(b.CreatedAt) }
	case SortName:
		col := collate.New(language.English, collate.Loose)
		less = func(a, b *models.Form) bool { return col.CompareString(a.Title, b.Title) < 0 }
	case SortResponses:
		less = func(a, b *models.Form) bool { return a.ResponseCount > b.ResponseCount }
	default:
		less = func(a, b *models.Form) bool { return a.UpdatedAt.After(b.UpdatedAt) }
	}
	sort.SliceStable(forms, func(i, j int) bool { return less(&forms[i], &forms[j]) })
}

// FilterResponses keeps responses whose answers or respondent details
// contain search, case-insensitively.
func FilterResponses(responses []models.Response, search string) []models.Response {
	term := strings.ToLower(strings.TrimSpace(search))
	if term == "" {
		return responses
	}
	out := make([]models.Response, 0, len(responses))
	for _, r := range responses {
		if responseMatches(&r, term) {
			out = append(out, r)
		}
	}
	return out
}

func responseMatches(r *models.Response, term string) bool {
	if strings.Contains(strings.ToLower(r.Metadata.RespondentName), term) ||
		strings.Contains(strings.ToLower(r.Metadata.RespondentEmail), term) {
		return true
	}
	for _, v := range r.Answers {
		if strings.Contains(strings.ToLower(AnswerText(v)), term) {
			return true
		}
	}
	return false
}

// AnswerText flattens an answer value for display and search. Lists are
// joined with "; " and uploaded files render as their file name.
func AnswerText(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []string:
		return strings.Join(t, "; ")
	case []any:
		parts := make([]string, 0, len(t))
		for _, p := range t {
			parts = append(parts, AnswerText(p))
		}
		return strings.Join(parts, "; ")
	case map[string]any:
		if name, ok := t["fileName"].(string); ok {
			return name
		}
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
