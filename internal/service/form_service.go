package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/parisxmas/formcraft/internal/errorz"
	"github.com/parisxmas/formcraft/internal/listing"
	"github.com/parisxmas/formcraft/internal/models"
	"github.com/parisxmas/formcraft/internal/repository"
)

// Properties callers may never set through create or update.
var protectedKeys = []string{"id", "userId", "createdAt", "responseCount"}

type FormService struct {
	forms *repository.FormRepo
	now   func() time.Time
}

func NewFormService(forms *repository.FormRepo) *FormService {
	return &FormService{forms: forms, now: time.Now}
}

type FormStats struct {
	Total          int `json:"total"`
	Published      int `json:"published"`
	Draft          int `json:"draft"`
	Archived       int `json:"archived"`
	TotalResponses int `json:"totalResponses"`
}

func required(what string) error {
	return errorz.Newf(errorz.ErrInvalid, "%s is required", what)
}

func formNotFound(id string) error {
	return errorz.Newf(errorz.ErrNotFound, "form %s not found", id)
}

// GetUserForms lists the user's forms, most recently updated first.
func (s *FormService) GetUserForms(ctx context.Context, userID string) ([]models.Form, error) {
	const op = "get user forms"
	if userID == "" {
		return nil, fmt.Errorf("%s: %w", op, required("user id"))
	}
	forms, err := s.forms.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// backends disagree on where null timestamps sort
	listing.SortForms(forms, listing.SortUpdated)
	return forms, nil
}

func (s *FormService) GetFormByID(ctx context.Context, formID string) (*models.Form, error) {
	return s.get(ctx, "get form", formID)
}

// GetOwnedForm is GetFormByID restricted to the form's owner.
func (s *FormService) GetOwnedForm(ctx context.Context, formID, userID string) (*models.Form, error) {
	form, err := s.get(ctx, "get form", formID)
	if err != nil {
		return nil, err
	}
	if form.UserID != userID {
		return nil, fmt.Errorf("get form: %w", errorz.Newf(errorz.ErrForbidden, "form %s belongs to another user", formID))
	}
	return form, nil
}

// GetPublishedForm returns a form only while it accepts responses.
func (s *FormService) GetPublishedForm(ctx context.Context, formID string) (*models.Form, error) {
	form, err := s.get(ctx, "get published form", formID)
	if err != nil {
		return nil, err
	}
	if form.Status != models.StatusPublished {
		return nil, fmt.Errorf("get published form: %w", formNotFound(formID))
	}
	return form, nil
}

func (s *FormService) get(ctx context.Context, op, formID string) (*models.Form, error) {
	if formID == "" {
		return nil, fmt.Errorf("%s: %w", op, required("form id"))
	}
	form, err := s.forms.FindByID(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if form == nil {
		return nil, fmt.Errorf("%s: %w", op, formNotFound(formID))
	}
	return form, nil
}

// CreateForm stores data merged over the defaults of a new draft form and
// returns its id.
func (s *FormService) CreateForm(ctx context.Context, userID string, data map[string]any) (string, error) {
	const op = "create form"
	if userID == "" {
		return "", fmt.Errorf("%s: %w", op, required("user id"))
	}
	base, err := asDocument(models.Form{
		Status:   models.StatusDraft,
		Fields:   []models.Field{},
		Settings: models.DefaultSettings(),
		Theme:    models.DefaultTheme(),
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	merged := deepMerge(base, without(data, append(protectedKeys, "updatedAt")...))

	var form models.Form
	if err := decodeInto(merged, &form); err != nil {
		return "", fmt.Errorf("%s: %w", op, errorz.Newf(errorz.ErrInvalid, "malformed form: %v", err))
	}
	ensureFieldIDs(form.Fields)
	if err := checkFieldConfig(form.Fields); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	now := models.NewTimestamp(s.now())
	form.UserID = userID
	form.ResponseCount = 0
	form.CreatedAt = now
	form.UpdatedAt = now

	id, err := s.forms.Create(ctx, &form)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// UpdateForm deep-merges updates into the stored form and returns the
// refreshed form.
func (s *FormService) UpdateForm(ctx context.Context, formID string, updates map[string]any) (*models.Form, error) {
	return s.update(ctx, "update form", formID, updates)
}

func (s *FormService) update(ctx context.Context, op, formID string, updates map[string]any) (*models.Form, error) {
	if formID == "" {
		return nil, fmt.Errorf("%s: %w", op, required("form id"))
	}
	stored, err := s.forms.FindDoc(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if stored == nil {
		return nil, fmt.Errorf("%s: %w", op, formNotFound(formID))
	}

	var form models.Form
	if err := decodeInto(deepMerge(stored, without(updates, protectedKeys...)), &form); err != nil {
		return nil, fmt.Errorf("%s: %w", op, errorz.Newf(errorz.ErrInvalid, "malformed form: %v", err))
	}
	ensureFieldIDs(form.Fields)
	if err := checkFieldConfig(form.Fields); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	form.UpdatedAt = models.NewTimestamp(s.now())

	set, err := asDocument(form)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.forms.Update(ctx, formID, without(set, protectedKeys...)); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.get(ctx, op, formID)
}

// DeleteForm removes the form document. Its responses are kept.
func (s *FormService) DeleteForm(ctx context.Context, formID string) error {
	const op = "delete form"
	if formID == "" {
		return fmt.Errorf("%s: %w", op, required("form id"))
	}
	if err := s.forms.Delete(ctx, formID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DuplicateForm copies a form's content into a new draft owned by userID.
func (s *FormService) DuplicateForm(ctx context.Context, formID, userID string) (*models.Form, error) {
	const op = "duplicate form"
	if formID == "" {
		return nil, fmt.Errorf("%s: %w", op, required("form id"))
	}
	if userID == "" {
		return nil, fmt.Errorf("%s: %w", op, required("user id"))
	}
	orig, err := s.get(ctx, op, formID)
	if err != nil {
		return nil, err
	}

	now := models.NewTimestamp(s.now())
	cp := *orig
	cp.ID = ""
	cp.UserID = userID
	cp.Title = "Copy of " + orig.Title
	cp.Status = models.StatusDraft
	cp.ResponseCount = 0
	cp.Fields = append([]models.Field(nil), orig.Fields...)
	cp.CreatedAt = now
	cp.UpdatedAt = now

	id, err := s.forms.Create(ctx, &cp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.get(ctx, op, id)
}

func (s *FormService) GetFormStats(ctx context.Context, userID string) (FormStats, error) {
	forms, err := s.GetUserForms(ctx, userID)
	if err != nil {
		return FormStats{}, fmt.Errorf("get form stats: %w", err)
	}
	stats := FormStats{Total: len(forms)}
	for _, f := range forms {
		switch f.Status {
		case models.StatusPublished:
			stats.Published++
		case models.StatusDraft:
			stats.Draft++
		case models.StatusArchived:
			stats.Archived++
		}
		stats.TotalResponses += f.ResponseCount
	}
	return stats, nil
}

func (s *FormService) PublishForm(ctx context.Context, formID string) (*models.Form, error) {
	return s.setStatus(ctx, "publish form", formID, models.StatusPublished)
}

func (s *FormService) UnpublishForm(ctx context.Context, formID string) (*models.Form, error) {
	return s.setStatus(ctx, "unpublish form", formID, models.StatusDraft)
}

func (s *FormService) ArchiveForm(ctx context.Context, formID string) (*models.Form, error) {
	return s.setStatus(ctx, "archive form", formID, models.StatusArchived)
}

func (s *FormService) UnarchiveForm(ctx context.Context, formID string) (*models.Form, error) {
	return s.setStatus(ctx, "unarchive form", formID, models.StatusDraft)
}

func (s *FormService) setStatus(ctx context.Context, op, formID string, status models.FormStatus) (*models.Form, error) {
	return s.update(ctx, op, formID, map[string]any{"status": string(status)})
}

func ensureFieldIDs(fields []models.Field) {
	for i := range fields {
		if fields[i].ID == "" {
			fields[i].ID = "field_" + uuid.NewString()[:8]
		}
	}
}

// checkFieldConfig rejects field settings the fill page cannot draw.
func checkFieldConfig(fields []models.Field) error {
	for _, f := range fields {
		switch f.Type {
		case models.KindRating:
			if f.MaxRating < 0 || f.MaxRating > models.MaxRating {
				return errorz.Newf(errorz.ErrInvalid, "field %s: maxRating must be between 1 and %d", f.ID, models.MaxRating)
			}
		case models.KindScale:
			lo, hi := f.ScaleRange()
			if lo > hi {
				return errorz.Newf(errorz.ErrInvalid, "field %s: scaleMin must not exceed scaleMax", f.ID)
			}
			if float64(hi)-float64(lo) >= models.MaxScaleSteps {
				return errorz.Newf(errorz.ErrInvalid, "field %s: scale may span at most %d steps", f.ID, models.MaxScaleSteps)
			}
		case models.KindNumber:
			if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
				return errorz.Newf(errorz.ErrInvalid, "field %s: min must not exceed max", f.ID)
			}
		}
		if f.MinLength != nil && f.MaxLength != nil && *f.MinLength > *f.MaxLength {
			return errorz.Newf(errorz.ErrInvalid, "field %s: minLength must not exceed maxLength", f.ID)
		}
	}
	return nil
}

var nonAlphaNum = regexp.MustCompile(`[^a-z0-9]+`)

func generateSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = nonAlphaNum.ReplaceAllString(slug, "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		slug = "form"
	}
	return slug
}
