package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/parisxmas/formcraft/internal/errorz"
	"github.com/parisxmas/formcraft/internal/listing"
	"github.com/parisxmas/formcraft/internal/models"
	"github.com/parisxmas/formcraft/internal/repository"
)

const (
	exportPageSize    = 500
	exportConcurrency = 4
)

// draftRemover is satisfied by DraftService and Autosaver.
type draftRemover interface {
	DeleteDraft(ctx context.Context, formID, userID string) bool
}

// ValidationError carries per-field messages for rejected answers.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	ids := make([]string, 0, len(e.Fields))
	for id := range e.Fields {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return "invalid answers for " + strings.Join(ids, ", ")
}

func (e *ValidationError) Unwrap() error { return errorz.ErrInvalid }

type ResponseService struct {
	responses *repository.ResponseRepo
	forms     *repository.FormRepo
	uploads   *repository.UploadRepo
	drafts    draftRemover
	log       *zap.Logger
	now       func() time.Time
}

func NewResponseService(responses *repository.ResponseRepo, forms *repository.FormRepo, uploads *repository.UploadRepo, drafts draftRemover, log *zap.Logger) *ResponseService {
	return &ResponseService{responses: responses, forms: forms, uploads: uploads, drafts: drafts, log: log, now: time.Now}
}

// SubmitResponse records a respondent's answers to a published form. user
// is nil for anonymous respondents.
func (s *ResponseService) SubmitResponse(ctx context.Context, formID string, answers map[string]any, meta models.ResponseMetadata, user *models.User) (*models.Response, error) {
	const op = "submit response"
	if formID == "" {
		return nil, fmt.Errorf("%s: %w", op, required("form id"))
	}
	form, err := s.forms.FindByID(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if form == nil || form.Status != models.StatusPublished {
		return nil, fmt.Errorf("%s: %w", op, formNotFound(formID))
	}
	if form.Settings.RequireAuth && user == nil {
		return nil, fmt.Errorf("%s: %w", op, errorz.Newf(errorz.ErrForbidden, "sign in required"))
	}
	if user != nil {
		meta.UserID = user.UID
		if meta.RespondentEmail == "" {
			meta.RespondentEmail = user.Email
		}
		if meta.RespondentName == "" {
			meta.RespondentName = user.DisplayName
		}
	}
	if limit := form.Settings.MaxSubmissions; limit > 0 && form.ResponseCount >= limit {
		return nil, fmt.Errorf("%s: %w", op, errorz.Newf(errorz.ErrConflict, "form has reached its response limit"))
	}
	if !form.Settings.AllowMultipleResponses && meta.UserID != "" {
		n, err := s.responses.CountByRespondent(ctx, formID, meta.UserID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if n > 0 {
			return nil, fmt.Errorf("%s: %w", op, errorz.Newf(errorz.ErrConflict, "you have already responded to this form"))
		}
	}

	clean := sanitizeAnswers(form.Fields, answers)
	errs, err := s.resolveFiles(ctx, form, clean)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for id, msg := range ValidateAnswers(form.Fields, clean) {
		if _, ok := errs[id]; !ok {
			errs[id] = msg
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", op, &ValidationError{Fields: errs})
	}

	resp := &models.Response{
		FormID:      formID,
		Answers:     clean,
		Metadata:    meta,
		SubmittedAt: models.NewTimestamp(s.now()),
	}
	id, err := s.responses.Create(ctx, resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	resp.ID = id

	if err := s.forms.AddResponses(ctx, formID, 1); err != nil {
		s.log.Error("increment response count failed", zap.String("form", formID), zap.Error(err))
	}
	s.drafts.DeleteDraft(ctx, formID, meta.UserID)
	return resp, nil
}

// resolveFiles replaces each file answer with the reference of the stored
// upload it names, so type and size checks see the stored file. Ids of
// uploads that are missing or were posted to another field are reported.
func (s *ResponseService) resolveFiles(ctx context.Context, form *models.Form, answers map[string]any) (map[string]string, error) {
	errs := map[string]string{}
	for _, f := range form.Fields {
		if f.Type != models.KindFileUpload || isEmptyAnswer(answers[f.ID]) {
			continue
		}
		ref, _ := answers[f.ID].(map[string]any)
		id, _ := ref["uploadId"].(string)
		if id == "" {
			continue
		}
		up, err := resolveUpload(ctx, s.uploads, form.ID, f.ID, id)
		if errors.Is(err, errorz.ErrNotFound) {
			errs[f.ID] = msgUploadMissing
			continue
		}
		if err != nil {
			return nil, err
		}
		answers[f.ID] = up.Ref()
	}
	return errs, nil
}

// ListResponses returns one page of responses, newest first, with the total.
func (s *ResponseService) ListResponses(ctx context.Context, formID string, skip, limit int) ([]models.Response, int, error) {
	const op = "list responses"
	if formID == "" {
		return nil, 0, fmt.Errorf("%s: %w", op, required("form id"))
	}
	if skip < 0 {
		skip = 0
	}
	responses, total, err := s.responses.FindByFormID(ctx, formID, skip, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return responses, total, nil
}

func (s *ResponseService) GetResponse(ctx context.Context, responseID string) (*models.Response, error) {
	const op = "get response"
	if responseID == "" {
		return nil, fmt.Errorf("%s: %w", op, required("response id"))
	}
	resp, err := s.responses.FindByID(ctx, responseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%s: %w", op, errorz.Newf(errorz.ErrNotFound, "response %s not found", responseID))
	}
	return resp, nil
}

// DeleteResponse removes a response and lowers its form's counter.
func (s *ResponseService) DeleteResponse(ctx context.Context, responseID string) error {
	const op = "delete response"
	resp, err := s.GetResponse(ctx, responseID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.responses.Delete(ctx, responseID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.forms.AddResponses(ctx, resp.FormID, -1); err != nil {
		s.log.Warn("decrement response count failed", zap.String("form", resp.FormID), zap.Error(err))
	}
	return nil
}

// AllResponses loads every response of a form, newest first. Pages after
// the first are fetched concurrently.
func (s *ResponseService) AllResponses(ctx context.Context, formID string) ([]models.Response, error) {
	first, total, err := s.ListResponses(ctx, formID, 0, exportPageSize)
	if err != nil {
		return nil, err
	}
	if total <= len(first) {
		return first, nil
	}

	pages := make([][]models.Response, (total+exportPageSize-1)/exportPageSize)
	pages[0] = first
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(exportConcurrency)
	for i := 1; i < len(pages); i++ {
		i := i
		g.Go(func() error {
			page, _, err := s.ListResponses(gctx, formID, i*exportPageSize, exportPageSize)
			if err != nil {
				return err
			}
			pages[i] = page
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	all := make([]models.Response, 0, total)
	seen := make(map[string]bool, total)
	for _, page := range pages {
		for _, r := range page {
			// pages can overlap when responses arrive mid-export
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			all = append(all, r)
		}
	}
	return all, nil
}

// ExportResponsesToCSV renders every response of a form as CSV, one column
// per input field. It returns "" when there is nothing to export.
func (s *ResponseService) ExportResponsesToCSV(ctx context.Context, formID string, fields []models.Field) (string, error) {
	const op = "export responses"
	responses, err := s.AllResponses(ctx, formID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if len(responses) == 0 {
		return "", nil
	}

	inputs := make([]models.Field, 0, len(fields))
	for _, f := range fields {
		if !f.Type.IsLayout() {
			inputs = append(inputs, f)
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"Submitted At", "Respondent Name", "Respondent Email"}
	for _, f := range inputs {
		header = append(header, f.Label)
	}
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	for _, r := range responses {
		row := []string{r.SubmittedAt.String(), r.Metadata.RespondentName, r.Metadata.RespondentEmail}
		for _, f := range inputs {
			row = append(row, listing.AnswerText(r.Answers[f.ID]))
		}
		if err := w.Write(row); err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return buf.String(), nil
}

// ExportFileName names a CSV export after the form title and the day.
func ExportFileName(title string, now time.Time) string {
	return fmt.Sprintf("%s_responses_%s.csv", generateSlug(title), now.Format("2006-01-02"))
}
