package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/parisxmas/formcraft/internal/auth"
	"github.com/parisxmas/formcraft/internal/errorz"
	"github.com/parisxmas/formcraft/internal/models"
	"github.com/parisxmas/formcraft/internal/render"
	"github.com/parisxmas/formcraft/internal/service"
)

// PageHandler serves the server-rendered fill page at /f/{formId}.
type PageHandler struct {
	forms     *service.FormService
	responses *service.ResponseService
	uploads   *service.UploadService
	drafts    *service.DraftService
	maxBytes  int64
	log       *zap.Logger
}

func NewPageHandler(forms *service.FormService, responses *service.ResponseService, uploads *service.UploadService, drafts *service.DraftService, maxBytes int64, log *zap.Logger) *PageHandler {
	return &PageHandler{forms: forms, responses: responses, uploads: uploads, drafts: drafts, maxBytes: maxBytes, log: log}
}

// Show renders the empty form, prefilled from the caller's draft if any.
func (h *PageHandler) Show(w http.ResponseWriter, r *http.Request) {
	form, err := h.forms.GetPublishedForm(r.Context(), chi.URLParam(r, "formId"))
	if err != nil {
		h.plain(w, err, "Form not found")
		return
	}
	var values map[string]any
	if d := h.drafts.LoadDraft(r.Context(), form.ID, uid(r)); d.Exists {
		values = d.Data
	}
	h.page(w, http.StatusOK, form, values, nil)
}

// Submit handles the posted page. Invalid answers re-render the form with
// the entered values and per-field messages.
func (h *PageHandler) Submit(w http.ResponseWriter, r *http.Request) {
	form, err := h.forms.GetPublishedForm(r.Context(), chi.URLParam(r, "formId"))
	if err != nil {
		h.plain(w, err, "Form not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<20)
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(h.maxBytes)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	values := render.ValuesFromForm(form, r.Form)
	h.keptUploads(r, form, values)

	// answers are checked before any file is stored, so a rejected page
	// leaves no uploads behind
	if errs := service.ValidateAnswers(withoutFiles(form.Fields), values); len(errs) > 0 {
		h.page(w, http.StatusUnprocessableEntity, form, values, errs)
		return
	}
	errs := map[string]string{}
	for _, f := range form.Fields {
		if f.Type != models.KindFileUpload {
			continue
		}
		ref, msg := h.storeFile(r, form.ID, f.ID)
		switch {
		case msg != "":
			errs[f.ID] = msg
		case ref != nil:
			values[f.ID] = ref
		}
	}
	if len(errs) > 0 {
		h.page(w, http.StatusUnprocessableEntity, form, values, errs)
		return
	}

	meta := models.ResponseMetadata{UserAgent: r.UserAgent()}
	if _, err := h.responses.SubmitResponse(r.Context(), form.ID, values, meta, auth.GetUser(r.Context())); err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			h.page(w, http.StatusUnprocessableEntity, form, values, verr.Fields)
			return
		}
		h.plain(w, err, "Failed to submit response")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.Confirmation(w, form); err != nil {
		h.log.Error("render confirmation failed", zap.String("form", form.ID), zap.Error(err))
	}
}

// keptUploads restores the files stored by an earlier attempt at the page,
// which the re-rendered form carries in hidden inputs.
func (h *PageHandler) keptUploads(r *http.Request, form *models.Form, values map[string]any) {
	for _, f := range form.Fields {
		if f.Type != models.KindFileUpload {
			continue
		}
		id := r.Form.Get(render.UploadParam(f.ID))
		if id == "" {
			continue
		}
		up, err := h.uploads.Resolve(r.Context(), form.ID, f.ID, id)
		if err != nil {
			if !errors.Is(err, errorz.ErrNotFound) && !errors.Is(err, errorz.ErrInvalid) {
				h.log.Error("resolve upload failed", zap.String("form", form.ID), zap.String("field", f.ID), zap.Error(err))
			}
			continue
		}
		values[f.ID] = up.Ref()
	}
}

func withoutFiles(fields []models.Field) []models.Field {
	out := make([]models.Field, 0, len(fields))
	for _, f := range fields {
		if f.Type != models.KindFileUpload {
			out = append(out, f)
		}
	}
	return out
}

// storeFile uploads the file posted for fieldID. It returns a nil ref when
// no file was sent and a message when the file was rejected.
func (h *PageHandler) storeFile(r *http.Request, formID, fieldID string) (map[string]any, string) {
	if r.MultipartForm == nil {
		return nil, ""
	}
	file, header, err := r.FormFile(fieldID)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, ""
	}
	if err != nil {
		return nil, "Please upload a file"
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		return nil, "Please upload a file"
	}
	up, err := h.uploads.Upload(r.Context(), formID, fieldID, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		if reason := errorz.Reason(err); reason != "" && errors.Is(err, errorz.ErrInvalid) {
			return nil, reason
		}
		h.log.Error("store upload failed", zap.String("form", formID), zap.String("field", fieldID), zap.Error(err))
		return nil, "Upload failed, please try again"
	}
	return up.Ref(), ""
}

func (h *PageHandler) page(w http.ResponseWriter, status int, form *models.Form, values map[string]any, errs map[string]string) {
	var buf bytes.Buffer
	if err := render.Form(&buf, form, values, errs); err != nil {
		h.log.Error("render form failed", zap.String("form", form.ID), zap.Error(err))
		http.Error(w, "Failed to render form", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// plain answers an error outside the form page as text.
func (h *PageHandler) plain(w http.ResponseWriter, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error(msg, zap.Error(err))
	} else if reason := errorz.Reason(err); reason != "" && status != http.StatusNotFound {
		msg = msg + ": " + reason
	}
	http.Error(w, msg, status)
}
