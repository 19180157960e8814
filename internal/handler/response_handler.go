package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/parisxmas/formcraft/internal/errorz"
	"github.com/parisxmas/formcraft/internal/listing"
	"github.com/parisxmas/formcraft/internal/service"
)

const defaultPageSize = 20

// ResponseHandler serves a form's responses to its owner.
type ResponseHandler struct {
	forms     *service.FormService
	responses *service.ResponseService
	log       *zap.Logger
	now       func() time.Time
}

func NewResponseHandler(forms *service.FormService, responses *service.ResponseService, log *zap.Logger) *ResponseHandler {
	return &ResponseHandler{forms: forms, responses: responses, log: log, now: time.Now}
}

// List pages through responses newest first. With a search term the whole
// set is filtered before paging.
func (h *ResponseHandler) List(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formId")
	if _, err := h.forms.GetOwnedForm(r.Context(), formID, uid(r)); err != nil {
		fail(w, h.log, err, "Failed to load responses")
		return
	}
	skip := intQuery(r, "skip", 0)
	limit := intQuery(r, "limit", defaultPageSize)
	if limit == 0 {
		limit = defaultPageSize
	}

	search := r.URL.Query().Get("search")
	if search == "" {
		page, total, err := h.responses.ListResponses(r.Context(), formID, skip, limit)
		if err != nil {
			fail(w, h.log, err, "Failed to load responses")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"responses": page, "total": total, "skip": skip, "limit": limit})
		return
	}

	all, err := h.responses.AllResponses(r.Context(), formID)
	if err != nil {
		fail(w, h.log, err, "Failed to load responses")
		return
	}
	matched := listing.FilterResponses(all, search)
	total := len(matched)
	if skip > total {
		skip = total
	}
	end := min(skip+limit, total)
	writeJSON(w, http.StatusOK, map[string]any{"responses": matched[skip:end], "total": total, "skip": skip, "limit": limit})
}

func (h *ResponseHandler) Get(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formId")
	if _, err := h.forms.GetOwnedForm(r.Context(), formID, uid(r)); err != nil {
		fail(w, h.log, err, "Failed to load response")
		return
	}
	resp, err := h.responses.GetResponse(r.Context(), chi.URLParam(r, "responseId"))
	if err == nil && resp.FormID != formID {
		err = errorz.Newf(errorz.ErrNotFound, "response not found")
	}
	if err != nil {
		fail(w, h.log, err, "Failed to load response")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *ResponseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formId")
	id := chi.URLParam(r, "responseId")
	if _, err := h.forms.GetOwnedForm(r.Context(), formID, uid(r)); err != nil {
		fail(w, h.log, err, "Failed to delete response")
		return
	}
	resp, err := h.responses.GetResponse(r.Context(), id)
	if err == nil && resp.FormID != formID {
		err = errorz.Newf(errorz.ErrNotFound, "response not found")
	}
	if err == nil {
		err = h.responses.DeleteResponse(r.Context(), id)
	}
	if err != nil {
		fail(w, h.log, err, "Failed to delete response")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// Export downloads every response as CSV. It answers 204 when the form has
// no responses.
func (h *ResponseHandler) Export(w http.ResponseWriter, r *http.Request) {
	form, err := h.forms.GetOwnedForm(r.Context(), chi.URLParam(r, "formId"), uid(r))
	if err != nil {
		fail(w, h.log, err, "Failed to export responses")
		return
	}
	out, err := h.responses.ExportResponsesToCSV(r.Context(), form.ID, form.Fields)
	if err != nil {
		fail(w, h.log, err, "Failed to export responses")
		return
	}
	if out == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", attachment(service.ExportFileName(form.Title, h.now())))
	w.Write([]byte(out))
}
