package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/parisxmas/formcraft/internal/auth"
	"github.com/parisxmas/formcraft/internal/listing"
	"github.com/parisxmas/formcraft/internal/models"
	"github.com/parisxmas/formcraft/internal/service"
)

type FormHandler struct {
	svc *service.FormService
	log *zap.Logger
}

func NewFormHandler(svc *service.FormService, log *zap.Logger) *FormHandler {
	return &FormHandler{svc: svc, log: log}
}

// uid returns the signed-in user's id. Routes using it sit behind
// auth.Middleware.
func uid(r *http.Request) string {
	if u := auth.GetUser(r.Context()); u != nil {
		return u.UID
	}
	return ""
}

func (h *FormHandler) List(w http.ResponseWriter, r *http.Request) {
	forms, err := h.svc.GetUserForms(r.Context(), uid(r))
	if err != nil {
		fail(w, h.log, err, "Failed to load forms")
		return
	}
	q := r.URL.Query()
	forms = listing.FilterForms(forms, listing.Filter{Status: q.Get("status"), Search: q.Get("search")})
	listing.SortForms(forms, listing.ParseSortKey(q.Get("sort")))
	writeJSON(w, http.StatusOK, map[string]any{"forms": forms, "total": len(forms)})
}

func (h *FormHandler) Create(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if err := readJSON(r, &data); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := h.svc.CreateForm(r.Context(), uid(r), data)
	if err != nil {
		fail(w, h.log, err, "Failed to create form")
		return
	}
	form, err := h.svc.GetFormByID(r.Context(), id)
	if err != nil {
		fail(w, h.log, err, "Failed to create form")
		return
	}
	writeJSON(w, http.StatusCreated, form)
}

func (h *FormHandler) Get(w http.ResponseWriter, r *http.Request) {
	form, err := h.svc.GetOwnedForm(r.Context(), chi.URLParam(r, "formId"), uid(r))
	if err != nil {
		fail(w, h.log, err, "Failed to load form")
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (h *FormHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "formId")
	var updates map[string]any
	if err := readJSON(r, &updates); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := h.svc.GetOwnedForm(r.Context(), id, uid(r)); err != nil {
		fail(w, h.log, err, "Failed to update form")
		return
	}
	form, err := h.svc.UpdateForm(r.Context(), id, updates)
	if err != nil {
		fail(w, h.log, err, "Failed to update form")
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (h *FormHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "formId")
	if _, err := h.svc.GetOwnedForm(r.Context(), id, uid(r)); err != nil {
		fail(w, h.log, err, "Failed to delete form")
		return
	}
	if err := h.svc.DeleteForm(r.Context(), id); err != nil {
		fail(w, h.log, err, "Failed to delete form")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

func (h *FormHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "formId")
	if _, err := h.svc.GetOwnedForm(r.Context(), id, uid(r)); err != nil {
		fail(w, h.log, err, "Failed to duplicate form")
		return
	}
	form, err := h.svc.DuplicateForm(r.Context(), id, uid(r))
	if err != nil {
		fail(w, h.log, err, "Failed to duplicate form")
		return
	}
	writeJSON(w, http.StatusCreated, form)
}

type transition func(ctx context.Context, formID string) (*models.Form, error)

// lifecycle builds the handler for one status transition.
func (h *FormHandler) lifecycle(apply transition, msg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "formId")
		if _, err := h.svc.GetOwnedForm(r.Context(), id, uid(r)); err != nil {
			fail(w, h.log, err, msg)
			return
		}
		form, err := apply(r.Context(), id)
		if err != nil {
			fail(w, h.log, err, msg)
			return
		}
		writeJSON(w, http.StatusOK, form)
	}
}

func (h *FormHandler) Publish() http.HandlerFunc {
	return h.lifecycle(h.svc.PublishForm, "Failed to publish form")
}

func (h *FormHandler) Unpublish() http.HandlerFunc {
	return h.lifecycle(h.svc.UnpublishForm, "Failed to unpublish form")
}

func (h *FormHandler) Archive() http.HandlerFunc {
	return h.lifecycle(h.svc.ArchiveForm, "Failed to archive form")
}

func (h *FormHandler) Unarchive() http.HandlerFunc {
	return h.lifecycle(h.svc.UnarchiveForm, "Failed to unarchive form")
}
