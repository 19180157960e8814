package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/parisxmas/formcraft/internal/auth"
	"github.com/parisxmas/formcraft/internal/models"
	"github.com/parisxmas/formcraft/internal/service"
)

// PublicHandler serves respondents: the published schema, submission and
// draft autosave. Routes sit behind auth.Optional.
type PublicHandler struct {
	forms     *service.FormService
	responses *service.ResponseService
	drafts    *service.DraftService
	autosaver *service.Autosaver
	log       *zap.Logger
}

func NewPublicHandler(forms *service.FormService, responses *service.ResponseService, drafts *service.DraftService, autosaver *service.Autosaver, log *zap.Logger) *PublicHandler {
	return &PublicHandler{forms: forms, responses: responses, drafts: drafts, autosaver: autosaver, log: log}
}

type publicForm struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Fields      []models.Field      `json:"fields"`
	Settings    models.FormSettings `json:"settings"`
	Theme       models.FormTheme    `json:"theme"`
}

// Schema returns a published form without owner details.
func (h *PublicHandler) Schema(w http.ResponseWriter, r *http.Request) {
	form, err := h.forms.GetPublishedForm(r.Context(), chi.URLParam(r, "formId"))
	if err != nil {
		fail(w, h.log, err, "Form not found")
		return
	}
	writeJSON(w, http.StatusOK, publicForm{
		ID:          form.ID,
		Title:       form.Title,
		Description: form.Description,
		Fields:      form.Fields,
		Settings:    form.Settings,
		Theme:       form.Theme,
	})
}

func (h *PublicHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Answers  map[string]any          `json:"answers"`
		Metadata models.ResponseMetadata `json:"metadata"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	meta := req.Metadata
	meta.UserID = ""
	meta.UserAgent = r.UserAgent()

	resp, err := h.responses.SubmitResponse(r.Context(), chi.URLParam(r, "formId"), req.Answers, meta, auth.GetUser(r.Context()))
	if err != nil {
		fail(w, h.log, err, "Failed to submit response")
		return
	}
	body := map[string]any{"id": resp.ID, "submittedAt": resp.SubmittedAt}
	if form, err := h.forms.GetFormByID(r.Context(), resp.FormID); err == nil {
		body["confirmationMessage"] = form.Settings.ConfirmationMessage
	}
	writeJSON(w, http.StatusCreated, body)
}

// LoadDraft returns the caller's saved draft. "pending" is set while a newer
// write is still waiting for its autosave window.
func (h *PublicHandler) LoadDraft(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formId")
	if _, err := h.forms.GetPublishedForm(r.Context(), formID); err != nil {
		fail(w, h.log, err, "Form not found")
		return
	}
	d := h.drafts.LoadDraft(r.Context(), formID, uid(r))
	writeJSON(w, http.StatusOK, map[string]any{
		"exists":  d.Exists,
		"data":    d.Data,
		"savedAt": d.SavedAt,
		"pending": h.autosaver.Pending(formID, uid(r)),
	})
}

// SaveDraft queues an autosave of the caller's in-progress answers.
func (h *PublicHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formId")
	var req struct {
		Data map[string]any `json:"data"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := h.forms.GetPublishedForm(r.Context(), formID); err != nil {
		fail(w, h.log, err, "Form not found")
		return
	}
	h.autosaver.Save(formID, uid(r), req.Data, models.DraftMetadata{UserAgent: r.UserAgent()})
	writeJSON(w, http.StatusAccepted, map[string]bool{"queued": true})
}

func (h *PublicHandler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	ok := h.autosaver.DeleteDraft(r.Context(), chi.URLParam(r, "formId"), uid(r))
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": ok})
}
