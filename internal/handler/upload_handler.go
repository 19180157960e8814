package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/parisxmas/formcraft/internal/errorz"
	"github.com/parisxmas/formcraft/internal/service"
)

type UploadHandler struct {
	uploads  *service.UploadService
	forms    *service.FormService
	maxBytes int64
	log      *zap.Logger
}

func NewUploadHandler(uploads *service.UploadService, forms *service.FormService, maxBytes int64, log *zap.Logger) *UploadHandler {
	return &UploadHandler{uploads: uploads, forms: forms, maxBytes: maxBytes, log: log}
}

// Upload stores one respondent file sent as multipart fields "file" and
// "fieldId". The response is the reference to put in the field's answer.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+1<<20)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read file")
		return
	}
	up, err := h.uploads.Upload(r.Context(), chi.URLParam(r, "formId"), r.FormValue("fieldId"),
		header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		fail(w, h.log, err, "Failed to upload file")
		return
	}
	writeJSON(w, http.StatusCreated, up.Ref())
}

// Download serves a stored file to the owner of the form it belongs to.
func (h *UploadHandler) Download(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formId")
	if _, err := h.forms.GetOwnedForm(r.Context(), formID, uid(r)); err != nil {
		fail(w, h.log, err, "Failed to download file")
		return
	}
	up, err := h.uploads.Download(r.Context(), chi.URLParam(r, "uploadId"))
	if err == nil && up.FormID != formID {
		err = errorz.Newf(errorz.ErrNotFound, "upload not found")
	}
	if err != nil {
		fail(w, h.log, err, "Failed to download file")
		return
	}

	w.Header().Set("Content-Type", up.ContentType)
	w.Header().Set("Content-Disposition", attachment(up.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(up.Content)))
	w.Write(up.Content)
}
