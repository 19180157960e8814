package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/parisxmas/formcraft/internal/errorz"
	"github.com/parisxmas/formcraft/internal/service"
)

// maxJSONBody bounds request bodies decoded by readJSON.
const maxJSONBody = 1 << 20

func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps an error class to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errorz.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, errorz.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errorz.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, errorz.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// fail answers a failed operation with its fixed message. Client errors
// also carry the reason and, for rejected answers, the per-field messages;
// server errors are logged and their cause is not exposed.
func fail(w http.ResponseWriter, log *zap.Logger, err error, msg string) {
	status := statusFor(err)
	body := map[string]any{"error": msg}
	if status == http.StatusInternalServerError {
		log.Error(msg, zap.Error(err))
		writeJSON(w, status, body)
		return
	}
	log.Debug(msg, zap.Int("status", status), zap.Error(err))
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		body["fields"] = verr.Fields
	} else if reason := errorz.Reason(err); reason != "" {
		body["reason"] = reason
	}
	writeJSON(w, status, body)
}

// intQuery reads a non-negative integer query parameter.
func intQuery(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 0 {
		return def
	}
	return n
}

// attachment builds a Content-Disposition value, quoting and escaping name
// as needed.
func attachment(name string) string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}
