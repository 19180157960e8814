package handler

import (
	"net/http"

	"github.com/parisxmas/formcraft/internal/auth"
)

// Me returns the identity carried by the session token.
func Me(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// SignOut expires the session cookie. Bearer tokens stay valid until they
// expire.
func SignOut(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	writeJSON(w, http.StatusOK, map[string]bool{"signedOut": true})
}
