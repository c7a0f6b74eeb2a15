package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pairlink/pairlink/internal/auth"
	"github.com/pairlink/pairlink/internal/identity"
)

type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthHandler struct {
	Directory *identity.Directory
}

// Login checks credentials against the fixed user directory and sets the
// signed session cookie on success. Failures come back as
// {ok:false, message} with a 401, never as a relay-level fault.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Directory.Verify(creds.Username, creds.Password); err != nil {
		message := "invalid password"
		if errors.Is(err, identity.ErrUnknownUser) {
			message = "unknown user"
		}
		writeJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "message": message})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    auth.Sign(creds.Username),
		Path:     "/",
		HttpOnly: true,
	})

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "username": creds.Username})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
