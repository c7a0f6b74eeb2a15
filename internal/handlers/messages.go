package handlers

import (
	"net/http"
	"strconv"

	"github.com/pairlink/pairlink/internal/store"
)

type MessageHandler struct {
	Ledger store.Ledger
}

// GetMessages serves the pull-based history: every envelope with ts after
// the "since" cursor, in insertion order. Clients restart the cursor by
// calling again with a newer value.
func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	since := int64(0)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "invalid since parameter", http.StatusBadRequest)
			return
		}
		since = parsed
	}

	messages, err := h.Ledger.Since(since)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "messages": messages})
}
