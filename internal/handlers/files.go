package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pairlink/pairlink/internal/blob"
)

const maxUploadBytes = 32 << 20

type FileHandler struct {
	Blobs *blob.Store
}

// Upload stores an attachment blob (already encrypted by the client) and
// returns the id the recipient fetches it by.
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		log.Printf("file upload failed: no file received")
		writeJSON(w, http.StatusBadRequest, map[string]any{"ok": false})
		return
	}
	defer file.Close()

	id, err := h.Blobs.Save(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	log.Printf("file uploaded: %s (saved as %s)", header.Filename, id)
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":           true,
		"fileId":       id,
		"originalName": header.Filename,
	})
}

func (h *FileHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	path, err := h.Blobs.Path(id)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			log.Printf("file not found: %s", id)
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	http.ServeFile(w, r, path)
}
