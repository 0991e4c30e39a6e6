package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/subtitle-merge/backend/internal/storage"
)

// extractPath extracts and URL-decodes the wildcard path from chi router
func extractPath(r *http.Request) string {
	path := chi.URLParam(r, "*")
	decoded, err := url.PathUnescape(path)
	if err != nil {
		return path
	}
	// Clean any double slashes or trailing slashes
	decoded = strings.TrimPrefix(decoded, "/")
	decoded = strings.TrimSuffix(decoded, "/")
	return decoded
}

type FilesHandler struct {
	libraryPath string
}

func NewFilesHandler(libraryPath string) *FilesHandler {
	return &FilesHandler{libraryPath: libraryPath}
}

// GetTree lists one level of the subtitle library
func (h *FilesHandler) GetTree(w http.ResponseWriter, r *http.Request) {
	path := extractPath(r)
	if path == "" {
		path = "."
	}

	entries, err := storage.ListDirectory(h.libraryPath, path)
	if err != nil {
		jsonError(w, "failed to list directory", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []*storage.FileEntry{}
	}

	jsonResponse(w, map[string]interface{}{
		"path":    path,
		"entries": entries,
	}, http.StatusOK)
}

// Search finds subtitle files in the library by name
func (h *FilesHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if len(query) < 2 {
		jsonError(w, "query too short", http.StatusBadRequest)
		return
	}

	results, err := storage.Search(h.libraryPath, query, 50)
	if err != nil {
		jsonError(w, "search failed", http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []*storage.FileEntry{}
	}

	jsonResponse(w, results, http.StatusOK)
}
