package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/subtitle-merge/backend/internal/api/middleware"
	"github.com/subtitle-merge/backend/internal/db"
	"github.com/subtitle-merge/backend/internal/db/models"
	"github.com/subtitle-merge/backend/internal/storage"
	"github.com/subtitle-merge/backend/internal/subtitle/merge"
)

// maxUploadFiles caps how many subtitle files one merge request may carry
const maxUploadFiles = 100

type MergeHandler struct {
	db          *db.Database
	libraryPath string
}

func NewMergeHandler(database *db.Database, libraryPath string) *MergeHandler {
	return &MergeHandler{db: database, libraryPath: libraryPath}
}

type mergeRequest struct {
	Files []merge.SourceFile `json:"files"`
}

// mergeResponse is the raw-text merge result plus the ID of its history
// record
type mergeResponse struct {
	ID string `json:"id"`
	merge.DocumentResult
}

// Merge runs the raw-text merge over files supplied in the JSON body and
// persists the run to the history
func (h *MergeHandler) Merge(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Files) == 0 {
		jsonError(w, "no files supplied", http.StatusBadRequest)
		return
	}
	if len(req.Files) > maxUploadFiles {
		jsonError(w, "too many files", http.StatusBadRequest)
		return
	}

	h.runAndRespond(w, r, req.Files)
}

// MergeUpload is the multipart variant of Merge for browser form uploads.
// Files are merged in the order the form sends them.
func (h *MergeHandler) MergeUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		jsonError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File["files"]) == 0 {
		jsonError(w, "no files supplied", http.StatusBadRequest)
		return
	}

	parts := r.MultipartForm.File["files"]
	if len(parts) > maxUploadFiles {
		jsonError(w, "too many files", http.StatusBadRequest)
		return
	}

	var files []merge.SourceFile
	for _, part := range parts {
		f, err := part.Open()
		if err != nil {
			jsonError(w, "failed to read upload: "+part.Filename, http.StatusBadRequest)
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			jsonError(w, "failed to read upload: "+part.Filename, http.StatusBadRequest)
			return
		}
		files = append(files, merge.SourceFile{Name: part.Filename, Content: string(content)})
	}

	h.runAndRespond(w, r, files)
}

type mergeLibraryRequest struct {
	Paths []string `json:"paths"`
}

// MergeLibrary merges subtitle files already stored in the library,
// referenced by relative path and merged in the given order
func (h *MergeHandler) MergeLibrary(w http.ResponseWriter, r *http.Request) {
	var req mergeLibraryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Paths) == 0 {
		jsonError(w, "no paths supplied", http.StatusBadRequest)
		return
	}

	files, err := LoadLibraryFiles(h.libraryPath, req.Paths)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.runAndRespond(w, r, files)
}

func (h *MergeHandler) runAndRespond(w http.ResponseWriter, r *http.Request, files []merge.SourceFile) {
	result := merge.Documents(files)

	var userID int64
	if claims := middleware.GetClaims(r); claims != nil {
		userID = claims.UserID
	}

	id, err := SaveMergeResult(h.db, userID, files, result)
	if err != nil {
		jsonError(w, "failed to save merge: "+err.Error(), http.StatusInternalServerError)
		return
	}

	jsonResponse(w, mergeResponse{ID: id, DocumentResult: result}, http.StatusOK)
}

// LoadLibraryFiles reads library subtitle files into merge inputs, keeping
// the requested order. Shared with the batch merge job.
func LoadLibraryFiles(libraryPath string, paths []string) ([]merge.SourceFile, error) {
	var files []merge.SourceFile
	for _, p := range paths {
		content, err := storage.ReadSubtitle(libraryPath, p)
		if err != nil {
			return nil, err
		}
		files = append(files, merge.SourceFile{Name: p, Content: content})
	}
	return files, nil
}

// SaveMergeResult persists one merge run and returns the new record's ID.
// Shared with the batch merge job.
func SaveMergeResult(database *db.Database, userID int64, files []merge.SourceFile, result merge.DocumentResult) (string, error) {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	diagnostics, err := json.Marshal(result.Diagnostics)
	if err != nil {
		return "", err
	}

	rec := &models.MergeRecord{
		ID:             uuid.New().String(),
		CreatedBy:      userID,
		SourceNames:    names,
		FilesProcessed: result.Stats.FilesProcessed,
		InputCues:      result.Stats.TotalInputCues,
		OutputCues:     result.Stats.TotalOutputCues,
		ParseIssues:    result.Stats.ParseIssuesCount,
		Document:       result.MergedDocument,
		Diagnostics:    diagnostics,
	}
	if err := database.SaveMerge(rec); err != nil {
		return "", err
	}
	return rec.ID, nil
}

type sequentialRequest struct {
	Files   []merge.ParsedFile `json:"files"`
	Options merge.Options      `json:"options"`
}

// MergeSequential runs the typed merge over pre-parsed cues. This surface
// feeds programmatic pipelines and is not persisted to the history.
func (h *MergeHandler) MergeSequential(w http.ResponseWriter, r *http.Request) {
	var req sequentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	result := merge.Sequential(req.Files, req.Options)
	jsonResponse(w, result, http.StatusOK)
}
