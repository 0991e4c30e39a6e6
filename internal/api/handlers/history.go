package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/subtitle-merge/backend/internal/db"
	"github.com/subtitle-merge/backend/internal/db/models"
)

type HistoryHandler struct {
	db *db.Database
}

func NewHistoryHandler(database *db.Database) *HistoryHandler {
	return &HistoryHandler{db: database}
}

// ListMerges returns recent merge runs without their document bodies
func (h *HistoryHandler) ListMerges(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit <= 0 {
		limit, _ = strconv.Atoi(h.db.GetSetting("history_limit", ""))
	}
	records, err := h.db.ListMerges(limit)
	if err != nil {
		jsonError(w, "failed to list merges: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*models.MergeRecord{}
	}
	jsonResponse(w, records, http.StatusOK)
}

// GetMerge returns one merge run including document and diagnostics
func (h *HistoryHandler) GetMerge(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	jsonResponse(w, rec, http.StatusOK)
}

// DownloadDocument serves the merged SRT as a file attachment
func (h *HistoryHandler) DownloadDocument(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="merged-%s.srt"`, rec.ID))
	w.Write([]byte(rec.Document))
}

// DownloadDiagnostics serves the correction audit trail as a JSON attachment
func (h *HistoryHandler) DownloadDiagnostics(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="diagnostics-%s.json"`, rec.ID))
	w.Write(rec.Diagnostics)
}

// DeleteMerge removes a merge run from the history
func (h *HistoryHandler) DeleteMerge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, "missing merge ID", http.StatusBadRequest)
		return
	}
	if err := h.db.DeleteMerge(id); err != nil {
		jsonError(w, "failed to delete merge: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HistoryHandler) load(w http.ResponseWriter, r *http.Request) (*models.MergeRecord, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		jsonError(w, "missing merge ID", http.StatusBadRequest)
		return nil, false
	}
	rec, err := h.db.GetMerge(id)
	if err != nil {
		jsonError(w, "merge not found", http.StatusNotFound)
		return nil, false
	}
	return rec, true
}
