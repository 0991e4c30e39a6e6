package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/subtitle-merge/backend/internal/db"
)

// settingsKeys defines which keys are allowed and their display metadata
var settingsKeys = []SettingDef{
	{Key: "site_name", Label: "Site Name", Group: "general", Placeholder: "Subtitle Merge"},
	{Key: "library_name", Label: "Library Display Name", Group: "general", Placeholder: "Subtitle Library"},
	{Key: "history_limit", Label: "History List Size", Group: "history", Placeholder: "50"},
}

type SettingDef struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Group       string `json:"group"`
	Placeholder string `json:"placeholder"`
}

type SettingsHandler struct {
	database *db.Database
}

func NewSettingsHandler(database *db.Database) *SettingsHandler {
	return &SettingsHandler{database: database}
}

// GetSettings returns all settings with their metadata
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	all, err := h.database.GetAllSettings()
	if err != nil {
		jsonError(w, "failed to load settings", http.StatusInternalServerError)
		return
	}

	type SettingResponse struct {
		SettingDef
		Value    string `json:"value"`
		HasValue bool   `json:"has_value"`
	}

	result := []SettingResponse{}
	for _, def := range settingsKeys {
		val := all[def.Key]
		result = append(result, SettingResponse{
			SettingDef: def,
			Value:      val,
			HasValue:   val != "",
		})
	}

	jsonResponse(w, result, http.StatusOK)
}

// UpdateSettings upserts the provided key/value pairs
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	allowed := make(map[string]bool, len(settingsKeys))
	for _, def := range settingsKeys {
		allowed[def.Key] = true
	}

	for k, v := range req {
		if !allowed[k] {
			jsonError(w, "unknown setting: "+k, http.StatusBadRequest)
			return
		}
		if err := h.database.SetSetting(k, v); err != nil {
			jsonError(w, "failed to save setting: "+k, http.StatusInternalServerError)
			return
		}
	}

	jsonResponse(w, map[string]string{"status": "ok"}, http.StatusOK)
}
