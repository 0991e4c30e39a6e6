package models

import (
	"encoding/json"
	"time"
)

// MergeRecord is one persisted merge run. Document holds the full serialized
// SRT and is omitted from list views; Diagnostics and SourceNames are stored
// as JSON columns.
type MergeRecord struct {
	ID             string          `json:"id"`
	CreatedBy      int64           `json:"created_by"`
	SourceNames    []string        `json:"source_names"`
	FilesProcessed int             `json:"files_processed"`
	InputCues      int             `json:"input_cues"`
	OutputCues     int             `json:"output_cues"`
	ParseIssues    int             `json:"parse_issues"`
	Document       string          `json:"document,omitempty"`
	Diagnostics    json.RawMessage `json:"diagnostics,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}
