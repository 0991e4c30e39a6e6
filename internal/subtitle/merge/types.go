// Package merge concatenates subtitle files into one continuous timeline.
//
// Two surfaces exist: Sequential works on already-typed cues and returns a
// typed result, Documents works on raw SRT text end to end and additionally
// returns the serialized merged document plus an audit trail of every
// timestamp it had to correct. Neither path ever panics or returns a Go
// error for malformed input: problems come back as data (string codes and
// diagnostics) so a host can decide how to surface them.
package merge

import "fmt"

// Error and warning codes returned by Sequential. Per-file codes are built
// with the helpers below so the file index travels inside the code itself.
const (
	ErrNoFilesUploaded    = "no_files_uploaded"
	ErrNegativeTimestamps = "negative_timestamps"

	WarnNoFiles           = "no_files"
	WarnCueEndBeforeStart = "cue_end_before_start"
	WarnOverlapDetected   = "overlap_detected"
)

func warnFileNoCues(i int) string        { return fmt.Sprintf("file_%d_no_cues", i) }
func warnFileMalformedCue(i int) string  { return fmt.Sprintf("file_%d_malformed_cue", i) }
func warnFileInvalidOffset(i int) string { return fmt.Sprintf("file_%d_invalid_offset", i) }

// Cue is one caption entry as supplied by a caller. Start and end are
// pointers so upstream components can hand over cues whose timing never
// resolved; such cues are skipped with a warning instead of failing the
// merge.
type Cue struct {
	StartMs *int64 `json:"startMs"`
	EndMs   *int64 `json:"endMs"`
	Text    string `json:"text"`
}

// ParsedFile is one pre-typed input file for Sequential. A file with zero
// cues is valid but draws a warning when merged.
type ParsedFile struct {
	Filename string         `json:"filename,omitempty"`
	Cues     []Cue          `json:"cues"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// MergedCue is a fully resolved output cue, stamped with the index of the
// file it came from.
type MergedCue struct {
	StartMs         int64  `json:"startMs"`
	EndMs           int64  `json:"endMs"`
	Text            string `json:"text"`
	SourceFileIndex int    `json:"sourceFileIndex"`
}

// Options tunes Sequential.
type Options struct {
	// PerFileOffsetMs overrides the computed duration used to advance the
	// cumulative shift for the given file index. It changes how much the
	// *following* files shift, never the file's own cues. Negative values
	// are invalid and ignored with a warning.
	PerFileOffsetMs map[int]int64 `json:"perFileOffsetMs,omitempty"`

	// UseEffectiveEnd is a reserved toggle for an alternate duration
	// strategy; it currently has no effect.
	UseEffectiveEnd bool `json:"useEffectiveEndMs,omitempty"`

	// SortFinalByStart stable-sorts the flattened output by start time.
	// Default is off: file-then-cue input order is preserved.
	SortFinalByStart bool `json:"sortFinalByStart,omitempty"`
}

// Result is what Sequential returns. The call always completes: Errors
// flags results the caller should not present as successful, Warnings flag
// oddities that were tolerated.
type Result struct {
	MergedCues []MergedCue `json:"mergedCues"`
	Warnings   []string    `json:"warnings"`
	Errors     []string    `json:"errors"`
}

// SourceFile is one raw input for Documents.
type SourceFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Action classifies what happened to a block's timestamp line.
type Action string

const (
	// ActionNormal: the emitted line is the original, only shifted.
	ActionNormal Action = "normal"
	// ActionNormalized: the line parsed but its spelling changed during
	// re-rendering (irregular arrow spacing, period separators, short
	// fields).
	ActionNormalized Action = "normalized"
	// ActionFallback: the line was unrecoverable and a synthesized one took
	// its place.
	ActionFallback Action = "fallback"
)

// Diagnostic records one non-trivial correction with enough provenance to
// find and hand-fix the source line. Normal blocks are not recorded; this is
// an audit log of exceptions, not a full trace.
type Diagnostic struct {
	SourceFile           string `json:"sourceFile"`
	OriginalIndex        *int   `json:"originalIndex"` // nil when the block had none
	OriginalTimecodeLine string `json:"originalTimecodeLine"`
	FinalIndex           int    `json:"finalIndex"`
	FinalTimecodeLine    string `json:"finalTimecodeLine"`
	Action               Action `json:"action"`
	Reason               string `json:"reason,omitempty"`
}

// Stats summarizes one Documents call.
type Stats struct {
	TotalInputCues   int `json:"totalInputCues"`
	TotalOutputCues  int `json:"totalOutputCues"`
	ParseIssuesCount int `json:"parseIssuesCount"`
	FilesProcessed   int `json:"filesProcessed"`
}

// DocumentResult is what Documents returns.
type DocumentResult struct {
	MergedDocument string       `json:"mergedDocument"`
	Diagnostics    []Diagnostic `json:"diagnostics"`
	Stats          Stats        `json:"stats"`
}
