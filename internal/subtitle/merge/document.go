package merge

import (
	"strconv"
	"strings"

	"github.com/subtitle-merge/backend/internal/subtitle/srt"
	"github.com/subtitle-merge/backend/internal/subtitle/timecode"
)

// Fallback synthesis tuning. A replaced block starts fallbackGapMs after the
// merged timeline's last known end and runs for fallbackSpanMs.
const (
	fallbackGapMs  = 500
	fallbackSpanMs = 2000
)

// emptyTextPlaceholder stands in for a block whose caption lines are all
// empty, so no emitted cue is ever literally blank.
const emptyTextPlaceholder = "[no text]"

// docState is the accumulator threaded through the whole raw-text merge.
// cumulativeMs is the sum of prior files' local durations; lastMergedEndMs
// is the most recent resolved end on the global timeline and anchors
// fallback synthesis.
type docState struct {
	cumulativeMs    int64
	lastMergedEndMs int64
	nextIndex       int
	parseIssues     int
	out             strings.Builder
	diagnostics     []Diagnostic
	inputCues       int
	outputCues      int
}

// Documents merges raw subtitle file contents end to end: parse, shift (or
// repair) every block's timestamp line, renumber sequentially and serialize.
// Every block of every file survives into the output; unparseable timestamp
// lines are replaced, never dropped, and each replacement or normalization
// is recorded in the diagnostics.
func Documents(files []SourceFile) DocumentResult {
	st := docState{nextIndex: 1, diagnostics: []Diagnostic{}}
	for _, f := range files {
		st = mergeDocument(st, f)
	}
	return DocumentResult{
		MergedDocument: st.out.String(),
		Diagnostics:    st.diagnostics,
		Stats: Stats{
			TotalInputCues:   st.inputCues,
			TotalOutputCues:  st.outputCues,
			ParseIssuesCount: st.parseIssues,
			FilesProcessed:   len(files),
		},
	}
}

// mergeDocument folds one file into the accumulator: every block is shifted
// by the cumulative offset accrued before this file, and the file's own
// maximum end time (on its local, unshifted timeline) becomes its
// contribution to the offset of the files after it.
func mergeDocument(st docState, f SourceFile) docState {
	blocks := srt.Parse(f.Content)
	st.inputCues += len(blocks)

	var localMaxEnd int64
	for _, b := range blocks {
		line, action := resolveTimecode(&st, b.TimecodeLine)

		if action != ActionFallback {
			// The original line parsed; its unshifted end time is evidence
			// of the file's local duration. Synthesized lines aren't: they
			// live on the global timeline and say nothing about this file.
			if end, ok := localEnd(b.TimecodeLine); ok && end > localMaxEnd {
				localMaxEnd = end
			}
		}
		if end, ok := localEnd(line); ok {
			st.lastMergedEndMs = end
		}

		if action != ActionNormal {
			st.diagnostics = append(st.diagnostics, Diagnostic{
				SourceFile:           f.Name,
				OriginalIndex:        originalIndex(b),
				OriginalTimecodeLine: b.TimecodeLine,
				FinalIndex:           st.nextIndex,
				FinalTimecodeLine:    line,
				Action:               action,
				Reason:               reasonFor(action),
			})
		}

		writeBlock(&st.out, st.nextIndex, line, b.TextLines)
		st.nextIndex++
		st.outputCues++
	}

	st.cumulativeMs += localMaxEnd
	return st
}

// resolveTimecode shifts the raw line by the running offset, or synthesizes
// a replacement when it cannot be parsed. It classifies the outcome: normal
// when the emitted line is the original plus the shift, normalized when the
// re-rendering changed the line's spelling in any way.
func resolveTimecode(st *docState, raw string) (string, Action) {
	shifted, ok := timecode.ShiftLine(raw, st.cumulativeMs)
	if !ok {
		st.parseIssues++
		return timecode.FallbackLine(st.lastMergedEndMs, st.cumulativeMs, fallbackGapMs, fallbackSpanMs), ActionFallback
	}
	canonical, _ := timecode.ShiftLine(raw, 0)
	if canonical == raw {
		return shifted, ActionNormal
	}
	return shifted, ActionNormalized
}

func reasonFor(a Action) string {
	switch a {
	case ActionNormalized:
		return "irregular timecode formatting"
	case ActionFallback:
		return "unparseable timecode line"
	}
	return ""
}

// localEnd extracts the end-time side of a timecode line, in that line's own
// timeline.
func localEnd(line string) (int64, bool) {
	parts := strings.Split(line, timecode.Arrow)
	if len(parts) != 2 {
		return 0, false
	}
	return timecode.Parse(parts[1])
}

func originalIndex(b srt.Block) *int {
	if !b.HasIndex {
		return nil
	}
	idx := b.Index
	return &idx
}

// writeBlock serializes one emitted block: index, timecode line, caption
// lines, blank separator. All-empty captions get the placeholder line.
func writeBlock(sb *strings.Builder, index int, line string, textLines []string) {
	sb.WriteString(strconv.Itoa(index))
	sb.WriteByte('\n')
	sb.WriteString(line)
	sb.WriteByte('\n')

	empty := true
	for _, t := range textLines {
		if strings.TrimSpace(t) != "" {
			empty = false
			break
		}
	}
	if empty {
		sb.WriteString(emptyTextPlaceholder)
		sb.WriteByte('\n')
	} else {
		for _, t := range textLines {
			sb.WriteString(t)
			sb.WriteByte('\n')
		}
	}
	sb.WriteByte('\n')
}
