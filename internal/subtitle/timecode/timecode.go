// Package timecode parses, formats and shifts SRT time codes.
//
// All arithmetic is in integer milliseconds. Parsing is deliberately loose
// (comma or period separator, short hour fields, stray whitespace) because
// the merge pipeline has to survive hand-edited subtitle files; formatting
// is always canonical `HH:MM:SS,mmm`.
package timecode

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Arrow is the SRT start/end separator. Rendered output always uses the
// canonical single-spaced form; parsing accepts any spacing around it.
const Arrow = "-->"

var tokenRe = regexp.MustCompile(`^(\d+):(\d{1,2}):(\d{1,2})[.,](\d{1,3})$`)

// Parse converts a single time token ("HH:MM:SS,mmm", comma or period) into
// milliseconds. Surrounding whitespace is tolerated. Returns ok=false for
// anything malformed; it never panics on garbage input.
func Parse(token string) (int64, bool) {
	m := tokenRe.FindStringSubmatch(strings.TrimSpace(token))
	if m == nil {
		return 0, false
	}
	h, _ := strconv.ParseInt(m[1], 10, 64)
	min, _ := strconv.ParseInt(m[2], 10, 64)
	sec, _ := strconv.ParseInt(m[3], 10, 64)
	ms, _ := strconv.ParseInt(m[4], 10, 64)
	if min > 59 || sec > 59 {
		return 0, false
	}
	return h*3600000 + min*60000 + sec*1000 + ms, true
}

// Format renders milliseconds as a canonical zero-padded `HH:MM:SS,mmm`
// token. Negative input is clamped to zero; Parse(Format(x)) == x holds for
// every non-negative x.
func Format(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	h := ms / 3600000
	ms %= 3600000
	min := ms / 60000
	ms %= 60000
	sec := ms / 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, min, sec, ms%1000)
}

// ShiftLine splits a raw "start --> end" line on the arrow, shifts both
// sides by offsetMs and rejoins them canonically. Returns ok=false when the
// line does not have exactly two parseable sides. Because the output is
// re-rendered, a successful shift also normalizes irregular spacing and
// period separators; callers compare against the zero-shift rendering to
// detect that.
func ShiftLine(raw string, offsetMs int64) (string, bool) {
	parts := strings.Split(raw, Arrow)
	if len(parts) != 2 {
		return "", false
	}
	start, ok := Parse(parts[0])
	if !ok {
		return "", false
	}
	end, ok := Parse(parts[1])
	if !ok {
		return "", false
	}
	start += offsetMs
	end += offsetMs
	if start < 0 || end < 0 {
		return "", false
	}
	return Format(start) + " " + Arrow + " " + Format(end), true
}

// FallbackLine synthesizes a parseable timecode line for a block whose
// original line is unrecoverable. The start lands strictly after both the
// last emitted end of the merged timeline and the running offset, so a
// fallback cue never precedes or overlaps prior merged content. It never
// fails.
func FallbackLine(prevEndMs, cumulativeMs, gapMs, spanMs int64) string {
	start := prevEndMs
	if cumulativeMs > start {
		start = cumulativeMs
	}
	start += gapMs
	return Format(start) + " " + Arrow + " " + Format(start+spanMs)
}
