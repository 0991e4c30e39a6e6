// Package srt turns raw SRT text into an ordered sequence of blocks without
// ever failing. Damaged files are the normal case here: missing indices,
// missing or mangled timestamp lines and blank lines inside captions all
// produce blocks, and judging their correctness is left to the merge layer's
// diagnostics.
package srt

import (
	"regexp"
	"strconv"
	"strings"
)

// Block is one not-yet-typed subtitle entry as found in the file. The
// timestamp line is kept verbatim so the merge layer can tell a clean line
// apart from one it had to normalize or replace.
type Block struct {
	Index        int      // original index; meaningless when HasIndex is false
	HasIndex     bool
	TimecodeLine string   // raw "start --> end" line, "" when absent
	TextLines    []string // caption lines, may contain interior empty strings
}

// parser states
type state int

const (
	expectingIndex state = iota // initial: nothing open yet
	expectingTimestamp          // block open, waiting for its timestamp line
	readingText                 // block open, appending caption lines
)

var digitsRe = regexp.MustCompile(`^\d+$`)

// timestampLikeRe matches anything resembling an H:MM:SS time, used to spot
// timestamp lines that lack the arrow separator.
var timestampLikeRe = regexp.MustCompile(`\d{1,2}:\d{2}:\d{2}`)

func isIndexLine(trimmed string) bool {
	return trimmed != "" && digitsRe.MatchString(trimmed)
}

func isTimestampLine(line string) bool {
	return strings.Contains(line, "-->") || timestampLikeRe.MatchString(line)
}

// Parse runs a single-pass state machine over the raw text and returns every
// block it can find, in file order. It never fails: worst case a block comes
// back with a missing timestamp or empty text. Both \n and \r\n line endings
// are accepted.
func Parse(content string) []Block {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	var blocks []Block
	var cur *Block
	st := expectingIndex

	flush := func() {
		if cur == nil {
			return
		}
		// Drop trailing blank lines: they are block separators, not caption
		// text. Interior blanks stay.
		for len(cur.TextLines) > 0 && strings.TrimSpace(cur.TextLines[len(cur.TextLines)-1]) == "" {
			cur.TextLines = cur.TextLines[:len(cur.TextLines)-1]
		}
		blocks = append(blocks, *cur)
		cur = nil
	}

	open := func(index int, hasIndex bool) {
		// A block holding neither a timestamp nor text was just a stray
		// number; it is overwritten rather than emitted.
		if cur != nil && (cur.TimecodeLine != "" || len(cur.TextLines) > 0) {
			flush()
		}
		cur = &Block{Index: index, HasIndex: hasIndex}
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		switch {
		case isIndexLine(trimmed):
			// A bare number inside a block that never got its timestamp is
			// caption text, not the next index: without a timestamp boundary
			// there is no evidence a new block started.
			if st == readingText && cur != nil && cur.TimecodeLine == "" {
				cur.TextLines = append(cur.TextLines, line)
				continue
			}
			idx, _ := strconv.Atoi(trimmed)
			open(idx, true)
			st = expectingTimestamp

		case st == expectingTimestamp && isTimestampLine(line):
			cur.TimecodeLine = line
			st = readingText

		case st == expectingIndex && isTimestampLine(line):
			// File starts straight at a timestamp: tolerate the missing
			// index.
			open(0, false)
			cur.TimecodeLine = line
			st = readingText

		case st == expectingIndex && trimmed == "":
			// Blank preamble before the first block.

		case st == expectingTimestamp && trimmed == "":
			// Stray blank between an index and its timestamp; the timestamp
			// may still follow.

		default:
			// Caption text. In the initial posture this is preamble (BOM
			// junk, stray headers) and is skipped; anywhere else a missing
			// block is synthesized index-less so the text is not lost.
			if cur == nil {
				if st == expectingIndex {
					continue
				}
				open(0, false)
			}
			cur.TextLines = append(cur.TextLines, line)
			st = readingText
		}
	}

	flush()
	return blocks
}
