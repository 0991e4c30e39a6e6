package merge

import (
	"reflect"
	"testing"
)

func ms(v int64) *int64 { return &v }

func cue(start, end int64, text string) Cue {
	return Cue{StartMs: ms(start), EndMs: ms(end), Text: text}
}

func file(cues ...Cue) ParsedFile { return ParsedFile{Cues: cues} }

func TestSequentialTwoFiles(t *testing.T) {
	res := Sequential([]ParsedFile{
		file(cue(0, 1000, "a")),
		file(cue(0, 1000, "b")),
	}, Options{})

	want := []MergedCue{
		{StartMs: 0, EndMs: 1000, Text: "a", SourceFileIndex: 0},
		{StartMs: 1000, EndMs: 2000, Text: "b", SourceFileIndex: 1},
	}
	if !reflect.DeepEqual(res.MergedCues, want) {
		t.Errorf("merged = %+v; want %+v", res.MergedCues, want)
	}
	if len(res.Warnings) != 0 || len(res.Errors) != 0 {
		t.Errorf("warnings = %v, errors = %v; want none", res.Warnings, res.Errors)
	}
}

func TestSequentialCumulativeShifts(t *testing.T) {
	// Three files with end times 1,683,760 / 1,800,000 / 1,306,220 ms.
	res := Sequential([]ParsedFile{
		file(cue(0, 1683760, "one")),
		file(cue(0, 1800000, "two")),
		file(cue(0, 1306220, "three")),
	}, Options{})

	if len(res.MergedCues) != 3 {
		t.Fatalf("got %d cues", len(res.MergedCues))
	}
	for i, wantStart := range []int64{0, 1683760, 3483760} {
		if res.MergedCues[i].StartMs != wantStart {
			t.Errorf("cue %d start = %d; want %d", i, res.MergedCues[i].StartMs, wantStart)
		}
	}
	if last := res.MergedCues[2].EndMs; last != 4789980 {
		t.Errorf("final end = %d; want 4789980", last)
	}
}

func TestSequentialOutputLengthEqualsInputSum(t *testing.T) {
	files := []ParsedFile{
		file(cue(0, 500, "a"), cue(600, 900, "b")),
		file(cue(0, 300, "c")),
		file(cue(0, 100, "d"), cue(150, 200, "e"), cue(250, 400, "f")),
	}
	res := Sequential(files, Options{})
	if len(res.MergedCues) != 6 {
		t.Errorf("got %d cues; want 6", len(res.MergedCues))
	}
}

func TestSequentialEndBeforeStartKept(t *testing.T) {
	res := Sequential([]ParsedFile{file(cue(2000, 1000, "backwards"))}, Options{})
	if len(res.MergedCues) != 1 {
		t.Fatalf("cue was dropped: %+v", res)
	}
	if !contains(res.Warnings, WarnCueEndBeforeStart) {
		t.Errorf("warnings = %v; want %s", res.Warnings, WarnCueEndBeforeStart)
	}
	if len(res.Errors) != 0 {
		t.Errorf("errors = %v; want none", res.Errors)
	}
}

func TestSequentialNegativeTimestamps(t *testing.T) {
	res := Sequential([]ParsedFile{file(cue(-1000, -500, "early"))}, Options{})
	if !contains(res.Errors, ErrNegativeTimestamps) {
		t.Errorf("errors = %v; want %s", res.Errors, ErrNegativeTimestamps)
	}
	// reported once even with several negative cues
	res = Sequential([]ParsedFile{file(cue(-1000, -500, "a"), cue(-400, -100, "b"))}, Options{})
	if n := count(res.Errors, ErrNegativeTimestamps); n != 1 {
		t.Errorf("negative_timestamps reported %d times; want 1", n)
	}
}

func TestSequentialEmptyInput(t *testing.T) {
	res := Sequential(nil, Options{})
	if len(res.MergedCues) != 0 {
		t.Errorf("merged = %+v; want empty", res.MergedCues)
	}
	if !contains(res.Errors, ErrNoFilesUploaded) {
		t.Errorf("errors = %v; want %s", res.Errors, ErrNoFilesUploaded)
	}
	if !contains(res.Warnings, WarnNoFiles) {
		t.Errorf("warnings = %v; want %s", res.Warnings, WarnNoFiles)
	}
}

func TestSequentialEmptyFileWarns(t *testing.T) {
	res := Sequential([]ParsedFile{
		file(),
		file(cue(0, 1000, "only")),
	}, Options{})
	if !contains(res.Warnings, "file_0_no_cues") {
		t.Errorf("warnings = %v; want file_0_no_cues", res.Warnings)
	}
	// the empty file contributes no shift
	if res.MergedCues[0].StartMs != 0 {
		t.Errorf("start = %d; want 0", res.MergedCues[0].StartMs)
	}
}

func TestSequentialMalformedCueSkipped(t *testing.T) {
	res := Sequential([]ParsedFile{
		{Cues: []Cue{
			{StartMs: ms(0), EndMs: nil, Text: "broken"},
			cue(100, 200, "fine"),
		}},
	}, Options{})
	if len(res.MergedCues) != 1 || res.MergedCues[0].Text != "fine" {
		t.Errorf("merged = %+v; want only the intact cue", res.MergedCues)
	}
	if !contains(res.Warnings, "file_0_malformed_cue") {
		t.Errorf("warnings = %v; want file_0_malformed_cue", res.Warnings)
	}
}

func TestSequentialPerFileOffsetOverride(t *testing.T) {
	// The override replaces file 0's advancement but leaves its own cues
	// untouched.
	res := Sequential([]ParsedFile{
		file(cue(0, 1000, "a")),
		file(cue(0, 1000, "b")),
	}, Options{PerFileOffsetMs: map[int]int64{0: 5000}})

	if res.MergedCues[0].StartMs != 0 || res.MergedCues[0].EndMs != 1000 {
		t.Errorf("file 0 cue moved: %+v", res.MergedCues[0])
	}
	if res.MergedCues[1].StartMs != 5000 {
		t.Errorf("file 1 start = %d; want 5000", res.MergedCues[1].StartMs)
	}
}

func TestSequentialNegativeOffsetIgnored(t *testing.T) {
	res := Sequential([]ParsedFile{
		file(cue(0, 1000, "a")),
		file(cue(0, 1000, "b")),
	}, Options{PerFileOffsetMs: map[int]int64{0: -250}})

	// falls back to the computed duration
	if res.MergedCues[1].StartMs != 1000 {
		t.Errorf("file 1 start = %d; want 1000", res.MergedCues[1].StartMs)
	}
	if !contains(res.Warnings, "file_0_invalid_offset") {
		t.Errorf("warnings = %v; want file_0_invalid_offset", res.Warnings)
	}
}

func TestSequentialOffsetOnEmptyFileStillAdvances(t *testing.T) {
	res := Sequential([]ParsedFile{
		file(),
		file(cue(0, 1000, "b")),
	}, Options{PerFileOffsetMs: map[int]int64{0: 3000}})
	if res.MergedCues[0].StartMs != 3000 {
		t.Errorf("start = %d; want 3000", res.MergedCues[0].StartMs)
	}
}

func TestSequentialSpanFallbackDuration(t *testing.T) {
	// File 0's cues have starts but no usable ends, so its advancement
	// derives from the span of its known timestamps.
	res := Sequential([]ParsedFile{
		{Cues: []Cue{
			{StartMs: ms(1000), EndMs: nil, Text: "x"},
			{StartMs: ms(4000), EndMs: nil, Text: "y"},
		}},
		file(cue(0, 1000, "b")),
	}, Options{})
	// span = 4000 - 1000
	if res.MergedCues[0].StartMs != 3000 {
		t.Errorf("file 1 start = %d; want 3000", res.MergedCues[0].StartMs)
	}
}

func TestSequentialSortFinalByStart(t *testing.T) {
	files := []ParsedFile{
		file(cue(0, 10000, "long")),
		file(cue(0, 500, "early"), cue(600, 900, "later")),
	}

	res := Sequential(files, Options{})
	order := texts(res.MergedCues)
	if !reflect.DeepEqual(order, []string{"long", "early", "later"}) {
		t.Errorf("unsorted order = %v", order)
	}

	res = Sequential(files, Options{SortFinalByStart: true})
	for j := 1; j < len(res.MergedCues); j++ {
		if res.MergedCues[j].StartMs < res.MergedCues[j-1].StartMs {
			t.Errorf("sorted output not non-decreasing: %+v", res.MergedCues)
		}
	}
}

func TestSequentialSameFileOverlapWarns(t *testing.T) {
	res := Sequential([]ParsedFile{
		file(cue(0, 2000, "a"), cue(1500, 3000, "b")),
	}, Options{})
	if !contains(res.Warnings, WarnOverlapDetected) {
		t.Errorf("warnings = %v; want %s", res.Warnings, WarnOverlapDetected)
	}
}

func TestSequentialCrossFileOverlapIgnored(t *testing.T) {
	// Force cross-file interleaving with a zero override, then sort: cues
	// from different files overlapping is expected under offset modes and
	// not flagged.
	res := Sequential([]ParsedFile{
		file(cue(0, 2000, "a")),
		file(cue(500, 1500, "b")),
	}, Options{PerFileOffsetMs: map[int]int64{0: 0}, SortFinalByStart: true})
	if contains(res.Warnings, WarnOverlapDetected) {
		t.Errorf("warnings = %v; cross-file overlap must not be flagged", res.Warnings)
	}
}

func TestSequentialUseEffectiveEndIsNoOp(t *testing.T) {
	// Reserved flag: currently equivalent to the default strategy.
	files := []ParsedFile{
		file(cue(0, 1000, "a"), cue(1200, 2500, "b")),
		file(cue(0, 700, "c")),
	}
	plain := Sequential(files, Options{})
	flagged := Sequential(files, Options{UseEffectiveEnd: true})
	if !reflect.DeepEqual(plain, flagged) {
		t.Errorf("UseEffectiveEnd changed the result: %+v vs %+v", plain, flagged)
	}
}

func texts(cues []MergedCue) []string {
	out := make([]string, len(cues))
	for i, c := range cues {
		out[i] = c.Text
	}
	return out
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func count(list []string, want string) int {
	n := 0
	for _, s := range list {
		if s == want {
			n++
		}
	}
	return n
}
