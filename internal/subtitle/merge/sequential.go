package merge

import "sort"

// seqState is the accumulator threaded through the file list. Each file's
// shift is the cumulative duration of everything before it, so the fold is
// inherently left-to-right and must not be reordered.
type seqState struct {
	cumulativeMs int64
	merged       []MergedCue
	warnings     []string
}

// Sequential concatenates pre-typed files onto one timeline. It never
// returns a Go error: an empty input list, malformed cues and timing
// violations all come back as codes in the result.
func Sequential(files []ParsedFile, opts Options) Result {
	res := Result{MergedCues: []MergedCue{}, Warnings: []string{}, Errors: []string{}}
	if len(files) == 0 {
		res.Errors = append(res.Errors, ErrNoFilesUploaded)
		res.Warnings = append(res.Warnings, WarnNoFiles)
		return res
	}

	st := seqState{merged: res.MergedCues, warnings: res.Warnings}
	for i, f := range files {
		st = mergeOneFile(st, i, f, opts)
	}
	res.MergedCues = st.merged
	res.Warnings = st.warnings

	if opts.SortFinalByStart {
		sort.SliceStable(res.MergedCues, func(a, b int) bool {
			return res.MergedCues[a].StartMs < res.MergedCues[b].StartMs
		})
	}

	validate(&res)
	return res
}

// mergeOneFile applies the state's current shift to every cue of file i and
// returns the state advanced by the file's contribution.
func mergeOneFile(st seqState, i int, f ParsedFile, opts Options) seqState {
	shift := st.cumulativeMs

	if len(f.Cues) == 0 {
		st.warnings = append(st.warnings, warnFileNoCues(i))
	}
	for _, c := range f.Cues {
		if c.StartMs == nil || c.EndMs == nil {
			st.warnings = append(st.warnings, warnFileMalformedCue(i))
			continue
		}
		st.merged = append(st.merged, MergedCue{
			StartMs:         *c.StartMs + shift,
			EndMs:           *c.EndMs + shift,
			Text:            c.Text,
			SourceFileIndex: i,
		})
	}

	advance, ok := fileAdvance(i, f, opts)
	if !ok {
		st.warnings = append(st.warnings, warnFileInvalidOffset(i))
	}
	st.cumulativeMs += advance
	return st
}

// fileAdvance picks how much file i moves the cumulative shift for the files
// after it, in priority order: explicit override, max end time, the span of
// the file's known timestamps, else nothing. ok=false reports a rejected
// (negative) override; the computed duration is used in its place.
func fileAdvance(i int, f ParsedFile, opts Options) (int64, bool) {
	ok := true
	if off, has := opts.PerFileOffsetMs[i]; has {
		if off >= 0 {
			return off, true
		}
		ok = false
	}
	if end, has := maxEnd(f.Cues); has {
		return end, ok
	}
	if span, has := timestampSpan(f.Cues); has {
		return span, ok
	}
	return 0, ok
}

// maxEnd returns the largest known end time among the cues.
func maxEnd(cues []Cue) (int64, bool) {
	var end int64
	found := false
	for _, c := range cues {
		if c.EndMs == nil {
			continue
		}
		if !found || *c.EndMs > end {
			end = *c.EndMs
		}
		found = true
	}
	return end, found
}

// timestampSpan derives a duration from whatever timestamps the file does
// have: max minus min over every known start and end, floored at zero.
func timestampSpan(cues []Cue) (int64, bool) {
	var lo, hi int64
	found := false
	observe := func(v *int64) {
		if v == nil {
			return
		}
		if !found {
			lo, hi = *v, *v
			found = true
			return
		}
		if *v < lo {
			lo = *v
		}
		if *v > hi {
			hi = *v
		}
	}
	for _, c := range cues {
		observe(c.StartMs)
		observe(c.EndMs)
	}
	if !found {
		return 0, false
	}
	span := hi - lo
	if span < 0 {
		span = 0
	}
	return span, true
}

// validate runs the post-merge pass over the flattened (possibly sorted)
// sequence. Negative timestamps are fatal and reported once; a cue ending
// before it starts is kept and flagged per occurrence; adjacent cues from
// the same source file that overlap are flagged, while cross-file overlap is
// left alone since some offset modes produce it legitimately.
func validate(res *Result) {
	for _, c := range res.MergedCues {
		if c.StartMs < 0 || c.EndMs < 0 {
			res.Errors = append(res.Errors, ErrNegativeTimestamps)
			break
		}
	}
	for _, c := range res.MergedCues {
		if c.EndMs < c.StartMs {
			res.Warnings = append(res.Warnings, WarnCueEndBeforeStart)
		}
	}
	for j := 1; j < len(res.MergedCues); j++ {
		prev, cur := res.MergedCues[j-1], res.MergedCues[j]
		if prev.SourceFileIndex == cur.SourceFileIndex && prev.EndMs > cur.StartMs {
			res.Warnings = append(res.Warnings, WarnOverlapDetected)
		}
	}
}
