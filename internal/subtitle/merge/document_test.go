package merge

import (
	"strings"
	"testing"

	"github.com/subtitle-merge/backend/internal/subtitle/srt"
	"github.com/subtitle-merge/backend/internal/subtitle/timecode"
)

const goodFile = "1\n00:00:01,000 --> 00:00:02,000\nHello\n\n2\n00:00:03,000 --> 00:00:04,000\nWorld\n"

func TestDocumentsTwoCleanFiles(t *testing.T) {
	res := Documents([]SourceFile{
		{Name: "a.srt", Content: goodFile},
		{Name: "b.srt", Content: goodFile},
	})

	if len(res.Diagnostics) != 0 {
		t.Errorf("diagnostics = %+v; want none", res.Diagnostics)
	}
	if res.Stats.TotalInputCues != 4 || res.Stats.TotalOutputCues != 4 ||
		res.Stats.ParseIssuesCount != 0 || res.Stats.FilesProcessed != 2 {
		t.Errorf("stats = %+v", res.Stats)
	}

	blocks := srt.Parse(res.MergedDocument)
	if len(blocks) != 4 {
		t.Fatalf("merged document has %d blocks; want 4", len(blocks))
	}
	// renumbered sequentially from 1
	for i, b := range blocks {
		if !b.HasIndex || b.Index != i+1 {
			t.Errorf("block %d index = %+v", i, b)
		}
	}
	// second file shifted by the first file's max end (4s)
	if blocks[2].TimecodeLine != "00:00:05,000 --> 00:00:06,000" {
		t.Errorf("block 3 timecode = %q", blocks[2].TimecodeLine)
	}
	if blocks[3].TimecodeLine != "00:00:07,000 --> 00:00:08,000" {
		t.Errorf("block 4 timecode = %q", blocks[3].TimecodeLine)
	}
}

func TestDocumentsFallback(t *testing.T) {
	damaged := "1\n00:00:00,500 --> 00:00:01,500\nEins\n\n2\n00:00:xx,000 --> 00:00:07,000\nZwei\n\n3\n00:00:05,000 --> 00:00:06,000\nDrei\n"
	res := Documents([]SourceFile{
		{Name: "a.srt", Content: goodFile},
		{Name: "b.srt", Content: damaged},
	})

	if res.Stats.ParseIssuesCount != 1 {
		t.Errorf("parse issues = %d; want 1", res.Stats.ParseIssuesCount)
	}
	if len(res.Diagnostics) != 1 {
		t.Fatalf("diagnostics = %+v; want exactly one", res.Diagnostics)
	}

	d := res.Diagnostics[0]
	if d.Action != ActionFallback {
		t.Errorf("action = %s; want fallback", d.Action)
	}
	if d.SourceFile != "b.srt" {
		t.Errorf("source file = %q", d.SourceFile)
	}
	if d.OriginalIndex == nil || *d.OriginalIndex != 2 {
		t.Errorf("original index = %v; want 2", d.OriginalIndex)
	}
	if d.FinalIndex != 4 {
		t.Errorf("final index = %d; want 4", d.FinalIndex)
	}
	if d.OriginalTimecodeLine != "00:00:xx,000 --> 00:00:07,000" {
		t.Errorf("original line = %q", d.OriginalTimecodeLine)
	}

	// the synthesized line is itself parseable and lands strictly after the
	// merged timeline: last emitted end was 00:00:05,500, offset 4000ms
	shifted, ok := timecode.ShiftLine(d.FinalTimecodeLine, 0)
	if !ok {
		t.Fatalf("fallback line %q is not parseable", d.FinalTimecodeLine)
	}
	if shifted != d.FinalTimecodeLine {
		t.Errorf("fallback line %q is not canonical", d.FinalTimecodeLine)
	}
	if d.FinalTimecodeLine != "00:00:06,000 --> 00:00:08,000" {
		t.Errorf("fallback line = %q", d.FinalTimecodeLine)
	}

	// the block after the fallback resumes normal shifting
	blocks := srt.Parse(res.MergedDocument)
	if blocks[4].TimecodeLine != "00:00:09,000 --> 00:00:10,000" {
		t.Errorf("block 5 timecode = %q", blocks[4].TimecodeLine)
	}
}

func TestDocumentsNormalized(t *testing.T) {
	content := "1\n00:00:01.000-->00:00:02.000\nperiods and no spacing\n"
	res := Documents([]SourceFile{{Name: "odd.srt", Content: content}})

	if len(res.Diagnostics) != 1 {
		t.Fatalf("diagnostics = %+v; want one", res.Diagnostics)
	}
	d := res.Diagnostics[0]
	if d.Action != ActionNormalized {
		t.Errorf("action = %s; want normalized", d.Action)
	}
	if d.FinalTimecodeLine != "00:00:01,000 --> 00:00:02,000" {
		t.Errorf("final line = %q", d.FinalTimecodeLine)
	}
	if res.Stats.ParseIssuesCount != 0 {
		t.Errorf("normalization must not count as a parse issue")
	}
}

func TestDocumentsRenumbersFromOne(t *testing.T) {
	content := "7\n00:00:01,000 --> 00:00:02,000\na\n\n9\n00:00:03,000 --> 00:00:04,000\nb\n"
	res := Documents([]SourceFile{{Name: "x.srt", Content: content}})
	blocks := srt.Parse(res.MergedDocument)
	if blocks[0].Index != 1 || blocks[1].Index != 2 {
		t.Errorf("indices = %d, %d; want 1, 2", blocks[0].Index, blocks[1].Index)
	}
}

func TestDocumentsEmptyTextPlaceholder(t *testing.T) {
	content := "1\n00:00:01,000 --> 00:00:02,000\n\n\n2\n00:00:03,000 --> 00:00:04,000\nreal text\n"
	res := Documents([]SourceFile{{Name: "x.srt", Content: content}})
	if !strings.Contains(res.MergedDocument, emptyTextPlaceholder) {
		t.Errorf("document lacks placeholder for empty block:\n%s", res.MergedDocument)
	}
	// no cue in the output is ever without text
	for _, b := range srt.Parse(res.MergedDocument) {
		if len(b.TextLines) == 0 {
			t.Errorf("emitted block %d has no text", b.Index)
		}
	}
}

func TestDocumentsMissingIndexBlock(t *testing.T) {
	content := "00:00:01,000 --> 00:00:02,000\nno index\n"
	res := Documents([]SourceFile{{Name: "x.srt", Content: content}})
	blocks := srt.Parse(res.MergedDocument)
	if len(blocks) != 1 || !blocks[0].HasIndex || blocks[0].Index != 1 {
		t.Errorf("blocks = %+v", blocks)
	}
	if len(res.Diagnostics) != 0 {
		// the timecode line itself was fine; a missing index is repaired by
		// renumbering, which every block goes through anyway
		t.Errorf("diagnostics = %+v", res.Diagnostics)
	}
}

func TestDocumentsUnshiftableFileContributesNoOffset(t *testing.T) {
	broken := "1\ngarbage line\nstill text\n"
	res := Documents([]SourceFile{
		{Name: "broken.srt", Content: broken},
		{Name: "good.srt", Content: goodFile},
	})
	blocks := srt.Parse(res.MergedDocument)
	// the good file is not shifted: the broken file yielded no usable end
	// times
	if blocks[1].TimecodeLine != "00:00:01,000 --> 00:00:02,000" {
		t.Errorf("block 2 timecode = %q", blocks[1].TimecodeLine)
	}
}

func TestDocumentsEmptyInput(t *testing.T) {
	res := Documents(nil)
	if res.MergedDocument != "" || len(res.Diagnostics) != 0 {
		t.Errorf("result = %+v", res)
	}
	if res.Stats != (Stats{}) {
		t.Errorf("stats = %+v; want zero", res.Stats)
	}
}

func TestDocumentsOutputAlwaysParseable(t *testing.T) {
	// Whatever goes in, every timecode line that comes out must parse.
	res := Documents([]SourceFile{
		{Name: "a.srt", Content: "complete\ngarbage\n\n42\n\nmore garbage"},
		{Name: "b.srt", Content: goodFile},
		{Name: "c.srt", Content: "1\n00:00:99,000 --> bad\ntext\n"},
	})
	for _, b := range srt.Parse(res.MergedDocument) {
		if _, ok := timecode.ShiftLine(b.TimecodeLine, 0); !ok {
			t.Errorf("unparseable line in output: %q", b.TimecodeLine)
		}
	}
}
