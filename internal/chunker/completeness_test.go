package chunker

import (
	"errors"
	"strings"
	"testing"
)

func fullLineChunks(doc *document, spans [][2]int) []Chunk {
	chunks := make([]Chunk, 0, len(spans))
	for _, span := range spans {
		chunks = append(chunks, Chunk{
			Content:   doc.lineRange(span[0], span[1]),
			StartLine: span[0],
			EndLine:   span[1],
			Metadata:  Metadata{},
		})
	}
	return chunks
}

func TestValidator_FullCoveragePasses(t *testing.T) {
	doc := newDocument("alpha text\nbeta text\n\ngamma text\ndelta text")
	chunks := fullLineChunks(doc, [][2]int{{1, 2}, {4, 5}})

	v := &completenessValidator{cfg: DefaultConfig()}
	res := &Result{}
	if err := v.validate(doc, chunks, res); err != nil {
		t.Fatalf("validate returned %v", err)
	}
	if len(res.Errors) != 0 {
		t.Errorf("errors = %v, want none", res.Errors)
	}
}

func TestValidator_SmallGapWarnsOnly(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 50; i++ {
		sb.WriteString("a line of body text with plenty of characters in it\n")
	}
	doc := newDocument(strings.TrimSuffix(sb.String(), "\n"))

	// Lines 20-21 fall in a gutter between the two chunks.
	chunks := fullLineChunks(doc, [][2]int{{1, 19}, {22, 50}})

	v := &completenessValidator{cfg: DefaultConfig()}
	res := &Result{}
	if err := v.validate(doc, chunks, res); err != nil {
		t.Fatalf("validate returned %v", err)
	}
	if len(res.Warnings) == 0 {
		t.Error("expected a gap warning")
	}
}

func TestValidator_MissingContentStrict(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("body line with a reasonable amount of text on it\n")
	}
	doc := newDocument(strings.TrimSuffix(sb.String(), "\n"))

	// A 15-line hole: well past the gutter and the missing-block floor.
	chunks := fullLineChunks(doc, [][2]int{{1, 10}, {26, 40}})

	cfg := DefaultConfig()
	cfg.StrictValidation = true
	v := &completenessValidator{cfg: cfg}
	res := &Result{}

	err := v.validate(doc, chunks, res)
	var missing *MissingContentError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %v, want MissingContentError", err)
	}
	if len(missing.Blocks) == 0 {
		t.Fatal("no missing blocks reported")
	}
	block := missing.Blocks[0]
	if block.StartLine != 11 || block.EndLine != 25 {
		t.Errorf("block span = %d-%d, want 11-25", block.StartLine, block.EndLine)
	}
	if block.BlockType != "paragraph" {
		t.Errorf("block type = %s, want paragraph", block.BlockType)
	}
	if runeLen(block.ContentPreview) > 80 {
		t.Errorf("preview is %d runes, want <= 80", runeLen(block.ContentPreview))
	}
	if len(res.Errors) == 0 {
		t.Error("non-strict error list should also be populated")
	}
}

func TestValidator_IncompleteCoverageStrict(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 60; i++ {
		sb.WriteString("wwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwwww\n")
	}
	// Twelve nearly-empty lines form the hole: over the line-gap budget but
	// under the missing-block character floor.
	lines := strings.Split(strings.TrimSuffix(sb.String(), "\n"), "\n")
	for i := 30; i < 42; i++ {
		lines[i] = "x"
	}
	doc := newDocument(strings.Join(lines, "\n"))

	chunks := fullLineChunks(doc, [][2]int{{1, 30}, {43, 60}})

	cfg := DefaultConfig()
	cfg.StrictValidation = true
	v := &completenessValidator{cfg: cfg}
	res := &Result{}

	err := v.validate(doc, chunks, res)
	var incomplete *IncompleteCoverageError
	if !errors.As(err, &incomplete) {
		t.Fatalf("error = %v, want IncompleteCoverageError", err)
	}
	if incomplete.GapLines <= maxGapLines {
		t.Errorf("gap lines = %d, want > %d", incomplete.GapLines, maxGapLines)
	}
}

func TestValidator_DataLossStrict(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		sb.WriteString("line with some body text on it\n")
	}
	doc := newDocument(strings.TrimSuffix(sb.String(), "\n"))

	// Chunks cover every line but one chunk lost most of its characters.
	chunks := fullLineChunks(doc, [][2]int{{1, 10}, {11, 20}})
	chunks[1].Content = "line"

	cfg := DefaultConfig()
	cfg.StrictValidation = true
	v := &completenessValidator{cfg: cfg}
	res := &Result{}

	err := v.validate(doc, chunks, res)
	var loss *DataLossError
	if !errors.As(err, &loss) {
		t.Fatalf("error = %v, want DataLossError", err)
	}
	if loss.Ratio <= loss.Tolerance {
		t.Errorf("ratio %.4f not above tolerance %.4f", loss.Ratio, loss.Tolerance)
	}
}

func TestValidator_NonStrictNeverRaises(t *testing.T) {
	doc := newDocument("only line of input text")
	chunks := []Chunk{{Content: "x", StartLine: 1, EndLine: 1, Metadata: Metadata{}}}

	v := &completenessValidator{cfg: DefaultConfig()}
	res := &Result{}
	if err := v.validate(doc, chunks, res); err != nil {
		t.Fatalf("non-strict validate returned %v", err)
	}
	if len(res.Errors) == 0 {
		t.Error("expected errors to be recorded")
	}
}

func TestValidator_OverlapExcludedFromBalance(t *testing.T) {
	doc := newDocument("first sentence here.\nsecond sentence here.")
	chunks := []Chunk{
		{Content: "first sentence here.", StartLine: 1, EndLine: 1, Metadata: Metadata{}},
		{
			Content:   "first sentence here.\n\nsecond sentence here.",
			StartLine: 2,
			EndLine:   2,
			Metadata: Metadata{
				"has_overlap":      true,
				"overlap_size":     runeLen("first sentence here."),
				"previous_content": "first sentence here.",
			},
		},
	}

	v := &completenessValidator{cfg: DefaultConfig()}
	if ratio := v.charDiffRatio(doc, chunks); ratio > 0.001 {
		t.Errorf("ratio = %.4f, want ~0 after overlap subtraction", ratio)
	}
}
