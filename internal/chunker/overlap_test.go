package chunker_test

import (
	"strings"
	"testing"

	"github.com/hsn0918/mdchunk/internal/chunker"
)

func TestOverlap_SentenceBounded(t *testing.T) {
	cfg := chunker.DefaultConfig()
	cfg.MaxChunkSize = 200
	cfg.OverlapSize = 30

	input := "# Doc\n\nFirst sentence here. Second sentence follows. Third one ends.\n\n" +
		"## Part Two\n\nAnother paragraph of text. More words to have content.\n\n" +
		"## Part Three\n\nFinal section text. Closing words here.\n"

	result := mustChunk(t, cfg, input)
	if result.StrategyUsed != chunker.StrategyStructural {
		t.Fatalf("strategy = %s", result.StrategyUsed)
	}
	if len(result.Chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(result.Chunks))
	}

	second := result.Chunks[1]
	if has, _ := second.Metadata["has_overlap"].(bool); !has {
		t.Fatalf("chunk 1 has no overlap: %+v", second.Metadata)
	}

	prevContent, _ := second.Metadata["previous_content"].(string)
	if prevContent == "" {
		t.Fatal("previous_content missing")
	}
	if !strings.HasPrefix(second.Content, prevContent+"\n\n") {
		t.Errorf("chunk content %q does not start with its overlap %q", second.Content, prevContent)
	}
	if !strings.HasSuffix(result.Chunks[0].Content, prevContent) {
		t.Errorf("overlap %q is not a suffix of the previous chunk", prevContent)
	}
	if next, _ := result.Chunks[0].Metadata["next_content"].(string); next != prevContent {
		t.Errorf("previous chunk next_content = %q, want %q", next, prevContent)
	}

	// Bound: overlap <= min(overlap_size target cap, 40% of previous).
	overlapLen, _ := second.Metadata["overlap_size"].(int)
	if overlapLen != len([]rune(prevContent)) {
		t.Errorf("overlap_size = %d, want %d", overlapLen, len([]rune(prevContent)))
	}
	prevRunes := len([]rune(result.Chunks[0].Content))
	if overlapLen*5 > prevRunes*2 { // 40% cap
		t.Errorf("overlap %d exceeds 40%% of previous chunk %d", overlapLen, prevRunes)
	}
	curRunes := len([]rune(second.Content))
	if overlapLen*100 > curRunes*45 {
		t.Errorf("overlap %d exceeds 45%% of resulting chunk %d", overlapLen, curRunes)
	}
}

func TestOverlap_DiscardedNearFences(t *testing.T) {
	cfg := chunker.DefaultConfig()
	cfg.MaxChunkSize = 200
	cfg.OverlapSize = 20

	input := "intro. more text.\n\n```go\nfunc f() {}\n```\n\nafter text here.\n"
	result := mustChunk(t, cfg, input)

	if len(result.Chunks) != 3 {
		t.Fatalf("got %d chunks, want 3: %+v", len(result.Chunks), result.Chunks)
	}

	code := result.Chunks[1]
	after := result.Chunks[2]
	if kind, _ := code.Metadata["chunk_type"].(string); kind != "code" {
		t.Fatalf("middle chunk type = %v", code.Metadata["chunk_type"])
	}

	// The natural overlap from the code chunk would carry a single fence
	// line; it must be discarded and the next chunk left untouched.
	if has, _ := after.Metadata["has_overlap"].(bool); has {
		t.Errorf("overlap applied across a fence boundary: %+v", after.Metadata)
	}
	if after.Content != "after text here." {
		t.Errorf("after chunk content = %q, want unmodified", after.Content)
	}
	if !strings.HasPrefix(code.Content, "```go") {
		t.Errorf("code chunk content modified: %q", code.Content)
	}
}

func TestOverlap_Disabled(t *testing.T) {
	cfg := chunker.DefaultConfig()
	cfg.EnableOverlap = false

	input := "# A\n\nSentence one here. Sentence two here.\n\n## B\n\nSentence three here. Sentence four here.\n\n## C\n\nSentence five here.\n"
	result := mustChunk(t, cfg, input)

	for i, c := range result.Chunks {
		if _, ok := c.Metadata["has_overlap"]; ok {
			t.Errorf("chunk %d has overlap metadata with overlap disabled", i)
		}
	}
}

func TestOverlap_ZeroTargetsDisableOverlap(t *testing.T) {
	cfg := chunker.DefaultConfig()
	cfg.OverlapSize = 0
	cfg.OverlapPercentage = 0

	input := "# A\n\nSentence one here. Sentence two here.\n\n## B\n\nSentence three here.\n\n## C\n\nSentence four here.\n"
	result := mustChunk(t, cfg, input)

	for i, c := range result.Chunks {
		if _, ok := c.Metadata["has_overlap"]; ok {
			t.Errorf("chunk %d gained overlap with zero targets", i)
		}
	}
}
