package chunker

import (
	"errors"
	"testing"
)

// failingStrategy always raises, standing in for a broken primary.
type failingStrategy struct{}

func (f *failingStrategy) Name() string                    { return "broken" }
func (f *failingStrategy) Priority() int                   { return 1 }
func (f *failingStrategy) CanHandle(fp *Fingerprint) bool  { return true }
func (f *failingStrategy) Quality(fp *Fingerprint) float64 { return 1 }
func (f *failingStrategy) Apply(doc *document, fp *Fingerprint) ([]Chunk, error) {
	return nil, errors.New("always fails")
}

// panickingStrategy raises through a panic instead of an error.
type panickingStrategy struct{ failingStrategy }

func (p *panickingStrategy) Apply(doc *document, fp *Fingerprint) ([]Chunk, error) {
	panic("boom")
}

func newTestChunker(t *testing.T, cfg Config) *Chunker {
	t.Helper()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return c
}

// A failing primary on headerless input must cascade through structural to
// the universal fallback, one paragraph per chunk at this budget.
func TestFallbackChain_CascadeToLevelTwo(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxChunkSize = 10
	c := newTestChunker(t, cfg)

	doc := newDocument(normalizeText("p1\n\np2\n\np3\n"))
	fp := analyzeDocument(doc)
	res := &Result{}

	chunks, used, level := c.runWithFallback(doc, fp, &failingStrategy{}, res)

	if used != StrategyFallback || level != 2 {
		t.Fatalf("used = %s level = %d, want %s level 2", used, level, StrategyFallback)
	}
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3: %+v", len(chunks), chunks)
	}
	for i, want := range []string{"p1", "p2", "p3"} {
		if chunks[i].Content != want {
			t.Errorf("chunk %d = %q, want %q", i, chunks[i].Content, want)
		}
		if lvl := chunks[i].intMeta("fallback_level"); lvl != 2 {
			t.Errorf("chunk %d fallback_level = %d, want 2", i, lvl)
		}
		if _, ok := chunks[i].Metadata["fallback_reason"]; !ok {
			t.Errorf("chunk %d missing fallback_reason", i)
		}
	}
	if len(res.Errors) == 0 {
		t.Error("expected accumulated errors from failed attempts")
	}
}

// With headers present, the chain must stop at the structural level.
func TestFallbackChain_StopsAtStructural(t *testing.T) {
	cfg := DefaultConfig()
	c := newTestChunker(t, cfg)

	doc := newDocument(normalizeText("# A\n\nbody one\n\n## B\n\nbody two\n\n## C\n\nbody three\n"))
	fp := analyzeDocument(doc)
	res := &Result{}

	chunks, used, level := c.runWithFallback(doc, fp, &panickingStrategy{}, res)

	if used != StrategyStructural || level != 1 {
		t.Fatalf("used = %s level = %d, want %s level 1", used, level, StrategyStructural)
	}
	if len(chunks) == 0 {
		t.Fatal("no chunks from structural fallback")
	}
	for i := range chunks {
		if lvl := chunks[i].intMeta("fallback_level"); lvl != 1 {
			t.Errorf("chunk %d fallback_level = %d, want 1", i, lvl)
		}
	}
}

// A panic inside a strategy is converted to an error, never surfaced.
func TestFallbackChain_AbsorbsPanics(t *testing.T) {
	cfg := DefaultConfig()
	c := newTestChunker(t, cfg)

	doc := newDocument(normalizeText("plain text content\n"))
	fp := analyzeDocument(doc)
	res := &Result{}

	chunks, used, level := c.runWithFallback(doc, fp, &panickingStrategy{}, res)
	if used != StrategyFallback || level != 2 {
		t.Fatalf("used = %s level = %d", used, level)
	}
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks, want 1", len(chunks))
	}
}

// With the chain disabled, a failed primary yields an empty result with
// errors instead of cascading.
func TestFallbackChain_Disabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableFallback = false
	c := newTestChunker(t, cfg)

	doc := newDocument(normalizeText("p1\n\np2\n"))
	fp := analyzeDocument(doc)
	res := &Result{}

	chunks, _, _ := c.runWithFallback(doc, fp, &failingStrategy{}, res)
	if len(chunks) != 0 {
		t.Errorf("got %d chunks, want 0", len(chunks))
	}
	if len(res.Errors) == 0 {
		t.Error("expected errors from the failed primary")
	}
}

// The selector must never pick a strategy whose predicate rejects the
// document, and ties resolve to the lower priority number.
func TestSelectStrategy(t *testing.T) {
	cfg := DefaultConfig()
	c := newTestChunker(t, cfg)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "code document",
			input: "```go\ncode\n```\n",
			want:  StrategyCodeAware,
		},
		{
			name:  "structured document",
			input: "# A\n\ntext\n\n## B\n\ntext\n\n## C\n\ntext\n",
			want:  StrategyStructural,
		},
		{
			name:  "plain paragraph",
			input: "just words here\n",
			want:  StrategyFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := analyzeDocument(newDocument(normalizeText(tt.input)))
			got := selectStrategy(c.strategies, fp)
			if got.Name() != tt.want {
				t.Errorf("selected %s, want %s", got.Name(), tt.want)
			}
			if !got.CanHandle(fp) {
				t.Errorf("selected strategy cannot handle the document")
			}
		})
	}
}
