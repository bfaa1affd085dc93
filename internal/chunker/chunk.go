// Package chunker splits Markdown documents into ordered chunks for RAG
// indexing. It analyzes the document structure, picks one of three chunking
// strategies, and post-processes the result with overlap, metadata and
// completeness validation.
package chunker

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/bytedance/sonic"
)

// Metadata maps string keys to tagged values (string, int, float64, bool,
// []string or a nested map). Callers must treat it as order-insensitive.
type Metadata map[string]any

// Chunk is the unit of output: a bounded piece of source text with its
// 1-based inclusive line range in the normalized source.
type Chunk struct {
	Content   string   `json:"content"`
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
	Metadata  Metadata `json:"metadata"`
}

// Size returns the chunk content length in Unicode code points.
func (c *Chunk) Size() int {
	return utf8.RuneCountInString(c.Content)
}

func (c *Chunk) setMeta(key string, value any) {
	if c.Metadata == nil {
		c.Metadata = make(Metadata)
	}
	c.Metadata[key] = value
}

func (c *Chunk) boolMeta(key string) bool {
	v, ok := c.Metadata[key].(bool)
	return ok && v
}

func (c *Chunk) intMeta(key string) int {
	v, ok := c.Metadata[key].(int)
	if !ok {
		return 0
	}
	return v
}

// Result is the return envelope of a chunking run.
type Result struct {
	Chunks         []Chunk       `json:"chunks"`
	StrategyUsed   string        `json:"strategy_used"`
	FallbackUsed   bool          `json:"fallback_used"`
	FallbackLevel  int           `json:"fallback_level"`
	ProcessingTime time.Duration `json:"processing_time"`
	Errors         []string      `json:"errors"`
	Warnings       []string      `json:"warnings"`
}

// EncodeString renders a chunk in the fixed string format consumed by
// downstream tooling. The metadata block is emitted only when requested:
//
//	<metadata>
//	{...}
//	</metadata>
//	<chunk content>
func EncodeString(c *Chunk, includeMetadata bool) (string, error) {
	if !includeMetadata || len(c.Metadata) == 0 {
		return c.Content, nil
	}

	meta, err := sonic.Marshal(c.Metadata)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.Grow(len(meta) + len(c.Content) + 32)
	sb.WriteString("<metadata>\n")
	sb.Write(meta)
	sb.WriteString("\n</metadata>\n")
	sb.WriteString(c.Content)
	return sb.String(), nil
}

// runeLen counts Unicode code points; all size comparisons in this package
// use code points, not bytes.
func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
