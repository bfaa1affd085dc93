package chunker

import (
	"fmt"
	"sort"
	"strings"
)

const (
	maxGapLines       = 10
	maxPreviewChars   = 80
	missingBlockFloor = 50
)

// MissingContentBlock describes a span of input lines no chunk covers.
type MissingContentBlock struct {
	StartLine      int    `json:"start_line"`
	EndLine        int    `json:"end_line"`
	ContentPreview string `json:"content_preview"`
	SizeChars      int    `json:"size_chars"`
	BlockType      string `json:"block_type"`
}

// MissingContentError is raised in strict mode when content larger than the
// floor went missing from the output.
type MissingContentError struct {
	Blocks []MissingContentBlock
}

func (e *MissingContentError) Error() string {
	return fmt.Sprintf("chunking lost %d content block(s)", len(e.Blocks))
}

// IncompleteCoverageError is raised in strict mode when line gaps between
// chunks exceed the allowed gutter.
type IncompleteCoverageError struct {
	GapLines int
}

func (e *IncompleteCoverageError) Error() string {
	return fmt.Sprintf("chunks leave %d uncovered line(s)", e.GapLines)
}

// DataLossError is raised in strict mode when the character balance drifts
// past the configured tolerance.
type DataLossError struct {
	Ratio     float64
	Tolerance float64
}

func (e *DataLossError) Error() string {
	return fmt.Sprintf("character diff ratio %.4f exceeds tolerance %.4f", e.Ratio, e.Tolerance)
}

// completenessValidator checks that the chunks cover the input without
// unbounded loss.
type completenessValidator struct {
	cfg Config
}

// validate appends coverage findings to the result. In strict mode the most
// severe finding is also returned as a typed error.
func (v *completenessValidator) validate(doc *document, chunks []Chunk, res *Result) error {
	if doc.text == "" || len(chunks) == 0 {
		return nil
	}

	ratio := v.charDiffRatio(doc, chunks)
	gapTotal, gapWarnings := v.lineGaps(doc, chunks)
	res.Warnings = append(res.Warnings, gapWarnings...)

	var missing []MissingContentBlock
	invalid := ratio > v.cfg.Tolerance || gapTotal > maxGapLines
	if invalid {
		missing = v.missingBlocks(doc, chunks)
		for _, b := range missing {
			res.Errors = append(res.Errors, fmt.Sprintf(
				"missing %s block at lines %d-%d (%d chars): %q",
				b.BlockType, b.StartLine, b.EndLine, b.SizeChars, b.ContentPreview))
		}
		if gapTotal > maxGapLines {
			res.Errors = append(res.Errors, fmt.Sprintf("chunks leave %d uncovered line(s)", gapTotal))
		}
		if ratio > v.cfg.Tolerance {
			res.Errors = append(res.Errors, fmt.Sprintf(
				"character diff ratio %.4f exceeds tolerance %.4f", ratio, v.cfg.Tolerance))
		}
	}

	if !v.cfg.StrictValidation || !invalid {
		return nil
	}

	for _, b := range missing {
		if b.SizeChars > missingBlockFloor {
			return &MissingContentError{Blocks: missing}
		}
	}
	if gapTotal > maxGapLines {
		return &IncompleteCoverageError{GapLines: gapTotal}
	}
	return &DataLossError{Ratio: ratio, Tolerance: v.cfg.Tolerance}
}

// charDiffRatio balances input characters against chunk output, excluding
// inline overlap duplication. The balance is computed over non-whitespace
// code points: chunking trims blank gutters by design, and on small
// documents that trimming alone would dominate the ratio.
func (v *completenessValidator) charDiffRatio(doc *document, chunks []Chunk) float64 {
	input := contentRuneLen(doc.text)
	if input == 0 {
		return 0
	}

	output := 0
	for i := range chunks {
		output += contentRuneLen(chunks[i].Content)
		if chunks[i].boolMeta("has_overlap") {
			if prev, ok := chunks[i].Metadata["previous_content"].(string); ok {
				output -= contentRuneLen(prev)
			}
		}
	}

	diff := input - output
	if diff < 0 {
		diff = -diff
	}
	return float64(diff) / float64(input)
}

// contentRuneLen counts non-whitespace code points.
func contentRuneLen(s string) int {
	count := 0
	for _, r := range s {
		if r != ' ' && r != '\t' && r != '\n' {
			count++
		}
	}
	return count
}

// lineGaps sums uncovered lines between consecutive chunks. Gaps within the
// gutter produce warnings only: a blank line between sections is normal.
func (v *completenessValidator) lineGaps(doc *document, chunks []Chunk) (int, []string) {
	ordered := make([]Chunk, len(chunks))
	copy(ordered, chunks)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].StartLine < ordered[j].StartLine })

	total := 0
	var warnings []string
	for i := 1; i < len(ordered); i++ {
		gap := ordered[i].StartLine - ordered[i-1].EndLine - 1
		if gap <= 0 {
			continue
		}
		// Blank-only gutters are not content loss.
		if _, _, ok := doc.trimSpan(ordered[i-1].EndLine+1, ordered[i].StartLine-1); !ok {
			continue
		}
		total += gap
		if gap <= maxGapLines {
			warnings = append(warnings, fmt.Sprintf(
				"gap of %d line(s) between chunks at lines %d and %d",
				gap, ordered[i-1].EndLine, ordered[i].StartLine))
		}
	}
	return total, warnings
}

// missingBlocks groups input lines not represented by any chunk.
func (v *completenessValidator) missingBlocks(doc *document, chunks []Chunk) []MissingContentBlock {
	covered := make([]bool, doc.lineCount()+1)
	for i := range chunks {
		for ln := chunks[i].StartLine; ln <= chunks[i].EndLine && ln < len(covered); ln++ {
			covered[ln] = true
		}
	}

	var blocks []MissingContentBlock
	start := 0
	for ln := 1; ln <= doc.lineCount()+1; ln++ {
		uncovered := ln <= doc.lineCount() && !covered[ln] && strings.TrimSpace(doc.lines[ln-1]) != ""
		switch {
		case uncovered && start == 0:
			start = ln
		case !uncovered && start > 0:
			blocks = append(blocks, v.makeMissingBlock(doc, start, ln-1))
			start = 0
		}
	}
	return blocks
}

func (v *completenessValidator) makeMissingBlock(doc *document, start, end int) MissingContentBlock {
	content := doc.lineRange(start, end)
	preview := content
	if runes := []rune(preview); len(runes) > maxPreviewChars {
		preview = string(runes[:maxPreviewChars])
	}
	return MissingContentBlock{
		StartLine:      start,
		EndLine:        end,
		ContentPreview: preview,
		SizeChars:      runeLen(content),
		BlockType:      classifyBlockLine(doc.lines[start-1]),
	}
}

// classifyBlockLine infers a block type from the first missing line.
func classifyBlockLine(line string) string {
	switch {
	case headerRegex.MatchString(line):
		return "header"
	case fenceLineRegex.MatchString(line):
		return "code"
	case listItemRegex.MatchString(line):
		return "list"
	case strings.Contains(line, "|"):
		return "table"
	default:
		return "paragraph"
	}
}
