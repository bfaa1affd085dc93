package chunker

import "strings"

// document is the normalized view of the input a chunking run operates on.
// Line numbers are 1-based and inclusive throughout the package.
type document struct {
	text  string
	lines []string
}

// normalizeText converts all line endings to \n and strips a leading BOM.
// It is a fixed point on already-normalized text.
func normalizeText(text string) string {
	text = strings.TrimPrefix(text, "\ufeff")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return text
}

func newDocument(text string) *document {
	lines := strings.Split(text, "\n")
	// A trailing newline produces an empty trailing element, not a line.
	if n := len(lines); n > 1 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return &document{text: text, lines: lines}
}

func (d *document) lineCount() int {
	return len(d.lines)
}

// lineRange returns the text of the 1-based inclusive range [start, end].
func (d *document) lineRange(start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(d.lines) {
		end = len(d.lines)
	}
	if start > end {
		return ""
	}
	return strings.Join(d.lines[start-1:end], "\n")
}

// trimSpan narrows [start, end] to exclude blank lines at both edges.
// It returns ok=false when the span is entirely blank.
func (d *document) trimSpan(start, end int) (int, int, bool) {
	for start <= end && strings.TrimSpace(d.lines[start-1]) == "" {
		start++
	}
	for end >= start && strings.TrimSpace(d.lines[end-1]) == "" {
		end--
	}
	if start > end {
		return 0, 0, false
	}
	return start, end, true
}

// indentWidth measures leading whitespace in spaces, counting tabs as 4.
func indentWidth(line string) int {
	width := 0
	for _, r := range line {
		switch r {
		case ' ':
			width++
		case '\t':
			width += 4
		default:
			return width
		}
	}
	return width
}
