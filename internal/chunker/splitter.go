package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Boundary levels tried by the splitter, best first.
const (
	boundaryBlank = iota
	boundaryHeader
	boundarySentence
	boundaryLine
	boundaryWord
	boundaryChar
)

// piece is a fragment produced by the splitter, with its line mapping back
// into the source. Pieces cut mid-line share the split line with their
// neighbor (prev.endLine == next.startLine).
type piece struct {
	content   string
	startLine int
	endLine   int
}

// textSplitter breaks a non-atomic span that exceeds the size limit.
// It picks the latest boundary before the limit, descending from blank
// lines through headers, sentence ends, line breaks and word breaks down
// to a hard character cut.
type textSplitter struct {
	maxSize  int
	minLevel int
}

func newTextSplitter(maxSize int) *textSplitter {
	return &textSplitter{maxSize: maxSize, minLevel: boundaryBlank}
}

// split divides text into ordered pieces of at most maxSize code points.
// startLine is the 1-based line number of the first line of text.
func (s *textSplitter) split(text string, startLine int) []piece {
	var pieces []piece
	remaining := text
	curLine := startLine

	for remaining != "" {
		if runeLen(remaining) <= s.maxSize {
			pieces = appendPiece(pieces, remaining, curLine)
			break
		}

		cut := s.findCut(remaining)
		if cut <= 0 || cut >= len(remaining) {
			break
		}

		head := remaining[:cut]
		pieces = appendPiece(pieces, head, curLine)

		curLine += strings.Count(head, "\n")
		remaining = remaining[cut:]
	}

	return pieces
}

// appendPiece trims trailing separator whitespace, recomputes the line span
// and drops fragments that are blank after trimming.
func appendPiece(pieces []piece, raw string, startLine int) []piece {
	content := strings.TrimRight(raw, " \t\n")
	if strings.TrimSpace(content) == "" {
		return pieces
	}
	return append(pieces, piece{
		content:   content,
		startLine: startLine,
		endLine:   startLine + strings.Count(content, "\n"),
	})
}

// findCut returns the byte offset of the best split point: the latest
// boundary of the shallowest available level whose prefix fits maxSize.
func (s *textSplitter) findCut(text string) int {
	limit := byteOffsetOfRune(text, s.maxSize)
	window := text[:limit]

	for level := s.minLevel; level <= boundaryChar; level++ {
		if cut := cutAtLevel(window, level, limit); cut > 0 {
			return cut
		}
	}
	return limit
}

func cutAtLevel(window string, level, limit int) int {
	switch level {
	case boundaryBlank:
		matches := blankSplitRegex.FindAllStringIndex(window, -1)
		for i := len(matches) - 1; i >= 0; i-- {
			if cut := matches[i][1]; cut > 0 && strings.TrimSpace(window[:cut]) != "" {
				return cut
			}
		}
	case boundaryHeader:
		// Split immediately before the last header line in the window.
		offset := len(window)
		for offset > 0 {
			nl := strings.LastIndexByte(window[:offset], '\n')
			lineStart := nl + 1
			if headerRegex.MatchString(lineEnd(window, lineStart)) && lineStart > 0 {
				return lineStart
			}
			if nl < 0 {
				break
			}
			offset = nl
		}
	case boundarySentence:
		matches := sentenceRegex.FindAllStringIndex(window, -1)
		for i := len(matches) - 1; i >= 0; i-- {
			if cut := matches[i][1]; cut > 0 && cut < limit {
				return cut
			}
		}
	case boundaryLine:
		if idx := strings.LastIndexByte(window, '\n'); idx > 0 {
			return idx + 1
		}
	case boundaryWord:
		// Rune-aware scan: indexing bytes would match continuation bytes of
		// multi-byte characters (0x85, 0xA0 are whitespace code points) and
		// cut a rune in half.
		if idx := strings.LastIndexFunc(window, unicode.IsSpace); idx > 0 {
			_, size := utf8.DecodeRuneInString(window[idx:])
			return idx + size
		}
	case boundaryChar:
		return limit
	}
	return 0
}

// lineEnd returns the line of text beginning at offset.
func lineEnd(text string, offset int) string {
	rest := text[offset:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		return rest[:nl]
	}
	return rest
}

// byteOffsetOfRune converts a code-point count to a byte offset, clamped to
// the end of the string.
func byteOffsetOfRune(s string, runes int) int {
	count := 0
	for i := range s {
		if count == runes {
			return i
		}
		count++
	}
	return len(s)
}
