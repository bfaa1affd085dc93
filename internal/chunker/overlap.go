package chunker

import "strings"

// overlapApplier prepends a sentence-bounded suffix of each chunk's
// predecessor, inline in content, with the overlap bounds mirrored into
// metadata. Overlap that would carry an unbalanced fence marker is
// discarded for that pair.
type overlapApplier struct {
	cfg Config
}

func (o *overlapApplier) apply(chunks []Chunk) {
	for i := 1; i < len(chunks); i++ {
		prev := &chunks[i-1]
		cur := &chunks[i]

		target := o.targetSize(prev)
		if target <= 0 {
			continue
		}

		overlap := extractOverlap(prev.Content, target)
		if overlap == "" || hasUnbalancedFences(overlap) {
			continue
		}

		overlap = o.fitOverlap(overlap, cur)
		if overlap == "" {
			continue
		}

		cur.Content = overlap + "\n\n" + cur.Content
		cur.setMeta("has_overlap", true)
		cur.setMeta("overlap_size", runeLen(overlap))
		cur.setMeta("previous_content", overlap)
		prev.setMeta("next_content", overlap)
	}
}

// targetSize computes the overlap budget for one pair: the configured
// absolute size, or the percentage of the previous chunk, capped at 40% of
// the previous chunk either way.
func (o *overlapApplier) targetSize(prev *Chunk) int {
	prevLen := prev.Size()

	target := o.cfg.OverlapSize
	if target <= 0 {
		target = int(o.cfg.OverlapPercentage * float64(prevLen))
	}
	if limit := prevLen * 2 / 5; target > limit {
		target = limit
	}
	if target < 0 {
		target = 0
	}
	return target
}

// extractOverlap walks content backward sentence by sentence, accumulating
// until the next sentence would exceed target. A single most-recent sentence
// up to 1.5x the target is still taken; with no sentence boundary at all the
// last target code points are used.
func extractOverlap(content string, target int) string {
	boundaries := sentenceRegex.FindAllStringIndex(content, -1)
	if len(boundaries) == 0 {
		return tailRunes(content, target)
	}

	// Sentence start offsets: content start plus every boundary end.
	starts := []int{0}
	for _, b := range boundaries {
		if b[1] < len(content) {
			starts = append(starts, b[1])
		}
	}

	taken := len(content)
	size := 0
	for i := len(starts) - 1; i >= 0; i-- {
		sentenceLen := runeLen(content[starts[i]:taken])
		if size == 0 && sentenceLen > target {
			// The most recent sentence alone may run over, within reason.
			if sentenceLen <= target*3/2 {
				taken = starts[i]
				size = sentenceLen
			}
			break
		}
		if size+sentenceLen > target {
			break
		}
		size += sentenceLen
		taken = starts[i]
	}

	if size == 0 {
		return ""
	}
	return strings.TrimSpace(content[taken:])
}

func tailRunes(content string, target int) string {
	runes := []rune(content)
	if len(runes) > target {
		runes = runes[len(runes)-target:]
	}
	return strings.TrimSpace(string(runes))
}

// hasUnbalancedFences reports whether the text contains an odd number of
// fence marker lines; prepending such an overlap would corrupt code blocks.
func hasUnbalancedFences(text string) bool {
	count := 0
	for _, line := range strings.Split(text, "\n") {
		if fenceLineRegex.MatchString(line) {
			count++
		}
	}
	return count%2 == 1
}

// fitOverlap enforces the application bounds: the resulting chunk may not
// exceed the budget by more than 50%, and the overlap may not exceed 45% of
// the resulting chunk. Violations truncate the overlap at the latest
// sentence boundary satisfying both; an empty string drops the overlap.
func (o *overlapApplier) fitOverlap(overlap string, cur *Chunk) string {
	curLen := cur.Size()
	maxResult := o.cfg.MaxChunkSize * 3 / 2

	fits := func(ov string) bool {
		ovLen := runeLen(ov)
		resultLen := ovLen + 2 + curLen
		return resultLen <= maxResult && ovLen*100 <= resultLen*45
	}

	if fits(overlap) {
		return overlap
	}

	// Drop leading sentences until the bounds hold.
	for {
		m := sentenceRegex.FindStringIndex(overlap)
		if m == nil || m[1] >= len(overlap) {
			return ""
		}
		overlap = strings.TrimSpace(overlap[m[1]:])
		if overlap == "" {
			return ""
		}
		if fits(overlap) {
			return overlap
		}
	}
}
