package chunker

import "errors"

var errNoSections = errors.New("no sections produced")

// structuralStrategy handles header-organized documents: it splits at the
// configured section boundary level, subdivides oversize sections by the
// next deeper header level, and attaches the header path to every chunk.
type structuralStrategy struct {
	cfg Config
}

func (s *structuralStrategy) Name() string  { return StrategyStructural }
func (s *structuralStrategy) Priority() int { return 2 }

func (s *structuralStrategy) CanHandle(fp *Fingerprint) bool {
	return len(fp.Headers) >= s.cfg.StructureThreshold && fp.MaxHeaderDepth() > 1
}

func (s *structuralStrategy) Quality(fp *Fingerprint) float64 {
	headers := float64(len(fp.Headers)) / 10
	if headers > 1 {
		headers = 1
	}
	depth := float64(fp.MaxHeaderDepth()) / 6
	score := 0.6*headers + 0.4*depth
	if score > 1 {
		score = 1
	}
	return score
}

func (s *structuralStrategy) Apply(doc *document, fp *Fingerprint) ([]Chunk, error) {
	if len(fp.Headers) == 0 {
		return nil, errNoSections
	}

	paths := headerPaths(fp)

	// Section boundaries: headers at or above the configured level.
	var boundaries []int // indices into fp.Headers
	for i, h := range fp.Headers {
		if h.Level <= s.cfg.SectionBoundaryLevel {
			boundaries = append(boundaries, i)
		}
	}
	if len(boundaries) == 0 {
		// Only deep headers; treat every header as a boundary.
		for i := range fp.Headers {
			boundaries = append(boundaries, i)
		}
	}

	var chunks []Chunk

	firstLine := fp.Headers[boundaries[0]].Line
	if firstLine > 1 {
		if s.cfg.ExtractPreamble {
			chunks = append(chunks, s.sectionChunks(doc, fp, paths, 1, firstLine-1, -1)...)
		} else {
			firstLine = 1 // fold the preamble into the first section
		}
	}

	for bi, hi := range boundaries {
		start := fp.Headers[hi].Line
		if bi == 0 {
			start = firstLine
		}
		end := doc.lineCount()
		if bi+1 < len(boundaries) {
			end = fp.Headers[boundaries[bi+1]].Line - 1
		}
		chunks = append(chunks, s.sectionChunks(doc, fp, paths, start, end, hi)...)
	}

	if len(chunks) == 0 {
		return nil, errNoSections
	}
	return chunks, nil
}

// sectionChunks emits chunks for one section (header line included).
// headerIdx is the index of the section's starting header, -1 for the
// preamble. Oversize sections are subdivided by the next deeper header
// level; sections with no deeper headers fall through to the splitter.
func (s *structuralStrategy) sectionChunks(doc *document, fp *Fingerprint, paths [][]string, start, end, headerIdx int) []Chunk {
	start, end, ok := doc.trimSpan(start, end)
	if !ok {
		return nil
	}

	path := []string{}
	level := 0
	if headerIdx >= 0 {
		path = paths[headerIdx]
		level = fp.Headers[headerIdx].Level
	}

	text := doc.lineRange(start, end)
	if runeLen(text) <= s.cfg.MaxChunkSize {
		if c, ok := chunkFromSpan(doc, start, end, "section"); ok {
			c.Metadata["header_path"] = path
			return []Chunk{c}
		}
		return nil
	}

	// Find the next deeper header level present inside the section.
	nextLevel := 0
	for _, h := range fp.Headers {
		if h.Line <= start || h.Line > end || h.Level <= level {
			continue
		}
		if nextLevel == 0 || h.Level < nextLevel {
			nextLevel = h.Level
		}
	}

	if nextLevel == 0 {
		splitter := newTextSplitter(s.cfg.MaxChunkSize)
		chunks := chunksFromPieces(splitter.split(text, start), "section")
		for i := range chunks {
			chunks[i].Metadata["header_path"] = path
		}
		return chunks
	}

	var subs []int
	for i, h := range fp.Headers {
		if h.Line > start && h.Line <= end && h.Level == nextLevel {
			subs = append(subs, i)
		}
	}

	var chunks []Chunk
	if head := fp.Headers[subs[0]].Line - 1; head >= start {
		chunks = append(chunks, s.sectionLeadChunks(doc, fp, paths, start, head, headerIdx)...)
	}
	for si, hi := range subs {
		subEnd := end
		if si+1 < len(subs) {
			subEnd = fp.Headers[subs[si+1]].Line - 1
		}
		chunks = append(chunks, s.sectionChunks(doc, fp, paths, fp.Headers[hi].Line, subEnd, hi)...)
	}

	return s.mergeShortSiblings(chunks, path)
}

// sectionLeadChunks handles the lead content of a subdivided section
// (its header line plus prose before the first sub-header).
func (s *structuralStrategy) sectionLeadChunks(doc *document, fp *Fingerprint, paths [][]string, start, end, headerIdx int) []Chunk {
	start, end, ok := doc.trimSpan(start, end)
	if !ok {
		return nil
	}

	path := []string{}
	if headerIdx >= 0 {
		path = paths[headerIdx]
	}

	text := doc.lineRange(start, end)
	if runeLen(text) <= s.cfg.MaxChunkSize {
		if c, ok := chunkFromSpan(doc, start, end, "section"); ok {
			c.Metadata["header_path"] = path
			return []Chunk{c}
		}
		return nil
	}

	splitter := newTextSplitter(s.cfg.MaxChunkSize)
	chunks := chunksFromPieces(splitter.split(text, start), "section")
	for i := range chunks {
		chunks[i].Metadata["header_path"] = path
	}
	return chunks
}

// mergeShortSiblings recombines adjacent sub-section chunks that fell below
// the minimum size, provided they share the same parent section and the
// merge stays within the chunk budget. Boundary-level sections are never
// merged; only pieces of one subdivided parent are.
func (s *structuralStrategy) mergeShortSiblings(chunks []Chunk, parentPath []string) []Chunk {
	if len(chunks) < 2 {
		return chunks
	}

	merged := make([]Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		if len(merged) > 0 {
			prev := &merged[len(merged)-1]
			if prev.Size() < s.cfg.MinChunkSize && chunk.Size() < s.cfg.MinChunkSize &&
				prev.Size()+2+chunk.Size() <= s.cfg.MaxChunkSize {
				prev.Content += "\n\n" + chunk.Content
				prev.EndLine = chunk.EndLine
				prev.Metadata["header_path"] = parentPath
				prev.Metadata["merged_sections"] = prev.intMeta("merged_sections") + 1
				continue
			}
		}
		merged = append(merged, chunk)
	}
	return merged
}

// headerPaths precomputes, for every header, the ordered ancestor texts up
// to and including the header itself.
func headerPaths(fp *Fingerprint) [][]string {
	paths := make([][]string, len(fp.Headers))
	var stack []Header

	for i, h := range fp.Headers {
		for len(stack) > 0 && stack[len(stack)-1].Level >= h.Level {
			stack = stack[:len(stack)-1]
		}
		stack = append(stack, h)

		path := make([]string, len(stack))
		for j, sh := range stack {
			path[j] = sh.Text
		}
		paths[i] = path
	}

	return paths
}
