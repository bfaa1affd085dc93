package chunker

// fallbackStrategy is the universal strategy: paragraph packing with a
// sentence/word/character split cascade for oversize paragraphs. It never
// fails on non-empty input.
type fallbackStrategy struct {
	cfg Config
}

func (s *fallbackStrategy) Name() string                   { return StrategyFallback }
func (s *fallbackStrategy) Priority() int                  { return 3 }
func (s *fallbackStrategy) CanHandle(fp *Fingerprint) bool { return true }
func (s *fallbackStrategy) Quality(fp *Fingerprint) float64 {
	return 0.1
}

// paragraph is a run of non-blank lines.
type paragraph struct {
	Span
	size int
}

func (s *fallbackStrategy) Apply(doc *document, fp *Fingerprint) ([]Chunk, error) {
	paragraphs := s.paragraphs(doc)
	if len(paragraphs) == 0 {
		return nil, nil
	}

	// Packing leaves headroom for the overlap pass so overlapped chunks
	// stay near the configured budget. A reserve at or above the budget
	// degrades to one paragraph per chunk.
	limit := s.cfg.MaxChunkSize - s.overlapReserve()
	if limit < 0 {
		limit = 0
	}

	splitter := newTextSplitter(s.cfg.MaxChunkSize)
	splitter.minLevel = boundarySentence

	var chunks []Chunk
	packStart, packEnd, packSize := 0, 0, 0 // indices into paragraphs; size in runes

	flush := func() {
		if packSize == 0 {
			return
		}
		start := paragraphs[packStart].StartLine
		end := paragraphs[packEnd].EndLine
		if c, ok := chunkFromSpan(doc, start, end, "text"); ok {
			chunks = append(chunks, c)
		}
		packSize = 0
	}

	for i, para := range paragraphs {
		if para.size > s.cfg.MaxChunkSize {
			flush()
			text := doc.lineRange(para.StartLine, para.EndLine)
			chunks = append(chunks, chunksFromPieces(splitter.split(text, para.StartLine), "text")...)
			continue
		}

		if packSize > 0 && packSize+2+para.size > limit {
			flush()
		}
		if packSize == 0 {
			packStart = i
		}
		packEnd = i
		packSize += para.size
		if packStart != i {
			packSize += 2 // separator
		}
	}
	flush()

	return chunks, nil
}

func (s *fallbackStrategy) overlapReserve() int {
	if !s.cfg.EnableOverlap {
		return 0
	}
	if s.cfg.OverlapSize > 0 {
		return s.cfg.OverlapSize
	}
	return int(s.cfg.OverlapPercentage * float64(s.cfg.MaxChunkSize))
}

func (s *fallbackStrategy) paragraphs(doc *document) []paragraph {
	var paras []paragraph
	start := 0 // 0 = outside a paragraph

	for i, line := range doc.lines {
		ln := i + 1
		blank := len(line) == 0 || isBlank(line)
		switch {
		case blank && start > 0:
			paras = append(paras, s.makeParagraph(doc, start, ln-1))
			start = 0
		case !blank && start == 0:
			start = ln
		}
	}
	if start > 0 {
		paras = append(paras, s.makeParagraph(doc, start, doc.lineCount()))
	}

	return paras
}

func (s *fallbackStrategy) makeParagraph(doc *document, start, end int) paragraph {
	return paragraph{
		Span: Span{StartLine: start, EndLine: end},
		size: runeLen(doc.lineRange(start, end)),
	}
}

func isBlank(line string) bool {
	for _, r := range line {
		if r != ' ' && r != '\t' {
			return false
		}
	}
	return true
}
