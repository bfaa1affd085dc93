package chunker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hsn0918/mdchunk/internal/logger"
)

// Chunker turns a Markdown document into an ordered chunk sequence. It is
// stateless across calls and safe for concurrent use; each invocation
// processes one document independently.
type Chunker struct {
	cfg        Config
	strategies []strategy
	structural strategy
	universal  strategy
	overlap    *overlapApplier
	enricher   *metadataEnricher
	validator  *completenessValidator
}

// New creates a chunker, validating and normalizing the configuration.
func New(cfg Config) (*Chunker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	structural := &structuralStrategy{cfg: cfg}
	universal := &fallbackStrategy{cfg: cfg}

	return &Chunker{
		cfg: cfg,
		strategies: []strategy{
			&codeAwareStrategy{cfg: cfg},
			structural,
			universal,
		},
		structural: structural,
		universal:  universal,
		overlap:    &overlapApplier{cfg: cfg},
		enricher:   &metadataEnricher{cfg: cfg},
		validator:  &completenessValidator{cfg: cfg},
	}, nil
}

// Chunk processes one document.
func (c *Chunker) Chunk(text string) (*Result, error) {
	return c.ChunkWithContext(context.Background(), text)
}

// ChunkWithContext processes one document, checking ctx between pipeline
// stages. The pipeline itself has no suspension points.
func (c *Chunker) ChunkWithContext(ctx context.Context, text string) (*Result, error) {
	started := time.Now()
	res := &Result{}

	normalized := normalizeText(text)
	if normalized == "" {
		res.StrategyUsed = StrategyFallback
		res.ProcessingTime = time.Since(started)
		return res, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, ErrContextCanceled
	}

	doc := newDocument(normalized)
	fp := analyzeDocument(doc)
	res.Warnings = append(res.Warnings, fp.Warnings...)
	res.Errors = append(res.Errors, fp.Errors...)

	if err := ctx.Err(); err != nil {
		return nil, ErrContextCanceled
	}

	primary := selectStrategy(c.strategies, fp)
	chunks, used, level := c.runWithFallback(doc, fp, primary, res)
	res.StrategyUsed = used
	res.FallbackLevel = level
	res.FallbackUsed = level > 0
	res.Chunks = chunks

	if err := ctx.Err(); err != nil {
		return nil, ErrContextCanceled
	}

	if c.cfg.EnableOverlap && len(res.Chunks) > 1 {
		c.overlap.apply(res.Chunks)
	}

	c.enricher.enrich(res.Chunks, res.StrategyUsed, res.FallbackLevel)

	if err := c.validator.validate(doc, res.Chunks, res); err != nil {
		res.ProcessingTime = time.Since(started)
		return res, err
	}

	res.ProcessingTime = time.Since(started)
	return res, nil
}

// runWithFallback executes the chosen strategy behind the fallback chain:
// a raised error or empty output for non-empty input cascades to the
// structural strategy, then to the universal fallback, skipping any level
// equal to an already tried strategy.
func (c *Chunker) runWithFallback(doc *document, fp *Fingerprint, primary strategy, res *Result) ([]Chunk, string, int) {
	chunks, err := c.tryStrategy(primary, doc, fp)
	if err == nil && len(chunks) > 0 {
		return chunks, primary.Name(), 0
	}
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("strategy %s: %v", primary.Name(), err))
	} else {
		res.Errors = append(res.Errors, fmt.Sprintf("strategy %s produced no chunks", primary.Name()))
	}

	if !c.cfg.EnableFallback {
		return nil, primary.Name(), 0
	}

	tried := map[string]bool{primary.Name(): true}

	tryLevel := func(s strategy, level int, reason string) ([]Chunk, bool) {
		chunks, err := c.tryStrategy(s, doc, fp)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("strategy %s (fallback level %d): %v", s.Name(), level, err))
			return nil, false
		}
		if len(chunks) == 0 {
			res.Errors = append(res.Errors, fmt.Sprintf("strategy %s (fallback level %d) produced no chunks", s.Name(), level))
			return nil, false
		}
		for i := range chunks {
			chunks[i].setMeta("fallback_level", level)
			chunks[i].setMeta("fallback_reason", reason)
		}
		logger.Get().Warn("chunking fell back",
			slog.String("strategy", s.Name()),
			slog.Int("level", level),
			slog.String("reason", reason),
		)
		return chunks, true
	}

	reason := fmt.Sprintf("primary strategy %s failed", primary.Name())

	if !tried[StrategyStructural] {
		tried[StrategyStructural] = true
		if chunks, ok := tryLevel(c.structural, 1, reason); ok {
			return chunks, StrategyStructural, 1
		}
	}

	if !tried[StrategyFallback] {
		if chunks, ok := tryLevel(c.universal, 2, reason); ok {
			return chunks, StrategyFallback, 2
		}
	}

	return nil, StrategyFallback, 2
}

// tryStrategy runs one strategy, converting panics into errors so the chain
// can absorb them.
func (c *Chunker) tryStrategy(s strategy, doc *document, fp *Fingerprint) (chunks []Chunk, err error) {
	defer func() {
		if r := recover(); r != nil {
			chunks = nil
			err = fmt.Errorf("strategy panicked: %v", r)
		}
	}()
	return s.Apply(doc, fp)
}
