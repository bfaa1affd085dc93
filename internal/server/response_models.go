package server

import (
	"time"

	"github.com/hsn0918/mdchunk/internal/adapters"
	"github.com/hsn0918/mdchunk/internal/chunker"
)

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ChunkOptions carries per-request overrides of the configured chunking
// options. Pointer fields distinguish "absent" from an explicit false/zero.
type ChunkOptions struct {
	MaxChunkSize         int      `json:"max_chunk_size,omitempty"`
	MinChunkSize         int      `json:"min_chunk_size,omitempty"`
	OverlapSize          *int     `json:"overlap_size,omitempty"`
	OverlapPercentage    *float64 `json:"overlap_percentage,omitempty"`
	EnableOverlap        *bool    `json:"enable_overlap,omitempty"`
	EnableFallback       *bool    `json:"enable_fallback,omitempty"`
	CodeThreshold        *float64 `json:"code_threshold,omitempty"`
	StructureThreshold   int      `json:"structure_threshold,omitempty"`
	SectionBoundaryLevel int      `json:"section_boundary_level,omitempty"`
	PreserveAtomicBlocks *bool    `json:"preserve_atomic_blocks,omitempty"`
	ExtractPreamble      *bool    `json:"extract_preamble,omitempty"`
	Tolerance            *float64 `json:"tolerance,omitempty"`
	StrictValidation     *bool    `json:"strict_validation,omitempty"`
}

// applyTo overlays the overrides on a base configuration.
func (o *ChunkOptions) applyTo(base chunker.Config) chunker.Config {
	if o == nil {
		return base
	}
	if o.MaxChunkSize > 0 {
		base.MaxChunkSize = o.MaxChunkSize
	}
	if o.MinChunkSize > 0 {
		base.MinChunkSize = o.MinChunkSize
	}
	if o.OverlapSize != nil {
		base.OverlapSize = *o.OverlapSize
	}
	if o.OverlapPercentage != nil {
		base.OverlapPercentage = *o.OverlapPercentage
	}
	if o.EnableOverlap != nil {
		base.EnableOverlap = *o.EnableOverlap
	}
	if o.EnableFallback != nil {
		base.EnableFallback = *o.EnableFallback
	}
	if o.CodeThreshold != nil {
		base.CodeThreshold = *o.CodeThreshold
	}
	if o.StructureThreshold > 0 {
		base.StructureThreshold = o.StructureThreshold
	}
	if o.SectionBoundaryLevel > 0 {
		base.SectionBoundaryLevel = o.SectionBoundaryLevel
	}
	if o.PreserveAtomicBlocks != nil {
		base.PreserveAtomicBlocks = *o.PreserveAtomicBlocks
	}
	if o.ExtractPreamble != nil {
		base.ExtractPreamble = *o.ExtractPreamble
	}
	if o.Tolerance != nil {
		base.Tolerance = *o.Tolerance
	}
	if o.StrictValidation != nil {
		base.StrictValidation = *o.StrictValidation
	}
	return base
}

// ChunkRequest asks for a document to be chunked without storage.
type ChunkRequest struct {
	Content         string        `json:"content"`
	Options         *ChunkOptions `json:"options,omitempty"`
	IncludeMetadata bool          `json:"include_metadata,omitempty"`
	AsStrings       bool          `json:"as_strings,omitempty"`
}

// ChunkResponse returns the chunking result. Encoded is populated instead
// of Chunks when the caller asked for the string format.
type ChunkResponse struct {
	Chunks         []chunker.Chunk `json:"chunks,omitempty"`
	Encoded        []string        `json:"encoded,omitempty"`
	StrategyUsed   string          `json:"strategy_used"`
	FallbackUsed   bool            `json:"fallback_used"`
	FallbackLevel  int             `json:"fallback_level"`
	ProcessingSecs float64         `json:"processing_time_seconds"`
	Errors         []string        `json:"errors,omitempty"`
	Warnings       []string        `json:"warnings,omitempty"`
}

// UploadDocumentRequest stores and indexes a document.
type UploadDocumentRequest struct {
	Title   string        `json:"title,omitempty"`
	Content string        `json:"content"`
	Options *ChunkOptions `json:"options,omitempty"`
}

// UploadDocumentResponse reports the stored document.
type UploadDocumentResponse struct {
	DocumentID   string   `json:"document_id"`
	Title        string   `json:"title"`
	ChunkCount   int      `json:"chunk_count"`
	StrategyUsed string   `json:"strategy_used"`
	Warnings     []string `json:"warnings,omitempty"`
}

// ListDocumentsResponse lists stored documents.
type ListDocumentsResponse struct {
	Documents []adapters.DocumentInfo `json:"documents"`
	Total     int                     `json:"total"`
}

// GetChunksResponse returns a stored document's chunks.
type GetChunksResponse struct {
	DocumentID string                 `json:"document_id"`
	Chunks     []adapters.StoredChunk `json:"chunks"`
	Total      int                    `json:"total"`
}

// DeleteDocumentResponse confirms a deletion.
type DeleteDocumentResponse struct {
	DocumentID string    `json:"document_id"`
	DeletedAt  time.Time `json:"deleted_at"`
}
