package server

import (
	"errors"
	"net/http"

	"github.com/hsn0918/mdchunk/internal/chunker"
)

// HandleChunk chunks a markdown payload without persisting anything.
// Per-request options overlay the configured defaults.
func (s *ChunkServer) HandleChunk(w http.ResponseWriter, r *http.Request) {
	var req ChunkRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: %v", err)
		return
	}

	core := s.Chunker
	if req.Options != nil {
		cfg := req.Options.applyTo(s.Config.Chunking.ChunkerConfig())
		custom, err := chunker.New(cfg)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid options: %v", err)
			return
		}
		core = custom
	}

	result, err := core.ChunkWithContext(r.Context(), req.Content)
	if err != nil {
		if errors.Is(err, chunker.ErrContextCanceled) {
			return
		}
		// Strict-mode validation failures still carry the chunk list.
		if result == nil {
			writeError(w, http.StatusUnprocessableEntity, "chunking failed: %v", err)
			return
		}
		result.Errors = append(result.Errors, err.Error())
	}

	resp := ChunkResponse{
		StrategyUsed:   result.StrategyUsed,
		FallbackUsed:   result.FallbackUsed,
		FallbackLevel:  result.FallbackLevel,
		ProcessingSecs: result.ProcessingTime.Seconds(),
		Errors:         result.Errors,
		Warnings:       result.Warnings,
	}

	if req.AsStrings {
		encoded := make([]string, 0, len(result.Chunks))
		for i := range result.Chunks {
			text, err := chunker.EncodeString(&result.Chunks[i], req.IncludeMetadata)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to encode chunk %d: %v", i, err)
				return
			}
			encoded = append(encoded, text)
		}
		resp.Encoded = encoded
	} else {
		resp.Chunks = result.Chunks
	}

	writeJSON(w, http.StatusOK, resp)
}
