package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hsn0918/mdchunk/internal/chunker"
	"github.com/hsn0918/mdchunk/internal/logger"
	"github.com/hsn0918/mdchunk/internal/redis"
	"github.com/hsn0918/mdchunk/internal/tokens"
)

// HandleUploadDocument stores the source in object storage, chunks it,
// counts tokens, optionally embeds each chunk and records everything in the
// chunk store.
func (s *ChunkServer) HandleUploadDocument(w http.ResponseWriter, r *http.Request) {
	var req UploadDocumentRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: %v", err)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	ctx := r.Context()

	core := s.Chunker
	cacheable := req.Options == nil // custom options would poison the shared cache
	if req.Options != nil {
		cfg := req.Options.applyTo(s.Config.Chunking.ChunkerConfig())
		custom, err := chunker.New(cfg)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid options: %v", err)
			return
		}
		core = custom
	}

	result, err := s.chunkDocument(ctx, req.Content, core, cacheable)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "chunking failed: %v", err)
		return
	}
	if len(result.Chunks) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "document produced no chunks")
		return
	}

	// Keep the original body in object storage, keyed by content digest so
	// identical uploads share one object.
	contentHash := redis.HashContent(req.Content)
	objectKey := fmt.Sprintf("documents/%s.md", contentHash)
	exists, err := s.Storage.CheckFileExists(ctx, objectKey)
	if err != nil {
		logger.Get().Warn("object existence check failed", "key", objectKey, "error", err)
	}
	if !exists {
		reader := strings.NewReader(req.Content)
		if err := s.Storage.UploadFile(ctx, objectKey, reader, int64(len(req.Content)), "text/markdown"); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to store document body: %v", err)
			return
		}
	}

	title, outline := extractOutline(req.Content)
	if req.Title != "" {
		title = req.Title
	}
	if title == "" {
		title = "untitled"
	}

	docID, err := s.Store.StoreDocument(ctx, title, objectKey, map[string]any{
		"source":        "api_upload",
		"content_hash":  contentHash,
		"strategy_used": result.StrategyUsed,
		"chunk_count":   len(result.Chunks),
		"outline":       outline,
		"created_at":    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store document: %v", err)
		return
	}

	for i := range result.Chunks {
		chunk := result.Chunks[i]

		tokenCount, err := tokens.Count(chunk.Content)
		if err != nil {
			logger.Get().Warn("token counting failed", "chunk", i, "error", err)
		}

		vec, err := s.generateEmbedding(ctx, chunk.Content)
		if err != nil {
			// Chunks without embeddings are still indexed.
			logger.Get().Warn("embedding generation failed", "chunk", i, "error", err)
			vec = nil
		}

		if err := s.Store.StoreChunk(ctx, docID, i, chunk, tokenCount, vec); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to store chunk %d: %v", i, err)
			return
		}
	}

	if err := s.Cache.CacheDocument(ctx, docID, map[string]any{
		"title":        title,
		"object_key":   objectKey,
		"content_hash": contentHash,
		"chunks":       len(result.Chunks),
	}); err != nil {
		logger.Get().Warn("failed to cache document summary", "doc_id", docID, "error", err)
	}

	writeJSON(w, http.StatusCreated, UploadDocumentResponse{
		DocumentID:   docID,
		Title:        title,
		ChunkCount:   len(result.Chunks),
		StrategyUsed: result.StrategyUsed,
		Warnings:     result.Warnings,
	})
}

// HandleListDocuments returns all stored documents.
func (s *ChunkServer) HandleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.Store.ListDocuments(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list documents: %v", err)
		return
	}

	writeJSON(w, http.StatusOK, ListDocumentsResponse{
		Documents: docs,
		Total:     len(docs),
	})
}

// HandleGetChunks returns a stored document's chunks in order.
func (s *ChunkServer) HandleGetChunks(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("id")
	if docID == "" {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	chunks, err := s.Store.GetChunks(r.Context(), docID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load chunks: %v", err)
		return
	}

	writeJSON(w, http.StatusOK, GetChunksResponse{
		DocumentID: docID,
		Chunks:     chunks,
		Total:      len(chunks),
	})
}

// HandleDeleteDocument removes a document, its chunks, its stored body and
// its cache entry.
func (s *ChunkServer) HandleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	docID := r.PathValue("id")
	if docID == "" {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	ctx := r.Context()

	objectKey, err := s.Store.DeleteDocument(ctx, docID)
	if err != nil {
		writeError(w, http.StatusNotFound, "failed to delete document: %v", err)
		return
	}

	if objectKey != "" {
		if err := s.Storage.DeleteFile(ctx, objectKey); err != nil {
			logger.Get().Warn("failed to delete stored body", "key", objectKey, "error", err)
		}
	}
	if err := s.Cache.InvalidateDocument(ctx, docID); err != nil {
		logger.Get().Warn("failed to invalidate document cache", "doc_id", docID, "error", err)
	}

	writeJSON(w, http.StatusOK, DeleteDocumentResponse{
		DocumentID: docID,
		DeletedAt:  time.Now().UTC(),
	})
}
