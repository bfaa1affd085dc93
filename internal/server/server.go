// Package server exposes the chunking service over a JSON HTTP API.
package server

import (
	"context"
	"fmt"

	"github.com/hsn0918/mdchunk/internal/adapters"
	"github.com/hsn0918/mdchunk/internal/chunker"
	"github.com/hsn0918/mdchunk/internal/clients/embedding"
	"github.com/hsn0918/mdchunk/internal/config"
	"github.com/hsn0918/mdchunk/internal/logger"
	"github.com/hsn0918/mdchunk/internal/redis"
	"github.com/hsn0918/mdchunk/internal/storage"
)

// ChunkServer holds the dependencies of every handler.
type ChunkServer struct {
	Store     adapters.ChunkStore
	Cache     *redis.CacheService
	Storage   storage.ObjectStorage
	Embedding *embedding.Client
	Chunker   *chunker.Chunker
	Config    *config.Config
}

// chunkDocument runs the core, using the result cache keyed by content.
func (s *ChunkServer) chunkDocument(ctx context.Context, content string, core *chunker.Chunker, cacheable bool) (*chunker.Result, error) {
	if cacheable && s.Cache != nil {
		var cached chunker.Result
		hit, err := s.Cache.GetChunkResult(ctx, content, &cached)
		if err != nil {
			logger.Get().Warn("chunk result cache lookup failed", "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	result, err := core.ChunkWithContext(ctx, content)
	if err != nil {
		return nil, err
	}

	if cacheable && s.Cache != nil {
		if err := s.Cache.CacheChunkResult(ctx, content, result); err != nil {
			logger.Get().Warn("failed to cache chunk result", "error", err)
		}
	}

	return result, nil
}

// generateEmbedding produces an embedding for one chunk, consulting the
// embedding cache first. It returns nil when no embedder is configured.
func (s *ChunkServer) generateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if s.Embedding == nil {
		return nil, nil
	}

	if s.Cache != nil {
		cached, err := s.Cache.GetEmbedding(ctx, text)
		if err == nil && len(cached) > 0 {
			return cached, nil
		}
	}

	resp, err := s.Embedding.CreateEmbeddingWithDefaults(s.Config.Services.Embedding.Model, text)
	if err != nil {
		return nil, fmt.Errorf("failed to get embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}

	vec := make([]float32, len(resp.Data[0].Embedding))
	for i, val := range resp.Data[0].Embedding {
		vec[i] = float32(val)
	}

	if s.Cache != nil {
		_ = s.Cache.CacheEmbedding(ctx, text, vec)
	}

	return vec, nil
}
