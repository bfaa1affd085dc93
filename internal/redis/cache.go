package redis

import (
	"context"
	"fmt"
	"time"
)

// CacheService holds the chunking-domain cache operations.
type CacheService struct {
	client *Client
}

func NewCacheService(client *Client) *CacheService {
	return &CacheService{client: client}
}

const (
	DefaultTTL          = 1 * time.Hour
	ChunkResultCacheTTL = 6 * time.Hour
	DocumentCacheTTL    = 6 * time.Hour
	EmbeddingCacheTTL   = 24 * time.Hour
)

// CacheChunkResult stores a chunking result keyed by the content digest, so
// re-uploads of identical documents skip the pipeline.
func (s *CacheService) CacheChunkResult(ctx context.Context, content string, result interface{}) error {
	key := fmt.Sprintf("chunks:%s", hashText(content))
	return s.client.SetJSON(ctx, key, result, ChunkResultCacheTTL)
}

func (s *CacheService) GetChunkResult(ctx context.Context, content string, dest interface{}) (bool, error) {
	key := fmt.Sprintf("chunks:%s", hashText(content))
	exists, err := s.client.Exists(ctx, key)
	if err != nil || !exists {
		return false, err
	}
	if err := s.client.GetJSON(ctx, key, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (s *CacheService) CacheDocument(ctx context.Context, docID string, document interface{}) error {
	key := fmt.Sprintf("doc:%s", docID)
	return s.client.SetJSON(ctx, key, document, DocumentCacheTTL)
}

func (s *CacheService) GetDocument(ctx context.Context, docID string, dest interface{}) error {
	key := fmt.Sprintf("doc:%s", docID)
	return s.client.GetJSON(ctx, key, dest)
}

func (s *CacheService) InvalidateDocument(ctx context.Context, docID string) error {
	key := fmt.Sprintf("doc:%s", docID)
	return s.client.Delete(ctx, key)
}

func (s *CacheService) CacheEmbedding(ctx context.Context, text string, embedding []float32) error {
	key := fmt.Sprintf("embedding:%s", hashText(text))
	return s.client.SetJSON(ctx, key, embedding, EmbeddingCacheTTL)
}

func (s *CacheService) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	key := fmt.Sprintf("embedding:%s", hashText(text))
	var embedding []float32
	if err := s.client.GetJSON(ctx, key, &embedding); err != nil {
		return nil, err
	}
	return embedding, nil
}
