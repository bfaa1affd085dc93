// Package embedding provides a client for embedding service operations.
// Embeddings are generated by the service layer only; the chunking core
// never calls out.
package embedding

import (
	"time"

	"github.com/hsn0918/mdchunk/internal/clients/base"
	"github.com/hsn0918/mdchunk/internal/config"
)

// Default configuration constants
const (
	DefaultTimeout = 30 * time.Second
	ServiceName    = "embedding"
)

// Embedder defines the interface for embedding operations.
type Embedder interface {
	CreateEmbedding(req Request) (*Response, error)
	CreateEmbeddingWithDefaults(model, text string) (*Response, error)
	CreateBatchEmbedding(model string, texts []string) (*Response, error)
}

// Client provides embedding API operations using the standardized base
// client.
type Client struct {
	httpClient *base.HTTPClient
	config     config.ServiceConfig
}

var _ Embedder = (*Client)(nil)

// NewClient creates a new embedding client.
func NewClient(cfg config.ServiceConfig) *Client {
	return &Client{
		httpClient: base.NewHTTPClient(ServiceName, cfg, DefaultTimeout),
		config:     cfg,
	}
}

// Request represents an embedding generation request.
type Request struct {
	Model          string      `json:"model"`
	Input          interface{} `json:"input"`
	EncodingFormat string      `json:"encoding_format,omitempty"`
	Dimensions     int         `json:"dimensions,omitempty"`
}

// Data represents a single embedding result.
type Data struct {
	Object    string    `json:"object"`
	Embedding []float64 `json:"embedding"`
	Index     int       `json:"index"`
}

// Usage represents token usage information.
type Usage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Response represents the complete embedding API response.
type Response struct {
	Object string `json:"object"`
	Model  string `json:"model"`
	Data   []Data `json:"data"`
	Usage  Usage  `json:"usage"`
}

// CreateEmbedding generates embeddings for the given request.
func (c *Client) CreateEmbedding(req Request) (*Response, error) {
	var result Response
	if err := c.httpClient.Post("/embeddings", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CreateEmbeddingWithDefaults generates embeddings with standard settings.
func (c *Client) CreateEmbeddingWithDefaults(model, text string) (*Response, error) {
	return c.CreateEmbedding(Request{
		Model:          model,
		Input:          text,
		EncodingFormat: "float",
	})
}

// CreateBatchEmbedding generates embeddings for multiple texts in a single
// call.
func (c *Client) CreateBatchEmbedding(model string, texts []string) (*Response, error) {
	return c.CreateEmbedding(Request{
		Model:          model,
		Input:          texts,
		EncodingFormat: "float",
	})
}

// GetDefaultDimensions returns the default embedding dimension for a model.
func GetDefaultDimensions(model string) int {
	switch model {
	case "BAAI/bge-large-zh-v1.5", "BAAI/bge-large-en-v1.5", "BAAI/bge-m3":
		return 1024
	case "netease-youdao/bce-embedding-base_v1":
		return 768
	case "Qwen/Qwen3-Embedding-8B":
		return 4096
	case "Qwen/Qwen3-Embedding-4B":
		return 2048
	case "Qwen/Qwen3-Embedding-0.6B":
		return 1024
	default:
		return 1536
	}
}
