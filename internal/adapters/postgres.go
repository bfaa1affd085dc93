// Package adapters contains storage adapters for indexed documents and
// their chunks.
package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/hsn0918/mdchunk/internal/chunker"
)

// DocumentInfo is the stored view of a document record.
type DocumentInfo struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	ObjectKey  string         `json:"object_key"`
	ChunkCount int            `json:"chunk_count"`
	Metadata   map[string]any `json:"metadata"`
	CreatedAt  time.Time      `json:"created_at"`
}

// StoredChunk is the stored view of a chunk row.
type StoredChunk struct {
	ID         string         `json:"id"`
	DocumentID string         `json:"document_id"`
	ChunkIndex int            `json:"chunk_index"`
	Content    string         `json:"content"`
	StartLine  int            `json:"start_line"`
	EndLine    int            `json:"end_line"`
	TokenCount int            `json:"token_count"`
	Metadata   map[string]any `json:"metadata"`
}

// ChunkStore defines the persistence operations for documents and chunks.
type ChunkStore interface {
	StoreDocument(ctx context.Context, title, objectKey string, metadata map[string]any) (string, error)
	StoreChunk(ctx context.Context, docID string, index int, chunk chunker.Chunk, tokenCount int, embedding []float32) error
	ListDocuments(ctx context.Context) ([]DocumentInfo, error)
	GetChunks(ctx context.Context, docID string) ([]StoredChunk, error)
	DeleteDocument(ctx context.Context, docID string) (string, error)
}

// PostgresChunkStore implements ChunkStore on PostgreSQL. The embedding
// column is optional: rows written without an embedding store NULL.
type PostgresChunkStore struct {
	conn *pgx.Conn
}

var _ ChunkStore = (*PostgresChunkStore)(nil)

// NewPostgresChunkStore connects, enables pgvector and prepares the schema.
func NewPostgresChunkStore(dsn string, dimensions int) (*PostgresChunkStore, error) {
	ctx := context.Background()

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err = conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if _, err = conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector;"); err != nil {
		return nil, fmt.Errorf("failed to enable vector extension: %w", err)
	}

	createDocumentsTable := `
	CREATE TABLE IF NOT EXISTS markdown_documents (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		title TEXT NOT NULL,
		object_key TEXT NOT NULL,
		metadata JSONB DEFAULT '{}',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);`

	createChunksTable := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS document_chunks (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		document_id UUID NOT NULL REFERENCES markdown_documents(id) ON DELETE CASCADE,
		chunk_index INTEGER NOT NULL,
		content TEXT NOT NULL,
		start_line INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		token_count INTEGER NOT NULL DEFAULT 0,
		embedding vector(%d),
		metadata JSONB DEFAULT '{}',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(document_id, chunk_index)
	);`, dimensions)

	if _, err = conn.Exec(ctx, createDocumentsTable); err != nil {
		return nil, fmt.Errorf("failed to create markdown_documents table: %w", err)
	}
	if _, err = conn.Exec(ctx, createChunksTable); err != nil {
		return nil, fmt.Errorf("failed to create document_chunks table: %w", err)
	}

	return &PostgresChunkStore{conn: conn}, nil
}

// Close releases the database connection.
func (db *PostgresChunkStore) Close(ctx context.Context) error {
	return db.conn.Close(ctx)
}

// StoreDocument inserts a document record and returns its generated ID.
func (db *PostgresChunkStore) StoreDocument(ctx context.Context, title, objectKey string, metadata map[string]any) (string, error) {
	docID := uuid.New().String()

	metadataJSON, err := sonic.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = db.conn.Exec(ctx,
		"INSERT INTO markdown_documents (id, title, object_key, metadata) VALUES ($1, $2, $3, $4)",
		docID, title, objectKey, metadataJSON)
	if err != nil {
		return "", fmt.Errorf("failed to store document: %w", err)
	}

	return docID, nil
}

// StoreChunk inserts one chunk row. A nil embedding stores NULL.
func (db *PostgresChunkStore) StoreChunk(ctx context.Context, docID string, index int, chunk chunker.Chunk, tokenCount int, embedding []float32) error {
	metadataJSON, err := sonic.Marshal(chunk.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal chunk metadata: %w", err)
	}

	var vec any
	if len(embedding) > 0 {
		vec = pgvector.NewVector(embedding)
	}

	_, err = db.conn.Exec(ctx,
		`INSERT INTO document_chunks
			(document_id, chunk_index, content, start_line, end_line, token_count, embedding, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		docID, index, chunk.Content, chunk.StartLine, chunk.EndLine, tokenCount, vec, metadataJSON)
	if err != nil {
		return fmt.Errorf("failed to store chunk %d: %w", index, err)
	}

	return nil
}

// ListDocuments returns all document records with their chunk counts.
func (db *PostgresChunkStore) ListDocuments(ctx context.Context) ([]DocumentInfo, error) {
	rows, err := db.conn.Query(ctx, `
		SELECT d.id, d.title, d.object_key, d.metadata, d.created_at,
			COUNT(c.id) AS chunk_count
		FROM markdown_documents d
		LEFT JOIN document_chunks c ON c.document_id = d.id
		GROUP BY d.id
		ORDER BY d.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []DocumentInfo
	for rows.Next() {
		var doc DocumentInfo
		var metadataJSON []byte
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.ObjectKey, &metadataJSON, &doc.CreatedAt, &doc.ChunkCount); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := sonic.Unmarshal(metadataJSON, &doc.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal document metadata: %w", err)
			}
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// GetChunks returns a document's chunks ordered by index.
func (db *PostgresChunkStore) GetChunks(ctx context.Context, docID string) ([]StoredChunk, error) {
	rows, err := db.conn.Query(ctx, `
		SELECT id, document_id, chunk_index, content, start_line, end_line, token_count, metadata
		FROM document_chunks
		WHERE document_id = $1
		ORDER BY chunk_index`, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []StoredChunk
	for rows.Next() {
		var chunk StoredChunk
		var metadataJSON []byte
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.ChunkIndex, &chunk.Content,
			&chunk.StartLine, &chunk.EndLine, &chunk.TokenCount, &metadataJSON); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		if len(metadataJSON) > 0 {
			if err := sonic.Unmarshal(metadataJSON, &chunk.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal chunk metadata: %w", err)
			}
		}
		chunks = append(chunks, chunk)
	}

	return chunks, rows.Err()
}

// DeleteDocument removes a document and, via cascade, its chunks. It
// returns the stored object key so the caller can clean up object storage.
func (db *PostgresChunkStore) DeleteDocument(ctx context.Context, docID string) (string, error) {
	var objectKey string
	err := db.conn.QueryRow(ctx,
		"DELETE FROM markdown_documents WHERE id = $1 RETURNING object_key", docID).Scan(&objectKey)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", fmt.Errorf("document %s not found", docID)
		}
		return "", fmt.Errorf("failed to delete document: %w", err)
	}
	return objectKey, nil
}
