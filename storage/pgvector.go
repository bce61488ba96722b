package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"
	openai "github.com/sashabaranov/go-openai"

	"videoAssistant/config"
	"videoAssistant/core"
)

const embeddingDim = 1536

// PgVectorStore keeps chunks in PostgreSQL with pgvector embeddings,
// isolated per video id.
type PgVectorStore struct {
	conn *pgx.Conn
	oa   *openai.Client
	cfg  *config.Config
}

func newPgVectorStore(cfg *config.Config) (*PgVectorStore, error) {
	ctx := context.Background()
	conn, err := pgx.Connect(ctx, cfg.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PgVectorStore{conn: conn, oa: newEmbeddingClient(cfg), cfg: cfg}
	if err := s.ensureTable(ctx); err != nil {
		conn.Close(ctx)
		return nil, err
	}
	return s, nil
}

func newEmbeddingClient(cfg *config.Config) *openai.Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	return openai.NewClientWithConfig(clientConfig)
}

func (s *PgVectorStore) ensureTable(ctx context.Context) error {
	if _, err := s.conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector;"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	chunksQuery := `
		CREATE TABLE IF NOT EXISTS video_chunks (
			id SERIAL PRIMARY KEY,
			video_id VARCHAR(255) NOT NULL,
			chunk_index INT NOT NULL,
			total_chunks INT NOT NULL,
			kind VARCHAR(32) NOT NULL,
			source VARCHAR(255) NOT NULL,
			start_time FLOAT,
			text TEXT NOT NULL,
			embedding vector(1536),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(video_id, chunk_index, source)
		);
	`
	if _, err := s.conn.Exec(ctx, chunksQuery); err != nil {
		return fmt.Errorf("failed to create video_chunks table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_video_chunks_video_id ON video_chunks(video_id);",
		"CREATE INDEX IF NOT EXISTS idx_video_chunks_embedding ON video_chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);",
	}
	for _, indexQuery := range indexes {
		if _, err := s.conn.Exec(ctx, indexQuery); err != nil {
			fmt.Printf("Warning: failed to create index: %v\n", err)
		}
	}

	return nil
}

func (s *PgVectorStore) embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := s.oa.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(s.cfg.EmbeddingModel),
		Input: []string{text},
	})
	if err != nil {
		return nil, fmt.Errorf("embedding API failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return resp.Data[0].Embedding, nil
}

func (s *PgVectorStore) Upsert(ctx context.Context, videoID string, chunks []core.Chunk) int {
	if len(chunks) == 0 {
		return 0
	}
	successCount := 0

	for _, chunk := range chunks {
		embedding, err := s.embed(ctx, strings.ToLower(chunk.Text))
		if err != nil {
			fmt.Printf("Warning: embedding failed for chunk %d of %s: %v\n", chunk.ChunkIndex, videoID, err)
			continue
		}
		vec := pgvector.NewVector(embedding)

		_, err = s.conn.Exec(ctx, `
			INSERT INTO video_chunks (video_id, chunk_index, total_chunks, kind, source, start_time, text, embedding)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (video_id, chunk_index, source)
			DO UPDATE SET
				total_chunks = EXCLUDED.total_chunks,
				kind = EXCLUDED.kind,
				start_time = EXCLUDED.start_time,
				text = EXCLUDED.text,
				embedding = EXCLUDED.embedding
		`, videoID, chunk.ChunkIndex, chunk.TotalChunks, string(chunk.Kind), chunk.Source, chunk.StartTime, chunk.Text, vec)
		if err != nil {
			fmt.Printf("Warning: insert failed for chunk %d of %s: %v\n", chunk.ChunkIndex, videoID, err)
			continue
		}
		successCount++
	}

	return successCount
}

func (s *PgVectorStore) Search(ctx context.Context, videoID, query string, k int) []core.Chunk {
	if k <= 0 {
		k = 5
	}

	queryEmbedding, err := s.embed(ctx, strings.ToLower(query))
	if err != nil {
		fmt.Printf("Warning: query embedding failed: %v\n", err)
		return nil
	}
	vec := pgvector.NewVector(queryEmbedding)

	rows, err := s.conn.Query(ctx, `
		SELECT chunk_index, total_chunks, kind, source, start_time, text
		FROM video_chunks
		WHERE video_id = $1 AND embedding IS NOT NULL
		ORDER BY embedding <=> $2
		LIMIT $3
	`, videoID, vec, k)
	if err != nil {
		fmt.Printf("Warning: pgvector search failed: %v\n", err)
		return nil
	}
	defer rows.Close()

	var hits []core.Chunk
	for rows.Next() {
		var chunk core.Chunk
		var kind string
		if err := rows.Scan(&chunk.ChunkIndex, &chunk.TotalChunks, &kind, &chunk.Source, &chunk.StartTime, &chunk.Text); err != nil {
			continue
		}
		chunk.Kind = core.ChunkKind(kind)
		hits = append(hits, chunk)
	}
	return hits
}

func (s *PgVectorStore) Delete(ctx context.Context, videoID string) int {
	tag, err := s.conn.Exec(ctx, "DELETE FROM video_chunks WHERE video_id = $1", videoID)
	if err != nil {
		fmt.Printf("Warning: failed to delete chunks for %s: %v\n", videoID, err)
		return 0
	}
	return int(tag.RowsAffected())
}
