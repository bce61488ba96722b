package storage

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	openai "github.com/sashabaranov/go-openai"

	"videoAssistant/config"
	"videoAssistant/core"
)

// MilvusVectorStore keeps chunks in a Milvus collection with an HNSW cosine
// index, filtered per video id at search time.
type MilvusVectorStore struct {
	mc   client.Client
	coll string
	dim  int
	oa   *openai.Client
	cfg  *config.Config
}

func newMilvusVectorStore(cfg *config.Config) (*MilvusVectorStore, error) {
	addr := os.Getenv("MILVUS_ADDR")
	if addr == "" {
		addr = "localhost:19530"
	}
	coll := os.Getenv("MILVUS_COLLECTION")
	if coll == "" {
		coll = "video_chunks"
	}

	mc, err := client.NewClient(context.Background(), client.Config{
		Address:  addr,
		Username: os.Getenv("MILVUS_USERNAME"),
		Password: os.Getenv("MILVUS_PASSWORD"),
		APIKey:   os.Getenv("MILVUS_API_KEY"), // For Zilliz Cloud
	})
	if err != nil {
		return nil, fmt.Errorf("connect milvus: %w", err)
	}

	s := &MilvusVectorStore{mc: mc, coll: coll, dim: embeddingDim, oa: newEmbeddingClient(cfg), cfg: cfg}
	if err := s.ensureSchemaAndIndex(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MilvusVectorStore) ensureSchemaAndIndex() error {
	ctx := context.Background()
	has, err := s.mc.HasCollection(ctx, s.coll)
	if err != nil {
		return err
	}
	if !has {
		schema := entity.NewSchema()
		schema.WithField(entity.NewField().WithName("id").WithIsAutoID(true).WithIsPrimaryKey(true).WithDataType(entity.FieldTypeInt64))
		schema.WithField(entity.NewField().WithName("video_id").WithDataType(entity.FieldTypeVarChar).WithMaxLength(128))
		schema.WithField(entity.NewField().WithName("chunk_index").WithDataType(entity.FieldTypeInt64))
		schema.WithField(entity.NewField().WithName("total_chunks").WithDataType(entity.FieldTypeInt64))
		schema.WithField(entity.NewField().WithName("kind").WithDataType(entity.FieldTypeVarChar).WithMaxLength(32))
		schema.WithField(entity.NewField().WithName("source").WithDataType(entity.FieldTypeVarChar).WithMaxLength(255))
		schema.WithField(entity.NewField().WithName("start_time").WithDataType(entity.FieldTypeDouble))
		schema.WithField(entity.NewField().WithName("text").WithDataType(entity.FieldTypeVarChar).WithMaxLength(4096))
		schema.WithField(entity.NewField().WithName("vector").WithDataType(entity.FieldTypeFloatVector).WithDim(int64(s.dim)))

		if err := s.mc.CreateCollection(ctx, schema, int32(2)); err != nil {
			return fmt.Errorf("create collection: %w", err)
		}
	}
	idx, err := entity.NewIndexHNSW(entity.COSINE, 8, 200)
	if err != nil {
		return fmt.Errorf("new hnsw index: %w", err)
	}
	if err := s.mc.CreateIndex(ctx, s.coll, "vector", idx, false, client.WithIndexName("idx_vector")); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if err := s.mc.LoadCollection(ctx, s.coll, false); err != nil {
		return fmt.Errorf("load collection: %w", err)
	}
	return nil
}

func (s *MilvusVectorStore) embed(ctx context.Context, text string) ([]float32, error) {
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

// noStartTime marks chunks without a timestamp; Milvus doubles cannot be null.
const noStartTime = -1.0

func (s *MilvusVectorStore) Upsert(ctx context.Context, videoID string, chunks []core.Chunk) int {
	if len(chunks) == 0 {
		return 0
	}

	videoIDs := make([]string, 0, len(chunks))
	indexes := make([]int64, 0, len(chunks))
	totals := make([]int64, 0, len(chunks))
	kinds := make([]string, 0, len(chunks))
	sources := make([]string, 0, len(chunks))
	startTimes := make([]float64, 0, len(chunks))
	texts := make([]string, 0, len(chunks))
	vectors := make([][]float32, 0, len(chunks))

	for _, chunk := range chunks {
		v, err := s.embed(ctx, strings.ToLower(chunk.Text))
		if err != nil {
			continue
		}
		videoIDs = append(videoIDs, videoID)
		indexes = append(indexes, int64(chunk.ChunkIndex))
		totals = append(totals, int64(chunk.TotalChunks))
		kinds = append(kinds, string(chunk.Kind))
		sources = append(sources, chunk.Source)
		start := noStartTime
		if chunk.StartTime != nil {
			start = *chunk.StartTime
		}
		startTimes = append(startTimes, start)
		texts = append(texts, chunk.Text)
		vectors = append(vectors, v)
	}
	if len(vectors) == 0 {
		return 0
	}

	_, err := s.mc.Insert(ctx, s.coll, "",
		entity.NewColumnVarChar("video_id", videoIDs),
		entity.NewColumnInt64("chunk_index", indexes),
		entity.NewColumnInt64("total_chunks", totals),
		entity.NewColumnVarChar("kind", kinds),
		entity.NewColumnVarChar("source", sources),
		entity.NewColumnDouble("start_time", startTimes),
		entity.NewColumnVarChar("text", texts),
		entity.NewColumnFloatVector("vector", s.dim, vectors),
	)
	if err != nil {
		fmt.Printf("Warning: milvus insert failed: %v\n", err)
		return 0
	}
	return len(vectors)
}

func (s *MilvusVectorStore) Search(ctx context.Context, videoID, query string, k int) []core.Chunk {
	v, err := s.embed(ctx, strings.ToLower(query))
	if err != nil {
		fmt.Printf("Warning: query embedding failed: %v\n", err)
		return nil
	}
	if k <= 0 {
		k = 5
	}

	sp, _ := entity.NewIndexHNSWSearchParam(74)
	filter := fmt.Sprintf("video_id == \"%s\"", strings.ReplaceAll(videoID, "\"", "\\\""))
	res, err := s.mc.Search(ctx, s.coll, []string{}, filter,
		[]string{"chunk_index", "total_chunks", "kind", "source", "start_time", "text"},
		[]entity.Vector{entity.FloatVector(v)}, "vector", entity.COSINE, k, sp)
	if err != nil {
		fmt.Printf("Warning: milvus search failed: %v\n", err)
		return nil
	}

	var hits []core.Chunk
	for _, r := range res {
		cols := map[string]entity.Column{}
		for _, c := range r.Fields {
			cols[c.Name()] = c
		}
		for i := 0; i < r.ResultCount; i++ {
			var chunk core.Chunk
			if c, ok := cols["chunk_index"].(*entity.ColumnInt64); ok {
				if data := c.Data(); i < len(data) {
					chunk.ChunkIndex = int(data[i])
				}
			}
			if c, ok := cols["total_chunks"].(*entity.ColumnInt64); ok {
				if data := c.Data(); i < len(data) {
					chunk.TotalChunks = int(data[i])
				}
			}
			if c, ok := cols["kind"].(*entity.ColumnVarChar); ok {
				if data := c.Data(); i < len(data) {
					chunk.Kind = core.ChunkKind(data[i])
				}
			}
			if c, ok := cols["source"].(*entity.ColumnVarChar); ok {
				if data := c.Data(); i < len(data) {
					chunk.Source = data[i]
				}
			}
			if c, ok := cols["start_time"].(*entity.ColumnDouble); ok {
				if data := c.Data(); i < len(data) && data[i] != noStartTime {
					start := data[i]
					chunk.StartTime = &start
				}
			}
			if c, ok := cols["text"].(*entity.ColumnVarChar); ok {
				if data := c.Data(); i < len(data) {
					chunk.Text = data[i]
				}
			}
			hits = append(hits, chunk)
		}
	}
	return hits
}

func (s *MilvusVectorStore) Delete(ctx context.Context, videoID string) int {
	filter := fmt.Sprintf("video_id == \"%s\"", strings.ReplaceAll(videoID, "\"", "\\\""))
	if err := s.mc.Delete(ctx, s.coll, "", filter); err != nil {
		fmt.Printf("Warning: milvus delete failed: %v\n", err)
		return 0
	}
	return 1
}
