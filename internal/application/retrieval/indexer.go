// Package retrieval 提供书籍内容的向量索引与检索
package retrieval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/google/uuid"

	"book-creator-api/internal/infrastructure/persistence/milvus"
	"book-creator-api/pkg/logger"
	"book-creator-api/pkg/metrics"
)

const defaultEmbeddingBatch = 32

// Indexer 文档索引器：分块、向量化并写入 Milvus
type Indexer struct {
	embedder embedding.Embedder
	vector   VectorRepository

	embeddingBatchSize int
}

// NewIndexer 创建索引器。embedder 或 vectorRepo 为 nil 时索引器处于禁用态。
func NewIndexer(embedder embedding.Embedder, vectorRepo VectorRepository, embeddingBatchSize int) *Indexer {
	bs := embeddingBatchSize
	if bs <= 0 {
		bs = defaultEmbeddingBatch
	}
	return &Indexer{
		embedder:           embedder,
		vector:             vectorRepo,
		embeddingBatchSize: bs,
	}
}

// Enabled 向量索引是否可用
func (i *Indexer) Enabled() bool {
	return i != nil && i.embedder != nil && i.vector != nil
}

func (i *Indexer) ensureReady(ctx context.Context) error {
	if i == nil || i.vector == nil {
		return ErrVectorDisabled
	}
	return i.vector.EnsureBookChunksCollection(ctx)
}

// IndexDocument 索引一份文档：先清除同名来源的旧分块，再分块向量化写入。
// 同一 source 重复索引表现为覆盖写，不会累积重复分块。
func (i *Indexer) IndexDocument(ctx context.Context, source, content string) error {
	source = strings.TrimSpace(source)
	if source == "" {
		return fmt.Errorf("source is required")
	}
	if !i.Enabled() {
		return ErrVectorDisabled
	}
	if err := i.ensureReady(ctx); err != nil {
		return err
	}

	if err := i.vector.DeleteChunksBySource(ctx, source); err != nil {
		return err
	}

	paragraphs := SplitParagraphs(content)
	if len(paragraphs) == 0 {
		// 无有效段落不写索引；前面的删除保证旧分块不残留
		logger.Info(ctx, "no indexable paragraphs", "source", source)
		return nil
	}

	vectors, err := i.embedBatch(ctx, paragraphs)
	if err != nil {
		return err
	}

	chunks := make([]*milvus.BookChunk, 0, len(paragraphs))
	for idx, p := range paragraphs {
		chunks = append(chunks, &milvus.BookChunk{
			ID:          uuid.NewString(),
			Vector:      vectors[idx],
			Source:      source,
			TextContent: p,
		})
	}

	if err := i.vector.InsertChunks(ctx, chunks); err != nil {
		return err
	}

	logger.Info(ctx, "document indexed", "source", source, "chunks", len(chunks))
	return nil
}

func (i *Indexer) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if i == nil || i.embedder == nil {
		return nil, ErrVectorDisabled
	}
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += i.embeddingBatchSize {
		end := start + i.embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batchStart := time.Now()
		v64, err := i.embedder.EmbedStrings(ctx, texts[start:end])
		metrics.EmbeddingDuration.Observe(time.Since(batchStart).Seconds())
		if err != nil {
			return nil, err
		}
		for _, vec := range v64 {
			f32 := make([]float32, 0, len(vec))
			for _, x := range vec {
				f32 = append(f32, float32(x))
			}
			out = append(out, f32)
		}
	}
	return out, nil
}
