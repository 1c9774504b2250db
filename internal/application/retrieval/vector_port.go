package retrieval

import (
	"context"

	"book-creator-api/internal/infrastructure/persistence/milvus"
)

// VectorRepository 向量仓储端口（由 milvus.Repository 实现）
type VectorRepository interface {
	// EnsureBookChunksCollection 确保集合与索引存在且已加载
	EnsureBookChunksCollection(ctx context.Context) error

	// DeleteChunksBySource 删除指定来源文件的全部分块
	DeleteChunksBySource(ctx context.Context, source string) error

	// InsertChunks 批量写入分块
	InsertChunks(ctx context.Context, chunks []*milvus.BookChunk) error

	// SearchChunks 按向量检索 topK 条分块
	SearchChunks(ctx context.Context, queryVector []float32, topK int) ([]*milvus.SearchResult, error)
}
