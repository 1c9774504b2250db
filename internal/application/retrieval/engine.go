package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/embedding"
)

// Engine 向量检索引擎。检索失败或未配置时降级为空结果，不阻断上层流程。
type Engine struct {
	embedder embedding.Embedder
	vector   VectorRepository
}

// NewEngine 创建检索引擎
func NewEngine(embedder embedding.Embedder, vectorRepo VectorRepository) *Engine {
	return &Engine{
		embedder: embedder,
		vector:   vectorRepo,
	}
}

// Enabled 向量检索是否可用
func (e *Engine) Enabled() bool {
	return e != nil && e.embedder != nil && e.vector != nil
}

// Search 按查询文本检索 topK 条最相似分块
func (e *Engine) Search(ctx context.Context, query string, topK int) (*SearchOutput, error) {
	if topK <= 0 {
		topK = 3
	}
	if topK > 50 {
		topK = 50
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}

	out := &SearchOutput{}

	if !e.Enabled() {
		out.DisabledReason = ErrVectorDisabled.Error()
		return out, nil
	}

	if err := e.vector.EnsureBookChunksCollection(ctx); err != nil {
		out.DisabledReason = err.Error()
		return out, nil
	}

	emb, err := e.embedQuery(ctx, query)
	if err != nil {
		out.DisabledReason = err.Error()
		return out, nil
	}

	results, err := e.vector.SearchChunks(ctx, emb, topK)
	if err != nil {
		out.DisabledReason = err.Error()
		return out, nil
	}

	out.Hits = make([]Hit, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		out.Hits = append(out.Hits, Hit{
			Text:   strings.TrimSpace(r.TextContent),
			Source: strings.TrimSpace(r.Source),
			Score:  float64(r.Score), // COSINE 下 SDK 返回相似度，越大越相似，直接透传
		})
	}
	return out, nil
}

func (e *Engine) embedQuery(ctx context.Context, query string) ([]float32, error) {
	v64, err := e.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(v64) == 0 {
		return nil, fmt.Errorf("empty embedding result")
	}
	vec := v64[0]
	out := make([]float32, 0, len(vec))
	for _, x := range vec {
		out = append(out, float32(x))
	}
	return out, nil
}
