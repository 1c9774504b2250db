package retrieval

// Hit 单条向量检索命中
type Hit struct {
	// Text 分块原文
	Text string `json:"text"`
	// Source 分块来源文件名（如 "chapter-one.md"）
	Source string `json:"source"`
	// Score 相似度（COSINE: 1-distance，越大越相似）
	Score float64 `json:"score"`
}

// SearchOutput 检索结果
type SearchOutput struct {
	Hits []Hit `json:"hits"`
	// DisabledReason 向量检索被降级时的原因说明，正常为空
	DisabledReason string `json:"disabled_reason,omitempty"`
}
