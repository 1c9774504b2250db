package retrieval

import "errors"

// ErrVectorDisabled 向量检索未启用（embedder 或 Milvus 未配置）。
// 调用方据此降级：索引跳过、检索返回空结果。
var ErrVectorDisabled = errors.New("vector retrieval is disabled")
