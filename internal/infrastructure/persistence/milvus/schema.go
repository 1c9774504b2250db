// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	// CollectionBookChunks 书籍内容分块集合
	CollectionBookChunks = "book_content"

	// VectorDimension 向量维度（text-embedding-3-small）
	VectorDimension = 1536
)

// BookChunksSchema 书籍分块 Collection Schema
func BookChunksSchema() *entity.Schema {
	return &entity.Schema{
		CollectionName: CollectionBookChunks,
		Description:    "Generated book content chunks for semantic search",
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "vector",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": "1536",
				},
			},
			{
				Name:     "source",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "512",
				},
			},
			{
				Name:     "text_content",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "65535",
				},
			},
		},
	}
}

// BookChunk 书籍分块数据结构
type BookChunk struct {
	ID          string    `json:"id"`
	Vector      []float32 `json:"vector"`
	Source      string    `json:"source"`
	TextContent string    `json:"text_content"`
}
