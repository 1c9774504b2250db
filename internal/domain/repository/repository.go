// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"book-creator-api/internal/domain/entity"
)

// BookRepository 书籍仓储接口
type BookRepository interface {
	Create(ctx context.Context, book *entity.Book) error
	GetByID(ctx context.Context, id string) (*entity.Book, error)
	List(ctx context.Context) ([]*entity.Book, error)
}

// ChatMessageRepository 对话消息仓储接口
type ChatMessageRepository interface {
	Create(ctx context.Context, msg *entity.ChatMessage) error
}
