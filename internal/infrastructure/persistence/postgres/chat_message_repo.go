// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"fmt"

	"book-creator-api/internal/domain/entity"
)

type ChatMessageRepository struct {
	client *Client
}

func NewChatMessageRepository(client *Client) *ChatMessageRepository {
	return &ChatMessageRepository{client: client}
}

func (r *ChatMessageRepository) Create(ctx context.Context, msg *entity.ChatMessage) error {
	ctx, span := tracer.Start(ctx, "postgres.ChatMessageRepository.Create")
	defer span.End()

	if err := r.client.db.WithContext(ctx).Create(msg).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create chat message: %w", err)
	}
	return nil
}
