// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"book-creator-api/internal/domain/entity"
)

type BookRepository struct {
	client *Client
}

func NewBookRepository(client *Client) *BookRepository {
	return &BookRepository{client: client}
}

func (r *BookRepository) Create(ctx context.Context, book *entity.Book) error {
	ctx, span := tracer.Start(ctx, "postgres.BookRepository.Create")
	defer span.End()

	if err := r.client.db.WithContext(ctx).Create(book).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create book: %w", err)
	}
	return nil
}

func (r *BookRepository) GetByID(ctx context.Context, id string) (*entity.Book, error) {
	ctx, span := tracer.Start(ctx, "postgres.BookRepository.GetByID")
	defer span.End()

	var book entity.Book
	err := r.client.db.WithContext(ctx).First(&book, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return &book, nil
}

func (r *BookRepository) List(ctx context.Context) ([]*entity.Book, error) {
	ctx, span := tracer.Start(ctx, "postgres.BookRepository.List")
	defer span.End()

	var books []*entity.Book
	if err := r.client.db.WithContext(ctx).Order("created_at ASC").Find(&books).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return books, nil
}
