// Package entity 定义领域实体
package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ChapterOutline 单个章节的大纲输入
type ChapterOutline struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// BookSpecification 一次编排调用的完整输入（不整体落库）
type BookSpecification struct {
	Title          string           `json:"title"`
	Topic          string           `json:"topic"`
	TargetAudience string           `json:"target_audience"`
	Chapters       []ChapterOutline `json:"chapters"`
}

// Book 书籍实体（仅摘要信息落库，创建后不再变更）
type Book struct {
	ID             string         `json:"id" gorm:"type:uuid;primaryKey"`
	Title          string         `json:"title" gorm:"type:varchar(255);not null"`
	Topic          string         `json:"topic" gorm:"type:varchar(255);not null"`
	TargetAudience string         `json:"target_audience" gorm:"type:varchar(255);not null"`
	ChapterSlugs   pq.StringArray `json:"chapter_slugs,omitempty" gorm:"type:text[]"`
	CreatedAt      time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (Book) TableName() string {
	return "books"
}

// NewBook 从书籍规格创建摘要记录
func NewBook(spec *BookSpecification, chapterSlugs []string) *Book {
	return &Book{
		ID:             uuid.NewString(),
		Title:          spec.Title,
		Topic:          spec.Topic,
		TargetAudience: spec.TargetAudience,
		ChapterSlugs:   pq.StringArray(chapterSlugs),
		CreatedAt:      time.Now(),
	}
}
