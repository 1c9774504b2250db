package dto

import (
	"book-creator-api/internal/application/book"
	"book-creator-api/internal/domain/entity"
)

// ChapterOutlineRequest 章节大纲输入
type ChapterOutlineRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

// CreateBookRequest 创建书籍请求
type CreateBookRequest struct {
	Title          string                  `json:"title" binding:"required"`
	Topic          string                  `json:"topic" binding:"required"`
	TargetAudience string                  `json:"target_audience" binding:"required"`
	Chapters       []ChapterOutlineRequest `json:"chapters" binding:"required,min=1,dive"`
}

// ToEntity 转换为领域对象
func (r *CreateBookRequest) ToEntity() *entity.BookSpecification {
	chapters := make([]entity.ChapterOutline, 0, len(r.Chapters))
	for _, ch := range r.Chapters {
		chapters = append(chapters, entity.ChapterOutline{
			Title:       ch.Title,
			Description: ch.Description,
		})
	}
	return &entity.BookSpecification{
		Title:          r.Title,
		Topic:          r.Topic,
		TargetAudience: r.TargetAudience,
		Chapters:       chapters,
	}
}

// CreateBookResponse 创建书籍响应（生成在后台继续）
type CreateBookResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	BookID  string `json:"book_id"`
}

// BookSummary 书籍摘要
type BookSummary struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Topic    string `json:"topic"`
	Audience string `json:"audience"`
	Link     string `json:"link"`
}

// NewBookSummary 从实体构建摘要；链接指向第一章的文档页
func NewBookSummary(b *entity.Book) BookSummary {
	link := "/docs/intro"
	if len(b.ChapterSlugs) > 0 && b.ChapterSlugs[0] != "" {
		link = "/docs/" + b.ChapterSlugs[0]
	}
	return BookSummary{
		ID:       b.ID,
		Title:    b.Title,
		Topic:    b.Topic,
		Audience: b.TargetAudience,
		Link:     link,
	}
}

// ChapterTaskStatus 单个章节任务状态
type ChapterTaskStatus struct {
	Title    string `json:"title,omitempty"`
	Filename string `json:"filename"`
	Position int    `json:"position"`
	Status   string `json:"status"`
	Indexed  bool   `json:"indexed"`
	Error    string `json:"error,omitempty"`
}

// BookStatusResponse 书籍生成状态响应
type BookStatusResponse struct {
	BookID string              `json:"book_id"`
	Done   bool                `json:"done"`
	Tasks  []ChapterTaskStatus `json:"tasks"`
}

// NewBookStatusResponse 从任务快照构建状态响应
func NewBookStatusResponse(tasks *book.BookTasks) BookStatusResponse {
	resp := BookStatusResponse{
		BookID: tasks.BookID,
		Done:   tasks.Done(),
		Tasks:  make([]ChapterTaskStatus, 0, len(tasks.Tasks)),
	}
	for _, t := range tasks.Tasks {
		resp.Tasks = append(resp.Tasks, ChapterTaskStatus{
			Title:    t.Title,
			Filename: t.Filename,
			Position: t.Position,
			Status:   string(t.Status),
			Indexed:  t.Indexed,
			Error:    t.Error,
		})
	}
	return resp
}
