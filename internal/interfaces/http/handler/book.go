// Package handler 提供 HTTP 请求处理器
package handler

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"book-creator-api/internal/application/book"
	"book-creator-api/internal/interfaces/http/dto"
)

// BookHandler 书籍处理器
type BookHandler struct {
	orchestrator *book.Orchestrator
}

// NewBookHandler 创建书籍处理器
func NewBookHandler(orchestrator *book.Orchestrator) *BookHandler {
	return &BookHandler{orchestrator: orchestrator}
}

// Create 创建书籍并启动后台章节生成
// @Summary 创建书籍
// @Description 接收书籍规格，落库摘要并在后台并发生成全部章节
// @Tags Book
// @Accept json
// @Produce json
// @Param body body dto.CreateBookRequest true "书籍规格"
// @Success 202 {object} dto.Response[dto.CreateBookResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/books [post]
func (h *BookHandler) Create(c *gin.Context) {
	var req dto.CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	result, err := h.orchestrator.CreateBook(c.Request.Context(), req.ToEntity())
	if err != nil {
		respondError(c, err)
		return
	}

	dto.Accepted(c, dto.CreateBookResponse{
		Status:  "processing",
		Message: fmt.Sprintf("Started generation of %d chapters.", result.ChapterCount),
		BookID:  result.BookID,
	})
}

// List 列出全部书籍
// @Summary 书籍列表
// @Description 返回全部书籍摘要及其文档入口链接
// @Tags Book
// @Produce json
// @Success 200 {object} dto.Response[[]dto.BookSummary]
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/books [get]
func (h *BookHandler) List(c *gin.Context) {
	books, err := h.orchestrator.ListBooks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	summaries := make([]dto.BookSummary, 0, len(books))
	for _, b := range books {
		summaries = append(summaries, dto.NewBookSummary(b))
	}
	dto.Success(c, summaries)
}

// Status 查询书籍生成状态
// @Summary 书籍生成状态
// @Description 返回一本书各章节任务的进度快照
// @Tags Book
// @Produce json
// @Param id path string true "书籍 ID"
// @Success 200 {object} dto.Response[dto.BookStatusResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/books/{id}/status [get]
func (h *BookHandler) Status(c *gin.Context) {
	bookID := strings.TrimSpace(c.Param("id"))
	if bookID == "" {
		dto.BadRequest(c, "book id is required")
		return
	}

	tasks, err := h.orchestrator.GetStatus(c.Request.Context(), bookID)
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, dto.NewBookStatusResponse(tasks))
}
