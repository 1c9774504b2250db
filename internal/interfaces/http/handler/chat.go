package handler

import (
	"github.com/gin-gonic/gin"

	"book-creator-api/internal/application/chat"
	"book-creator-api/internal/interfaces/http/dto"
)

// ChatHandler 问答处理器
type ChatHandler struct {
	engine *chat.Engine
}

// NewChatHandler 创建问答处理器
func NewChatHandler(engine *chat.Engine) *ChatHandler {
	return &ChatHandler{engine: engine}
}

// Chat 基于书籍内容的检索增强问答
// @Summary 书籍问答
// @Description 以最后一条用户消息为问题，结合选中文本与检索到的书籍片段回答
// @Tags Chat
// @Accept json
// @Produce json
// @Param body body dto.ChatRequest true "问答请求"
// @Success 200 {object} dto.Response[dto.ChatResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /v1/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	out, err := h.engine.Chat(c.Request.Context(), req.ToInput())
	if err != nil {
		respondError(c, err)
		return
	}
	dto.Success(c, dto.ChatResponse{Reply: out.Reply})
}
