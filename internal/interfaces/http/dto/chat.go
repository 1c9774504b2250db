package dto

import (
	"book-creator-api/internal/application/chat"
)

// ChatMessageRequest 对话消息输入
type ChatMessageRequest struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// ChatRequest 问答请求
type ChatRequest struct {
	Messages []ChatMessageRequest `json:"messages" binding:"required,min=1,dive"`
	// ContextText 用户在页面上选中的文本，可选
	ContextText string `json:"context_text"`
}

// ToInput 转换为应用层输入
func (r *ChatRequest) ToInput() *chat.ChatInput {
	msgs := make([]chat.Message, 0, len(r.Messages))
	for _, m := range r.Messages {
		msgs = append(msgs, chat.Message{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	return &chat.ChatInput{
		Messages:    msgs,
		ContextText: r.ContextText,
	}
}

// ChatResponse 问答响应
type ChatResponse struct {
	Reply string `json:"reply"`
}
