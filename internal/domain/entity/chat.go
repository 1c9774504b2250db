// Package entity 定义领域实体
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Role 对话角色
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage 对话消息实体。
// 每次问答落库两条（user 在前，assistant 在后）；没有会话 ID 关联。
type ChatMessage struct {
	ID        string    `json:"id" gorm:"type:uuid;primaryKey"`
	Role      Role      `json:"role" gorm:"type:varchar(16);not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Timestamp string    `json:"timestamp" gorm:"type:varchar(64);not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// NewChatMessage 创建对话消息
func NewChatMessage(role Role, content string) *ChatMessage {
	now := time.Now()
	return &ChatMessage{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: now.UTC().Format(time.RFC3339),
		CreatedAt: now,
	}
}
