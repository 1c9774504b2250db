// Package chat 实现基于检索增强的书籍问答
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"book-creator-api/internal/application/retrieval"
	"book-creator-api/internal/domain/entity"
	"book-creator-api/internal/domain/repository"
	apperrors "book-creator-api/pkg/errors"
	"book-creator-api/pkg/logger"
)

const (
	systemPromptBase = "You are a helpful assistant answering questions about the current book."

	// retrievalTopK 每次问答检索的分块数
	retrievalTopK = 3
)

// Message 对话消息输入
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatInput 一次问答输入
type ChatInput struct {
	Messages []Message `json:"messages"`
	// ContextText 用户在页面上选中的文本，作为最高优先级上下文
	ContextText string `json:"context_text"`
}

// ChatOutput 一次问答输出
type ChatOutput struct {
	Reply string `json:"reply"`
}

// ModelProvider 对话模型提供者端口（由 llm.EinoFactory 实现）
type ModelProvider interface {
	Default(ctx context.Context) (model.BaseChatModel, error)
}

// Engine 问答引擎：组装上下文、调用托管对话模型、落库对话记录
type Engine struct {
	factory   ModelProvider
	retriever *retrieval.Engine
	chatRepo  repository.ChatMessageRepository
}

// NewEngine 创建问答引擎
func NewEngine(factory ModelProvider, retriever *retrieval.Engine, chatRepo repository.ChatMessageRepository) *Engine {
	return &Engine{
		factory:   factory,
		retriever: retriever,
		chatRepo:  chatRepo,
	}
}

// Chat 执行一次问答。
// 发送给模型的只有 system 提示词和最后一条用户消息，历史消息不参与；
// 选中文本排在检索结果之前；检索不可用时退化为无上下文问答。
func (e *Engine) Chat(ctx context.Context, in *ChatInput) (*ChatOutput, error) {
	if e == nil || e.factory == nil {
		return nil, apperrors.ErrChatNotConfigured
	}
	if in == nil || len(in.Messages) == 0 {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "messages is required")
	}

	userQuery := strings.TrimSpace(in.Messages[len(in.Messages)-1].Content)
	if userQuery == "" {
		return nil, apperrors.New(apperrors.CodeInvalidParam, "last message content is empty")
	}

	// 配置缺失在此直接失败，不发起任何网络调用
	chatModel, err := e.factory.Default(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeChatNotConfigured, "chat backend not configured")
	}

	var contextParts []string

	// 1) 用户选中文本优先
	if ctxText := strings.TrimSpace(in.ContextText); ctxText != "" {
		contextParts = append(contextParts, "User Selected Text:\n"+ctxText)
	}

	// 2) 向量检索（可降级）
	if e.retriever.Enabled() {
		out, err := e.retriever.Search(ctx, userQuery, retrievalTopK)
		if err != nil {
			logger.Warn(ctx, "retrieval failed, answering without retrieved context", "error", err.Error())
		} else {
			if out.DisabledReason != "" {
				logger.Warn(ctx, "retrieval degraded", "reason", out.DisabledReason)
			}
			for _, hit := range out.Hits {
				contextParts = append(contextParts, "Retrieved Context:\n"+hit.Text)
			}
		}
	}

	systemPrompt := systemPromptBase
	if len(contextParts) > 0 {
		systemPrompt += "\n\nUse the following context to answer:\n" + strings.Join(contextParts, "\n---\n")
	}

	// 对话记录落库是尽力而为，不阻断问答
	e.saveMessage(ctx, entity.RoleUser, userQuery)

	msgs := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userQuery),
	}

	outMsg, err := chatModel.Generate(ctx, msgs)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeLLMProviderError, "chat completion failed")
	}
	if outMsg == nil {
		return nil, apperrors.Wrap(fmt.Errorf("empty llm response"), apperrors.CodeLLMProviderError, "chat completion failed")
	}

	reply := outMsg.Content
	e.saveMessage(ctx, entity.RoleAssistant, reply)

	return &ChatOutput{Reply: reply}, nil
}

func (e *Engine) saveMessage(ctx context.Context, role entity.Role, content string) {
	if e.chatRepo == nil {
		return
	}
	if err := e.chatRepo.Create(ctx, entity.NewChatMessage(role, content)); err != nil {
		logger.Warn(ctx, "failed to save chat message", "role", string(role), "error", err.Error())
	}
}
