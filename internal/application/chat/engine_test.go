package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"book-creator-api/internal/application/retrieval"
	"book-creator-api/internal/domain/entity"
	"book-creator-api/internal/infrastructure/persistence/milvus"
	apperrors "book-creator-api/pkg/errors"
)

type fakeChatModel struct {
	mu       sync.Mutex
	requests [][]*schema.Message
	reply    string
	err      error
}

func (f *fakeChatModel) Generate(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, msgs)
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.reply, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, msgs []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

type fakeModelProvider struct {
	model model.BaseChatModel
	err   error
}

func (f *fakeModelProvider) Default(ctx context.Context) (model.BaseChatModel, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.model, nil
}

type fakeChatRepo struct {
	mu       sync.Mutex
	messages []*entity.ChatMessage
	err      error
}

func (f *fakeChatRepo) Create(ctx context.Context, msg *entity.ChatMessage) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return nil
}

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{0.1, 0.2}
	}
	return out, nil
}

type fakeVectorRepo struct {
	results []*milvus.SearchResult
	err     error
}

func (f *fakeVectorRepo) EnsureBookChunksCollection(ctx context.Context) error { return nil }
func (f *fakeVectorRepo) DeleteChunksBySource(ctx context.Context, source string) error {
	return nil
}
func (f *fakeVectorRepo) InsertChunks(ctx context.Context, chunks []*milvus.BookChunk) error {
	return nil
}
func (f *fakeVectorRepo) SearchChunks(ctx context.Context, queryVector []float32, topK int) ([]*milvus.SearchResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if topK < len(f.results) {
		return f.results[:topK], nil
	}
	return f.results, nil
}

func userInput(query string) *ChatInput {
	return &ChatInput{
		Messages: []Message{
			{Role: "user", Content: query},
		},
	}
}

func TestChat(t *testing.T) {
	ctx := context.Background()

	t.Run("unconfigured backend fails without model call", func(t *testing.T) {
		chatModel := &fakeChatModel{reply: "hi"}
		eng := NewEngine(&fakeModelProvider{err: errors.New("provider openai not found in LLM config")}, nil, nil)

		_, err := eng.Chat(ctx, userInput("hello"))
		appErr := apperrors.AsAppError(err)
		if appErr.Code != apperrors.CodeChatNotConfigured {
			t.Errorf("error code = %s, want %s", appErr.Code, apperrors.CodeChatNotConfigured)
		}
		if len(chatModel.requests) != 0 {
			t.Errorf("model called %d times, want 0", len(chatModel.requests))
		}
	})

	t.Run("sends only system prompt and last user query", func(t *testing.T) {
		chatModel := &fakeChatModel{reply: "answer"}
		eng := NewEngine(&fakeModelProvider{model: chatModel}, nil, nil)

		in := &ChatInput{
			Messages: []Message{
				{Role: "user", Content: "older question"},
				{Role: "assistant", Content: "older answer"},
				{Role: "user", Content: "what is chapter two about?"},
			},
		}
		out, err := eng.Chat(ctx, in)
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if out.Reply != "answer" {
			t.Errorf("reply = %q, want answer", out.Reply)
		}

		if len(chatModel.requests) != 1 {
			t.Fatalf("model called %d times, want 1", len(chatModel.requests))
		}
		msgs := chatModel.requests[0]
		if len(msgs) != 2 {
			t.Fatalf("sent %d messages, want 2", len(msgs))
		}
		if msgs[0].Role != schema.System {
			t.Errorf("first message role = %s, want system", msgs[0].Role)
		}
		if msgs[1].Role != schema.User || msgs[1].Content != "what is chapter two about?" {
			t.Errorf("second message = %s %q, want last user query", msgs[1].Role, msgs[1].Content)
		}
		if strings.Contains(msgs[0].Content, "older question") {
			t.Error("system prompt leaked history")
		}
	})

	t.Run("selected text comes before retrieved context", func(t *testing.T) {
		chatModel := &fakeChatModel{reply: "answer"}
		retriever := retrieval.NewEngine(fakeEmbedder{}, &fakeVectorRepo{
			results: []*milvus.SearchResult{
				{TextContent: "retrieved paragraph one", Source: "a.md"},
				{TextContent: "retrieved paragraph two", Source: "b.md"},
			},
		})
		eng := NewEngine(&fakeModelProvider{model: chatModel}, retriever, nil)

		in := userInput("explain this")
		in.ContextText = "the user highlighted this sentence"
		if _, err := eng.Chat(ctx, in); err != nil {
			t.Fatalf("Chat() error = %v", err)
		}

		system := chatModel.requests[0][0].Content
		selIdx := strings.Index(system, "User Selected Text:\nthe user highlighted this sentence")
		retIdx := strings.Index(system, "Retrieved Context:\nretrieved paragraph one")
		if selIdx < 0 || retIdx < 0 {
			t.Fatalf("system prompt missing context sections:\n%s", system)
		}
		if selIdx > retIdx {
			t.Error("selected text should precede retrieved context")
		}
		if !strings.Contains(system, "Use the following context to answer:") {
			t.Errorf("system prompt missing context preamble:\n%s", system)
		}
		if !strings.Contains(system, "\n---\n") {
			t.Errorf("context sections not separated:\n%s", system)
		}
	})

	t.Run("no context keeps base system prompt", func(t *testing.T) {
		chatModel := &fakeChatModel{reply: "answer"}
		eng := NewEngine(&fakeModelProvider{model: chatModel}, nil, nil)

		if _, err := eng.Chat(ctx, userInput("hello")); err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		system := chatModel.requests[0][0].Content
		if system != systemPromptBase {
			t.Errorf("system prompt = %q, want base prompt only", system)
		}
	})

	t.Run("retrieval failure degrades to no retrieved context", func(t *testing.T) {
		chatModel := &fakeChatModel{reply: "answer"}
		retriever := retrieval.NewEngine(fakeEmbedder{}, &fakeVectorRepo{err: errors.New("milvus down")})
		eng := NewEngine(&fakeModelProvider{model: chatModel}, retriever, nil)

		if _, err := eng.Chat(ctx, userInput("hello")); err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if strings.Contains(chatModel.requests[0][0].Content, "Retrieved Context:") {
			t.Error("system prompt should not contain retrieved context after failure")
		}
	})

	t.Run("persists user then assistant messages", func(t *testing.T) {
		chatModel := &fakeChatModel{reply: "the answer"}
		repo := &fakeChatRepo{}
		eng := NewEngine(&fakeModelProvider{model: chatModel}, nil, repo)

		if _, err := eng.Chat(ctx, userInput("a question")); err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if len(repo.messages) != 2 {
			t.Fatalf("persisted %d messages, want 2", len(repo.messages))
		}
		if repo.messages[0].Role != entity.RoleUser || repo.messages[0].Content != "a question" {
			t.Errorf("first message = %+v, want user question", repo.messages[0])
		}
		if repo.messages[1].Role != entity.RoleAssistant || repo.messages[1].Content != "the answer" {
			t.Errorf("second message = %+v, want assistant reply", repo.messages[1])
		}
		if repo.messages[0].Timestamp == "" {
			t.Error("message timestamp is empty")
		}
	})

	t.Run("persistence failure does not break the chat", func(t *testing.T) {
		chatModel := &fakeChatModel{reply: "answer"}
		repo := &fakeChatRepo{err: errors.New("db down")}
		eng := NewEngine(&fakeModelProvider{model: chatModel}, nil, repo)

		out, err := eng.Chat(ctx, userInput("hello"))
		if err != nil {
			t.Fatalf("Chat() error = %v", err)
		}
		if out.Reply != "answer" {
			t.Errorf("reply = %q, want answer", out.Reply)
		}
	})

	t.Run("model failure surfaces as provider error", func(t *testing.T) {
		chatModel := &fakeChatModel{err: errors.New("rate limited")}
		eng := NewEngine(&fakeModelProvider{model: chatModel}, nil, nil)

		_, err := eng.Chat(ctx, userInput("hello"))
		appErr := apperrors.AsAppError(err)
		if appErr.Code != apperrors.CodeLLMProviderError {
			t.Errorf("error code = %s, want %s", appErr.Code, apperrors.CodeLLMProviderError)
		}
	})

	t.Run("input validation", func(t *testing.T) {
		eng := NewEngine(&fakeModelProvider{model: &fakeChatModel{reply: "x"}}, nil, nil)

		if _, err := eng.Chat(ctx, nil); err == nil {
			t.Error("Chat(nil) expected error")
		}
		if _, err := eng.Chat(ctx, &ChatInput{}); err == nil {
			t.Error("Chat() with no messages expected error")
		}
		if _, err := eng.Chat(ctx, userInput("   ")); err == nil {
			t.Error("Chat() with blank query expected error")
		}
	})
}
