// Package book 实现书籍章节的生成编排
package book

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"book-creator-api/internal/application/retrieval"
	"book-creator-api/internal/domain/entity"
	"book-creator-api/pkg/logger"
	"book-creator-api/pkg/metrics"
)

// Completer 文本补全端口（由 llm.OllamaClient 实现）
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ChapterInput 单章生成输入
type ChapterInput struct {
	BookTitle      string
	Topic          string
	TargetAudience string
	Chapter        entity.ChapterOutline
	// Position 章节序号（从 1 开始），写入 front-matter 的 sidebar_position
	Position int
}

// ChapterResult 单章生成结果
type ChapterResult struct {
	Filename string
	// Indexed 内容是否成功写入向量索引
	Indexed bool
}

// ChapterGenerator 生成单个章节：调用 LLM、落盘 Markdown、写向量索引
type ChapterGenerator struct {
	completer Completer
	indexer   *retrieval.Indexer
	docsPath  string
}

// NewChapterGenerator 创建章节生成器
func NewChapterGenerator(completer Completer, indexer *retrieval.Indexer, docsPath string) *ChapterGenerator {
	return &ChapterGenerator{
		completer: completer,
		indexer:   indexer,
		docsPath:  docsPath,
	}
}

// Generate 生成一个章节。
// LLM 调用失败时仍写出占位文件（正文为错误说明），并返回该错误；
// 索引失败只记录日志，不影响章节文件本身。
func (g *ChapterGenerator) Generate(ctx context.Context, in *ChapterInput) (*ChapterResult, error) {
	if g == nil || g.completer == nil {
		return nil, fmt.Errorf("completer not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	metrics.ChaptersInFlight.Inc()
	defer metrics.ChaptersInFlight.Dec()
	start := time.Now()

	prompt := buildChapterPrompt(in)

	content, genErr := g.completer.Complete(ctx, prompt)
	if genErr != nil {
		logger.Error(ctx, "chapter generation failed", genErr, "chapter", in.Chapter.Title)
		content = "Error generating content: " + genErr.Error()
	}

	fullContent := formatChapterDocument(in.Chapter.Title, in.Position, content)
	filename := SlugFilename(in.Chapter.Title)

	if err := os.MkdirAll(g.docsPath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create docs dir: %w", err)
	}
	filePath := filepath.Join(g.docsPath, filename)
	if err := os.WriteFile(filePath, []byte(fullContent), 0o644); err != nil {
		return nil, fmt.Errorf("failed to write chapter file: %w", err)
	}

	result := &ChapterResult{Filename: filename}

	// 正文（不含 front-matter）进索引；失败不影响章节产出
	if g.indexer.Enabled() {
		if err := g.indexer.IndexDocument(ctx, filename, content); err != nil {
			logger.Warn(ctx, "chapter indexing failed", "chapter", in.Chapter.Title, "error", err.Error())
		} else {
			result.Indexed = true
		}
	}

	status := "ok"
	if genErr != nil {
		status = "error"
	}
	metrics.ChapterGenerationDuration.Observe(time.Since(start).Seconds())
	metrics.ChapterGenerationTotal.WithLabelValues(status).Inc()

	if genErr != nil {
		return result, genErr
	}
	logger.Info(ctx, "chapter generated", "chapter", in.Chapter.Title, "file", filename, "indexed", result.Indexed)
	return result, nil
}

func buildChapterPrompt(in *ChapterInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a chapter titled '%s' for a book about '%s' titled '%s'.\n", in.Chapter.Title, in.Topic, in.BookTitle)
	fmt.Fprintf(&b, "Target Audience: %s\n", in.TargetAudience)
	fmt.Fprintf(&b, "Chapter Description: %s\n", in.Chapter.Description)
	b.WriteString("\n")
	b.WriteString("Format the output as Markdown.\n")
	b.WriteString("Use headers (##) for sections.\n")
	b.WriteString("Write typically 1000-2000 words.\n")
	b.WriteString("Do not include the book title as H1, just start with the chapter content.\n")
	return b.String()
}

// formatChapterDocument 生成带 Docusaurus front-matter 的章节文档
func formatChapterDocument(title string, position int, body string) string {
	return fmt.Sprintf("---\nsidebar_position: %d\n---\n\n# %s\n\n%s\n", position, title, body)
}
