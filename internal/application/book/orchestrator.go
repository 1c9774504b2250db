package book

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"book-creator-api/internal/domain/entity"
	"book-creator-api/internal/domain/repository"
	apperrors "book-creator-api/pkg/errors"
	"book-creator-api/pkg/logger"
)

const defaultMaxConcurrent = 4

// CreateResult 编排调用的同步返回
type CreateResult struct {
	BookID       string
	ChapterCount int
}

// Orchestrator 书籍生成编排器：落库摘要、注册任务、后台扇出生成章节
type Orchestrator struct {
	bookRepo  repository.BookRepository
	generator *ChapterGenerator
	tracker   *Tracker

	maxConcurrent int
}

// NewOrchestrator 创建编排器
func NewOrchestrator(bookRepo repository.BookRepository, generator *ChapterGenerator, tracker *Tracker, maxConcurrent int) *Orchestrator {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	return &Orchestrator{
		bookRepo:      bookRepo,
		generator:     generator,
		tracker:       tracker,
		maxConcurrent: maxConcurrent,
	}
}

// CreateBook 校验书籍规格、持久化摘要并启动后台章节生成。
// 同步返回后，生成在独立的后台上下文中继续，不受请求取消影响。
func (o *Orchestrator) CreateBook(ctx context.Context, spec *entity.BookSpecification) (*CreateResult, error) {
	if err := validateSpec(spec); err != nil {
		return nil, err
	}

	slugs := make([]string, 0, len(spec.Chapters))
	for _, ch := range spec.Chapters {
		slugs = append(slugs, Slugify(ch.Title))
	}

	book := entity.NewBook(spec, slugs)
	if err := o.bookRepo.Create(ctx, book); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to save book")
	}

	tasks := make([]ChapterTask, 0, len(spec.Chapters))
	for i, ch := range spec.Chapters {
		tasks = append(tasks, ChapterTask{
			Title:    ch.Title,
			Filename: slugs[i] + ".md",
			Position: i + 1,
		})
	}
	o.tracker.Register(book.ID, tasks)

	// 请求结束不应中断生成，使用与请求解耦的后台上下文
	bgCtx := logger.WithContext(context.WithoutCancel(ctx), logger.BookIDKey, book.ID)
	go o.generateAll(bgCtx, book, spec.Chapters)

	logger.Info(ctx, "book generation started", "book_id", book.ID, "chapters", len(spec.Chapters))
	return &CreateResult{
		BookID:       book.ID,
		ChapterCount: len(spec.Chapters),
	}, nil
}

// GetStatus 获取一本书的章节任务状态。
// 任务状态仅保存在进程内；进程重启后只能查到 DB 中的书籍摘要。
func (o *Orchestrator) GetStatus(ctx context.Context, bookID string) (*BookTasks, error) {
	snapshot := o.tracker.Snapshot(bookID)
	if snapshot != nil {
		return snapshot, nil
	}

	book, err := o.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to query book")
	}
	if book == nil {
		return nil, apperrors.ErrBookNotFound
	}
	// 书存在但任务已不在内存中（进程重启过），按全部结束处理
	tasks := make([]ChapterTask, 0, len(book.ChapterSlugs))
	for i, slug := range book.ChapterSlugs {
		tasks = append(tasks, ChapterTask{
			Filename: slug + ".md",
			Position: i + 1,
			Status:   TaskCompleted,
		})
	}
	return &BookTasks{BookID: bookID, Tasks: tasks}, nil
}

// ListBooks 列出全部书籍摘要
func (o *Orchestrator) ListBooks(ctx context.Context) ([]*entity.Book, error) {
	books, err := o.bookRepo.List(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list books")
	}
	return books, nil
}

// generateAll 有界并发地生成全部章节
func (o *Orchestrator) generateAll(ctx context.Context, book *entity.Book, chapters []entity.ChapterOutline) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxConcurrent)

	for i, ch := range chapters {
		position := i + 1
		chapter := ch
		g.Go(func() error {
			o.tracker.MarkRunning(book.ID, position)

			result, err := o.generator.Generate(gctx, &ChapterInput{
				BookTitle:      book.Title,
				Topic:          book.Topic,
				TargetAudience: book.TargetAudience,
				Chapter:        chapter,
				Position:       position,
			})
			if err != nil {
				o.tracker.MarkFailed(book.ID, position, err.Error())
				// 单章失败不取消其余章节
				return nil
			}

			o.tracker.MarkCompleted(book.ID, position, result.Indexed)
			return nil
		})
	}

	_ = g.Wait()
	logger.Info(ctx, "book generation finished", "book_id", book.ID)
}

// validateSpec 校验书籍规格；章节标题的 slug 必须非空且互不重复，
// 否则并行生成会出现文件互相覆盖。
func validateSpec(spec *entity.BookSpecification) error {
	if spec == nil {
		return apperrors.New(apperrors.CodeInvalidParam, "book specification is required")
	}
	if strings.TrimSpace(spec.Title) == "" {
		return apperrors.New(apperrors.CodeInvalidParam, "title is required")
	}
	if strings.TrimSpace(spec.Topic) == "" {
		return apperrors.New(apperrors.CodeInvalidParam, "topic is required")
	}
	if strings.TrimSpace(spec.TargetAudience) == "" {
		return apperrors.New(apperrors.CodeInvalidParam, "target_audience is required")
	}
	if len(spec.Chapters) == 0 {
		return apperrors.New(apperrors.CodeInvalidParam, "at least one chapter is required")
	}

	seen := make(map[string]string, len(spec.Chapters))
	for i, ch := range spec.Chapters {
		if strings.TrimSpace(ch.Title) == "" {
			return apperrors.New(apperrors.CodeInvalidParam, fmt.Sprintf("chapter %d: title is required", i+1))
		}
		slug := Slugify(ch.Title)
		if slug == "" {
			return apperrors.New(apperrors.CodeInvalidParam,
				fmt.Sprintf("chapter %d: title %q produces an empty filename", i+1, ch.Title))
		}
		if prev, ok := seen[slug]; ok {
			return apperrors.New(apperrors.CodeSlugConflict,
				fmt.Sprintf("chapter titles %q and %q map to the same file %s.md", prev, ch.Title, slug))
		}
		seen[slug] = ch.Title
	}
	return nil
}
