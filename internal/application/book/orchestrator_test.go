package book

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"book-creator-api/internal/domain/entity"
	apperrors "book-creator-api/pkg/errors"
)

type fakeBookRepo struct {
	mu    sync.Mutex
	books []*entity.Book
	err   error
}

func (f *fakeBookRepo) Create(ctx context.Context, book *entity.Book) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.books = append(f.books, book)
	return nil
}

func (f *fakeBookRepo) GetByID(ctx context.Context, id string) (*entity.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.books {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, nil
}

func (f *fakeBookRepo) List(ctx context.Context) ([]*entity.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.books, nil
}

func validBookSpec() *entity.BookSpecification {
	return &entity.BookSpecification{
		Title:          "Practical Go",
		Topic:          "Go Programming",
		TargetAudience: "Backend Engineers",
		Chapters: []entity.ChapterOutline{
			{Title: "Getting Started", Description: "Setup"},
			{Title: "Concurrency", Description: "Goroutines and channels"},
			{Title: "Testing", Description: "Unit tests"},
		},
	}
}

func newTestOrchestrator(t *testing.T, completer Completer, repo *fakeBookRepo) (*Orchestrator, *Tracker) {
	t.Helper()
	gen := NewChapterGenerator(completer, nil, t.TempDir())
	tracker := NewTracker()
	return NewOrchestrator(repo, gen, tracker, 2), tracker
}

// waitForDone 轮询任务快照直到全部结束
func waitForDone(t *testing.T, tracker *Tracker, bookID string) *BookTasks {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if snap := tracker.Snapshot(bookID); snap != nil && snap.Done() {
			return snap
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timed out waiting for chapter tasks to finish")
	return nil
}

func TestCreateBook(t *testing.T) {
	ctx := context.Background()

	t.Run("persists book and runs all chapter tasks", func(t *testing.T) {
		repo := &fakeBookRepo{}
		orch, tracker := newTestOrchestrator(t, &fakeCompleter{reply: "chapter body"}, repo)

		result, err := orch.CreateBook(ctx, validBookSpec())
		if err != nil {
			t.Fatalf("CreateBook() error = %v", err)
		}
		if result.ChapterCount != 3 {
			t.Errorf("ChapterCount = %d, want 3", result.ChapterCount)
		}
		if result.BookID == "" {
			t.Fatal("BookID is empty")
		}
		if len(repo.books) != 1 {
			t.Fatalf("persisted %d books, want 1", len(repo.books))
		}
		if got := len(repo.books[0].ChapterSlugs); got != 3 {
			t.Errorf("persisted %d slugs, want 3", got)
		}

		snap := waitForDone(t, tracker, result.BookID)
		if len(snap.Tasks) != 3 {
			t.Fatalf("got %d tasks, want 3", len(snap.Tasks))
		}
		positions := make(map[int]bool)
		for _, task := range snap.Tasks {
			if task.Status != TaskCompleted {
				t.Errorf("task %q status = %s, want completed", task.Title, task.Status)
			}
			positions[task.Position] = true
		}
		for p := 1; p <= 3; p++ {
			if !positions[p] {
				t.Errorf("missing task position %d", p)
			}
		}
	})

	t.Run("failed chapter does not block the others", func(t *testing.T) {
		repo := &fakeBookRepo{}
		orch, tracker := newTestOrchestrator(t, &fakeCompleter{err: errors.New("ollama down")}, repo)

		result, err := orch.CreateBook(ctx, validBookSpec())
		if err != nil {
			t.Fatalf("CreateBook() error = %v", err)
		}

		snap := waitForDone(t, tracker, result.BookID)
		for _, task := range snap.Tasks {
			if task.Status != TaskFailed {
				t.Errorf("task %q status = %s, want failed", task.Title, task.Status)
			}
			if task.Error == "" {
				t.Errorf("task %q has no error message", task.Title)
			}
		}
	})

	t.Run("duplicate chapter slugs are rejected", func(t *testing.T) {
		repo := &fakeBookRepo{}
		orch, _ := newTestOrchestrator(t, &fakeCompleter{reply: "body"}, repo)

		spec := validBookSpec()
		spec.Chapters = []entity.ChapterOutline{
			{Title: "Getting Started"},
			{Title: "getting started!"},
		}
		_, err := orch.CreateBook(ctx, spec)
		if err == nil {
			t.Fatal("CreateBook() expected error for duplicate slugs")
		}
		appErr := apperrors.AsAppError(err)
		if appErr.Code != apperrors.CodeSlugConflict {
			t.Errorf("error code = %s, want %s", appErr.Code, apperrors.CodeSlugConflict)
		}
		if len(repo.books) != 0 {
			t.Errorf("persisted %d books after validation failure, want 0", len(repo.books))
		}
	})

	t.Run("validation failures", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(*entity.BookSpecification)
		}{
			{name: "missing title", mutate: func(s *entity.BookSpecification) { s.Title = " " }},
			{name: "missing topic", mutate: func(s *entity.BookSpecification) { s.Topic = "" }},
			{name: "missing audience", mutate: func(s *entity.BookSpecification) { s.TargetAudience = "" }},
			{name: "no chapters", mutate: func(s *entity.BookSpecification) { s.Chapters = nil }},
			{name: "empty chapter title", mutate: func(s *entity.BookSpecification) { s.Chapters[0].Title = "" }},
			{name: "punctuation-only chapter title", mutate: func(s *entity.BookSpecification) { s.Chapters[0].Title = "???" }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				repo := &fakeBookRepo{}
				orch, _ := newTestOrchestrator(t, &fakeCompleter{reply: "body"}, repo)
				spec := validBookSpec()
				tt.mutate(spec)
				if _, err := orch.CreateBook(ctx, spec); err == nil {
					t.Error("CreateBook() expected validation error")
				}
			})
		}
	})

	t.Run("database failure surfaces as error", func(t *testing.T) {
		repo := &fakeBookRepo{err: errors.New("connection refused")}
		orch, _ := newTestOrchestrator(t, &fakeCompleter{reply: "body"}, repo)
		if _, err := orch.CreateBook(ctx, validBookSpec()); err == nil {
			t.Error("CreateBook() expected error")
		}
	})

	t.Run("generation survives request context cancellation", func(t *testing.T) {
		repo := &fakeBookRepo{}
		orch, tracker := newTestOrchestrator(t, &fakeCompleter{reply: "body"}, repo)

		reqCtx, cancel := context.WithCancel(ctx)
		result, err := orch.CreateBook(reqCtx, validBookSpec())
		if err != nil {
			t.Fatalf("CreateBook() error = %v", err)
		}
		cancel()

		snap := waitForDone(t, tracker, result.BookID)
		for _, task := range snap.Tasks {
			if task.Status != TaskCompleted {
				t.Errorf("task %q status = %s after request cancel, want completed", task.Title, task.Status)
			}
		}
	})
}

func TestGetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown book returns not found", func(t *testing.T) {
		orch, _ := newTestOrchestrator(t, &fakeCompleter{reply: "body"}, &fakeBookRepo{})
		_, err := orch.GetStatus(ctx, "missing-id")
		appErr := apperrors.AsAppError(err)
		if appErr.Code != apperrors.CodeBookNotFound {
			t.Errorf("error code = %s, want %s", appErr.Code, apperrors.CodeBookNotFound)
		}
	})

	t.Run("persisted book without tasks reports completed", func(t *testing.T) {
		repo := &fakeBookRepo{}
		book := entity.NewBook(validBookSpec(), []string{"getting-started", "concurrency"})
		if err := repo.Create(ctx, book); err != nil {
			t.Fatal(err)
		}
		orch, _ := newTestOrchestrator(t, &fakeCompleter{reply: "body"}, repo)

		snap, err := orch.GetStatus(ctx, book.ID)
		if err != nil {
			t.Fatalf("GetStatus() error = %v", err)
		}
		if !snap.Done() || len(snap.Tasks) != 2 {
			t.Errorf("snapshot = %+v, want 2 completed tasks", snap)
		}
	})
}
