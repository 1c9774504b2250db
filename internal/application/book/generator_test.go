package book

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/embedding"

	"book-creator-api/internal/application/retrieval"
	"book-creator-api/internal/domain/entity"
	"book-creator-api/internal/infrastructure/persistence/milvus"
)

type fakeCompleter struct {
	prompts []string
	reply   string
	err     error
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
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
	deletedSources []string
	inserted       []*milvus.BookChunk
}

func (f *fakeVectorRepo) EnsureBookChunksCollection(ctx context.Context) error { return nil }

func (f *fakeVectorRepo) DeleteChunksBySource(ctx context.Context, source string) error {
	f.deletedSources = append(f.deletedSources, source)
	return nil
}

func (f *fakeVectorRepo) InsertChunks(ctx context.Context, chunks []*milvus.BookChunk) error {
	f.inserted = append(f.inserted, chunks...)
	return nil
}

func (f *fakeVectorRepo) SearchChunks(ctx context.Context, queryVector []float32, topK int) ([]*milvus.SearchResult, error) {
	return nil, nil
}

func TestChapterGeneratorGenerate(t *testing.T) {
	ctx := context.Background()

	input := func() *ChapterInput {
		return &ChapterInput{
			BookTitle:      "Practical Go",
			Topic:          "Go Programming",
			TargetAudience: "Backend Engineers",
			Chapter: entity.ChapterOutline{
				Title:       "Getting Started",
				Description: "Environment setup and first program",
			},
			Position: 1,
		}
	}

	t.Run("writes chapter file with front matter", func(t *testing.T) {
		dir := t.TempDir()
		completer := &fakeCompleter{reply: "## Installation\n\nInstall Go from the official site."}
		gen := NewChapterGenerator(completer, nil, dir)

		result, err := gen.Generate(ctx, input())
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if result.Filename != "getting-started.md" {
			t.Errorf("filename = %q, want getting-started.md", result.Filename)
		}
		if result.Indexed {
			t.Error("Indexed = true with indexing disabled")
		}

		data, err := os.ReadFile(filepath.Join(dir, "getting-started.md"))
		if err != nil {
			t.Fatalf("reading chapter file: %v", err)
		}
		content := string(data)
		if !strings.HasPrefix(content, "---\nsidebar_position: 1\n---\n\n# Getting Started\n\n") {
			t.Errorf("unexpected document head:\n%s", content)
		}
		if !strings.Contains(content, "## Installation") {
			t.Errorf("chapter body missing from file:\n%s", content)
		}
	})

	t.Run("prompt carries book and chapter details", func(t *testing.T) {
		completer := &fakeCompleter{reply: "body"}
		gen := NewChapterGenerator(completer, nil, t.TempDir())

		if _, err := gen.Generate(ctx, input()); err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if len(completer.prompts) != 1 {
			t.Fatalf("completer called %d times, want 1", len(completer.prompts))
		}
		prompt := completer.prompts[0]
		for _, want := range []string{
			"Write a chapter titled 'Getting Started' for a book about 'Go Programming' titled 'Practical Go'.",
			"Target Audience: Backend Engineers",
			"Chapter Description: Environment setup and first program",
			"Format the output as Markdown.",
		} {
			if !strings.Contains(prompt, want) {
				t.Errorf("prompt missing %q:\n%s", want, prompt)
			}
		}
	})

	t.Run("llm failure still writes placeholder file", func(t *testing.T) {
		dir := t.TempDir()
		completer := &fakeCompleter{err: errors.New("connection refused")}
		gen := NewChapterGenerator(completer, nil, dir)

		result, err := gen.Generate(ctx, input())
		if err == nil {
			t.Fatal("Generate() expected error")
		}
		if result == nil || result.Filename != "getting-started.md" {
			t.Fatalf("result = %+v, want placeholder file", result)
		}

		data, readErr := os.ReadFile(filepath.Join(dir, "getting-started.md"))
		if readErr != nil {
			t.Fatalf("reading placeholder file: %v", readErr)
		}
		if !strings.Contains(string(data), "Error generating content: connection refused") {
			t.Errorf("placeholder body missing error text:\n%s", string(data))
		}
	})

	t.Run("regeneration overwrites existing file", func(t *testing.T) {
		dir := t.TempDir()
		gen := NewChapterGenerator(&fakeCompleter{reply: "first version"}, nil, dir)
		if _, err := gen.Generate(ctx, input()); err != nil {
			t.Fatalf("Generate() error = %v", err)
		}

		gen = NewChapterGenerator(&fakeCompleter{reply: "second version"}, nil, dir)
		if _, err := gen.Generate(ctx, input()); err != nil {
			t.Fatalf("Generate() error = %v", err)
		}

		data, err := os.ReadFile(filepath.Join(dir, "getting-started.md"))
		if err != nil {
			t.Fatalf("reading chapter file: %v", err)
		}
		if !strings.Contains(string(data), "second version") || strings.Contains(string(data), "first version") {
			t.Errorf("file not overwritten:\n%s", string(data))
		}
	})

	t.Run("chapter body is indexed under the chapter filename", func(t *testing.T) {
		first := "Install the Go toolchain from the official downloads page and verify it with the version command."
		second := "Set GOPATH and PATH so the compiler and the supporting tools resolve from any shell session."
		completer := &fakeCompleter{reply: "## Installation\n\n" + first + "\n\n" + second}

		repo := &fakeVectorRepo{}
		indexer := retrieval.NewIndexer(fakeEmbedder{}, repo, 0)
		gen := NewChapterGenerator(completer, indexer, t.TempDir())

		result, err := gen.Generate(ctx, input())
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if !result.Indexed {
			t.Error("Indexed = false, want true")
		}

		// 重复索引前先清除同名来源
		if len(repo.deletedSources) != 1 || repo.deletedSources[0] != "getting-started.md" {
			t.Errorf("deleted sources = %v, want [getting-started.md]", repo.deletedSources)
		}

		// 短标题段落低于分块阈值，入索引的只有两段正文
		if len(repo.inserted) != 2 {
			t.Fatalf("indexed %d chunks, want 2", len(repo.inserted))
		}
		for _, chunk := range repo.inserted {
			if chunk.Source != "getting-started.md" {
				t.Errorf("chunk source = %q, want getting-started.md", chunk.Source)
			}
			if chunk.ID == "" {
				t.Error("chunk ID is empty")
			}
			if strings.Contains(chunk.TextContent, "sidebar_position") {
				t.Errorf("front matter leaked into indexed text: %q", chunk.TextContent)
			}
			if strings.Contains(chunk.TextContent, "# Getting Started") {
				t.Errorf("document heading leaked into indexed text: %q", chunk.TextContent)
			}
		}
		if repo.inserted[0].TextContent != first || repo.inserted[1].TextContent != second {
			t.Errorf("indexed chunks = %q, %q, want raw body paragraphs", repo.inserted[0].TextContent, repo.inserted[1].TextContent)
		}
	})

	t.Run("missing docs dir is created", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "docs")
		gen := NewChapterGenerator(&fakeCompleter{reply: "body"}, nil, dir)
		if _, err := gen.Generate(ctx, input()); err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "getting-started.md")); err != nil {
			t.Errorf("chapter file not created: %v", err)
		}
	})
}
