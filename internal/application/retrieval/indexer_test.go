package retrieval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/embedding"

	"book-creator-api/internal/infrastructure/persistence/milvus"
)

type fakeEmbedder struct {
	calls [][]string
	err   error
}

func (f *fakeEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls = append(f.calls, texts)
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{float64(len(texts[i])), 0.5}
	}
	return out, nil
}

type fakeVectorRepo struct {
	ensureErr error
	deleteErr error
	insertErr error
	searchErr error

	deletedSources []string
	inserted       []*milvus.BookChunk
	searchResults  []*milvus.SearchResult
	searchTopK     int
}

func (f *fakeVectorRepo) EnsureBookChunksCollection(ctx context.Context) error {
	return f.ensureErr
}

func (f *fakeVectorRepo) DeleteChunksBySource(ctx context.Context, source string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deletedSources = append(f.deletedSources, source)
	return nil
}

func (f *fakeVectorRepo) InsertChunks(ctx context.Context, chunks []*milvus.BookChunk) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, chunks...)
	return nil
}

func (f *fakeVectorRepo) SearchChunks(ctx context.Context, queryVector []float32, topK int) ([]*milvus.SearchResult, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	f.searchTopK = topK
	return f.searchResults, nil
}

func TestIndexerEnabled(t *testing.T) {
	tests := []struct {
		name     string
		embedder embedding.Embedder
		vector   VectorRepository
		want     bool
	}{
		{name: "both configured", embedder: &fakeEmbedder{}, vector: &fakeVectorRepo{}, want: true},
		{name: "no embedder", embedder: nil, vector: &fakeVectorRepo{}, want: false},
		{name: "no vector repo", embedder: &fakeEmbedder{}, vector: nil, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := NewIndexer(tt.embedder, tt.vector, 0)
			if got := idx.Enabled(); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIndexDocument(t *testing.T) {
	ctx := context.Background()
	para1 := strings.Repeat("a", 60)
	para2 := strings.Repeat("b", 60)

	t.Run("deletes old chunks before inserting", func(t *testing.T) {
		repo := &fakeVectorRepo{}
		idx := NewIndexer(&fakeEmbedder{}, repo, 0)

		if err := idx.IndexDocument(ctx, "chapter-one.md", para1+"\n\n"+para2); err != nil {
			t.Fatalf("IndexDocument() error = %v", err)
		}

		if len(repo.deletedSources) != 1 || repo.deletedSources[0] != "chapter-one.md" {
			t.Errorf("deleted sources = %v, want [chapter-one.md]", repo.deletedSources)
		}
		if len(repo.inserted) != 2 {
			t.Fatalf("inserted %d chunks, want 2", len(repo.inserted))
		}
		for i, chunk := range repo.inserted {
			if chunk.Source != "chapter-one.md" {
				t.Errorf("chunk %d source = %q, want chapter-one.md", i, chunk.Source)
			}
			if chunk.ID == "" {
				t.Errorf("chunk %d has empty id", i)
			}
			if len(chunk.Vector) == 0 {
				t.Errorf("chunk %d has empty vector", i)
			}
		}
		if repo.inserted[0].TextContent != para1 || repo.inserted[1].TextContent != para2 {
			t.Errorf("chunk texts = %q, %q", repo.inserted[0].TextContent, repo.inserted[1].TextContent)
		}
	})

	t.Run("empty content still clears old chunks", func(t *testing.T) {
		repo := &fakeVectorRepo{}
		idx := NewIndexer(&fakeEmbedder{}, repo, 0)

		if err := idx.IndexDocument(ctx, "chapter-one.md", "short"); err != nil {
			t.Fatalf("IndexDocument() error = %v", err)
		}
		if len(repo.deletedSources) != 1 {
			t.Errorf("deleted sources = %v, want one entry", repo.deletedSources)
		}
		if len(repo.inserted) != 0 {
			t.Errorf("inserted %d chunks, want 0", len(repo.inserted))
		}
	})

	t.Run("disabled indexer returns ErrVectorDisabled", func(t *testing.T) {
		idx := NewIndexer(nil, nil, 0)
		if err := idx.IndexDocument(ctx, "a.md", para1); !errors.Is(err, ErrVectorDisabled) {
			t.Errorf("IndexDocument() error = %v, want ErrVectorDisabled", err)
		}
	})

	t.Run("empty source is rejected", func(t *testing.T) {
		idx := NewIndexer(&fakeEmbedder{}, &fakeVectorRepo{}, 0)
		if err := idx.IndexDocument(ctx, "  ", para1); err == nil {
			t.Error("IndexDocument() expected error for empty source")
		}
	})

	t.Run("embed error aborts without insert", func(t *testing.T) {
		repo := &fakeVectorRepo{}
		idx := NewIndexer(&fakeEmbedder{err: errors.New("boom")}, repo, 0)
		if err := idx.IndexDocument(ctx, "a.md", para1); err == nil {
			t.Fatal("IndexDocument() expected error")
		}
		if len(repo.inserted) != 0 {
			t.Errorf("inserted %d chunks after embed failure, want 0", len(repo.inserted))
		}
	})

	t.Run("batches embedding calls", func(t *testing.T) {
		emb := &fakeEmbedder{}
		idx := NewIndexer(emb, &fakeVectorRepo{}, 2)

		content := strings.Join([]string{
			strings.Repeat("a", 60),
			strings.Repeat("b", 60),
			strings.Repeat("c", 60),
		}, "\n\n")
		if err := idx.IndexDocument(ctx, "a.md", content); err != nil {
			t.Fatalf("IndexDocument() error = %v", err)
		}
		if len(emb.calls) != 2 {
			t.Fatalf("embedder called %d times, want 2", len(emb.calls))
		}
		if len(emb.calls[0]) != 2 || len(emb.calls[1]) != 1 {
			t.Errorf("batch sizes = %d, %d, want 2, 1", len(emb.calls[0]), len(emb.calls[1]))
		}
	})
}
