package retrieval

import (
	"strings"
	"testing"
)

func TestSplitParagraphs(t *testing.T) {
	long1 := strings.Repeat("a", 60)
	long2 := strings.Repeat("b", 80)

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "empty input",
			content: "",
			want:    nil,
		},
		{
			name:    "single long paragraph",
			content: long1,
			want:    []string{long1},
		},
		{
			name:    "short paragraphs are dropped",
			content: "## Heading\n\n" + long1 + "\n\nshort line",
			want:    []string{long1},
		},
		{
			name:    "multiple paragraphs",
			content: long1 + "\n\n" + long2,
			want:    []string{long1, long2},
		},
		{
			name:    "extra blank lines collapse",
			content: long1 + "\n\n\n\n" + long2,
			want:    []string{long1, long2},
		},
		{
			name:    "crlf input",
			content: long1 + "\r\n\r\n" + long2,
			want:    []string{long1, long2},
		},
		{
			name:    "surrounding whitespace trimmed",
			content: "  " + long1 + "  \n\n\t" + long2 + "\n",
			want:    []string{long1, long2},
		},
		{
			name:    "exactly fifty runes is dropped",
			content: strings.Repeat("x", 50),
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitParagraphs(tt.content)
			if len(got) != len(tt.want) {
				t.Fatalf("SplitParagraphs() returned %d chunks, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("chunk %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplitParagraphsCountsRunes(t *testing.T) {
	// 51 个多字节字符：字节数远超 50，rune 数刚好超过阈值
	p := strings.Repeat("书", 51)
	got := SplitParagraphs(p)
	if len(got) != 1 {
		t.Fatalf("expected multi-byte paragraph to be kept, got %d chunks", len(got))
	}

	// 50 个则被丢弃
	if got := SplitParagraphs(strings.Repeat("书", 50)); len(got) != 0 {
		t.Fatalf("expected 50-rune paragraph to be dropped, got %d chunks", len(got))
	}
}
