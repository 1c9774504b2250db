package retrieval

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// minChunkRunes 段落入索引的最小长度（按 rune 计），过短段落多为标题或分隔符
const minChunkRunes = 50

var paragraphSep = regexp.MustCompile(`\n{2,}`)

// SplitParagraphs 将 Markdown 文本按空行切分为段落分块。
// 每个段落去除首尾空白；长度不超过 minChunkRunes 的段落被丢弃。
func SplitParagraphs(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")

	parts := paragraphSep.Split(content, -1)
	chunks := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if utf8.RuneCountInString(p) > minChunkRunes {
			chunks = append(chunks, p)
		}
	}
	return chunks
}
