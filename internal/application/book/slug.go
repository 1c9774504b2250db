package book

import (
	"strings"
	"unicode"
)

// Slugify 将章节标题转为文件名词干：仅保留字母数字、空格、连字符和下划线，
// 去除首尾空白后把空格替换为连字符并转小写。
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	s := strings.TrimSpace(b.String())
	s = strings.ReplaceAll(s, " ", "-")
	return strings.ToLower(s)
}

// SlugFilename 章节 Markdown 文件名（slug + ".md"）
func SlugFilename(title string) string {
	return Slugify(title) + ".md"
}
