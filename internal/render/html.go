// Package render turns entry HTML into plain text and terminal markdown.
package render

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

// PlainText strips markup and collapses whitespace.
func PlainText(src string) string {
	if !strings.ContainsAny(src, "<&") {
		return strings.Join(strings.Fields(src), " ")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	if err != nil {
		return strings.Join(strings.Fields(src), " ")
	}
	doc.Find("script, style, noscript").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// HTMLToMarkdown converts article HTML to markdown. Content that fails to
// convert falls back to its plain text.
func HTMLToMarkdown(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	md, err := htmltomarkdown.ConvertString(src)
	if err != nil {
		return PlainText(src)
	}
	return strings.TrimSpace(md)
}

// Truncate shortens s to at most limit runes, ending with an ellipsis
// when cut.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	return string(r[:limit-1]) + "…"
}

// TruncateMiddle keeps both ends of s around a single ellipsis, for URLs.
func TruncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	if limit == 1 {
		return "…"
	}
	left := (limit - 1) / 2
	right := limit - 1 - left
	return string(r[:left]) + "…" + string(r[len(r)-right:])
}
