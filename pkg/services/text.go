package services

import (
	"html"
	"strings"
	"unicode/utf8"

	nethtml "golang.org/x/net/html"
	"golang.org/x/text/cases"
)

const (
	ExcerptLength       = 200
	RecentExcerptLength = 150
	excerptSuffix       = "..."
)

// StripTags returns the text content of an HTML fragment. Script and style
// bodies are dropped.
func StripTags(fragment string) string {
	var b strings.Builder
	z := nethtml.NewTokenizer(strings.NewReader(fragment))
	skip := 0
	for {
		switch z.Next() {
		case nethtml.ErrorToken:
			// io.EOF or a malformed tail; either way the text so far is the answer.
			return b.String()
		case nethtml.StartTagToken:
			if isRawTextTag(z) {
				skip++
			}
		case nethtml.EndTagToken:
			if isRawTextTag(z) && skip > 0 {
				skip--
			}
		case nethtml.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isRawTextTag(z *nethtml.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

// Excerpt strips tags from content and cuts it to n runes. The suffix is
// always appended, even when nothing was cut.
func Excerpt(content string, n int) string {
	text := StripTags(content)
	if utf8.RuneCountInString(text) > n {
		text = string([]rune(text)[:n])
	}
	return text + excerptSuffix
}

// Fold normalizes s for case-insensitive matching.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// ContainsFold reports whether any of the haystacks contains needle,
// ignoring case. needle must already be folded.
func ContainsFold(needle string, haystacks ...string) bool {
	for _, h := range haystacks {
		if strings.Contains(Fold(h), needle) {
			return true
		}
	}
	return false
}

// decodeField undoes the entity encoding the CMS applies when it saves a page.
func decodeField(s string) string {
	return html.UnescapeString(strings.TrimSpace(s))
}
