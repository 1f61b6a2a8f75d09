package content

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

var urlPattern = regexp.MustCompile(`(?:https?|ftp)://[^\s<>"\x{00a0}]+`)

// SetLinks wraps bare URLs in anchors. A URL is bare when whitespace or the
// edge of the input sits on both sides of it and it is not inside an <a>
// element. Everything else is copied through unchanged.
func SetLinks(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	b.Grow(len(s))
	offset := 0
	anchors := 0
	rawText := ""
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			b.WriteString(s[offset:])
			return b.String()
		}
		raw := string(z.Raw())
		start := offset
		offset += len(raw)
		switch tt {
		case html.TextToken:
			if anchors > 0 || rawText != "" {
				b.WriteString(raw)
				continue
			}
			b.WriteString(linkText(raw, start == 0, offset == len(s)))
			continue
		case html.StartTagToken:
			name, _ := z.TagName()
			switch tag := string(name); {
			case tag == "a":
				anchors++
			case isRawTextElement(tag):
				rawText = tag
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch tag := string(name); {
			case tag == "a" && anchors > 0:
				anchors--
			case tag == rawText:
				rawText = ""
			}
		}
		b.WriteString(raw)
	}
}

// linkText wraps the bare URLs of a single text run. atStart and atEnd report
// whether the run touches the edges of the whole input.
func linkText(text string, atStart, atEnd bool) string {
	matches := urlPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		if !bareBoundary(text, m[0], m[1], atStart, atEnd) {
			continue
		}
		link := trimTrailingPunct(text[m[0]:m[1]])
		if strings.HasSuffix(link, "://") {
			continue
		}
		b.WriteString(text[last:m[0]])
		b.WriteString(`<a href="`)
		b.WriteString(link)
		b.WriteString(`">`)
		b.WriteString(link)
		b.WriteString(`</a>`)
		last = m[0] + len(link)
	}
	b.WriteString(text[last:])
	return b.String()
}

func bareBoundary(text string, from, to int, atStart, atEnd bool) bool {
	if from == 0 {
		if !atStart {
			return false
		}
	} else {
		r, _ := utf8.DecodeLastRuneInString(text[:from])
		if !unicode.IsSpace(r) {
			return false
		}
	}
	if to == len(text) {
		return atEnd
	}
	r, _ := utf8.DecodeRuneInString(text[to:])
	return unicode.IsSpace(r)
}

// trimTrailingPunct drops sentence punctuation that ends a URL. A closing
// paren is kept while it balances an opening one inside the URL.
func trimTrailingPunct(link string) string {
	for len(link) > 0 {
		last := link[len(link)-1]
		switch {
		case strings.IndexByte(".,;:!?'", last) >= 0:
		case last == ')' && strings.Count(link, "(") < strings.Count(link, ")"):
		default:
			return link
		}
		link = link[:len(link)-1]
	}
	return link
}

// NoteLinkGUID extracts the note guid from an internal link of the form
// scheme:///view/<user>/<shard>/<guid>/<share>/.
func NoteLinkGUID(raw, scheme string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	if scheme == "" || !strings.EqualFold(u.Scheme, scheme) {
		return "", false
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 4 || segments[0] != "view" {
		return "", false
	}
	guid := strings.TrimSpace(segments[3])
	if guid == "" {
		return "", false
	}
	return guid, true
}
