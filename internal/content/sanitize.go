// Package content repairs and decorates the HTML stored in note bodies.
package content

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// Sanitize repairs note markup. Tags, comments and doctypes are kept as
// written, stray angle brackets in text are escaped and an unterminated tag
// at the end of the input is dropped together with everything after it.
func Sanitize(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	b.Grow(len(s))
	rawText := ""
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			raw := z.Raw()
			if rawText != "" {
				b.Write(raw)
				continue
			}
			b.Write(escapeBrackets(raw))
		case html.StartTagToken:
			b.Write(z.Raw())
			name, _ := z.TagName()
			if isRawTextElement(string(name)) {
				rawText = string(name)
			}
		case html.EndTagToken:
			b.Write(z.Raw())
			name, _ := z.TagName()
			if string(name) == rawText {
				rawText = ""
			}
		default:
			b.Write(z.Raw())
		}
	}
}

func escapeBrackets(raw []byte) []byte {
	if !bytes.ContainsAny(raw, "<>") {
		return raw
	}
	out := bytes.ReplaceAll(raw, []byte("<"), []byte("&lt;"))
	return bytes.ReplaceAll(out, []byte(">"), []byte("&gt;"))
}

func isRawTextElement(name string) bool {
	switch name {
	case "script", "style", "textarea", "title", "xmp", "iframe", "noembed", "noframes", "plaintext":
		return true
	}
	return false
}
