package content

import (
	"strings"
	"testing"
)

var wellFormedContents = []string{
	"New note content",
	"<ul><li>23</li><li>567</li></ul>",
	"<p>123</p>\u00a0\u00a0ok",
	"<p>\u00a0\u00a0123</p><p>\u00a0\u00a0\u00a0\u00a0ok</p>",
	"<p>hello, i'am fat</p>",
	"<ul><li>1</li><li><ul><li>2</li><li>3</li></ul></li><li>4</li></ul>",
	`<a href="evernote:///view/123/123/123/">note link</a>`,
	"<p>a &amp; b &lt;c&gt;</p>",
	"<script>if (a < b) {}</script>",
}

func TestSanitizeKeepsWellFormedContent(t *testing.T) {
	for _, input := range wellFormedContents {
		if got := Sanitize(input); got != input {
			t.Fatalf("Sanitize(%q) = %q, want unchanged", input, got)
		}
	}
}

func TestSanitizeRepairsMalformedContent(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"<p>< a b cd</p>", "<p>&lt; a b cd</p>"},
		{"> a b cd", "&gt; a b cd"},
		{"<p>ok</p><a b cd", "<p>ok</p>"},
		{"1 < 2 > 0", "1 &lt; 2 &gt; 0"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Sanitize(tc.in); got != tc.want {
			t.Fatalf("Sanitize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSetLinks(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"without", "without"},
		{"https://github.com/nvbn/", `<a href="https://github.com/nvbn/">https://github.com/nvbn/</a>`},
		{
			"https://github.com/nvbn/ http://ya.ru/",
			`<a href="https://github.com/nvbn/">https://github.com/nvbn/</a> <a href="http://ya.ru/">http://ya.ru/</a>`,
		},
		{"<p>https://github.com/nvbn/</p>", "<p>https://github.com/nvbn/</p>"},
		{
			`<a href="http://ya.ru/">see http://ya.ru/ now</a>`,
			`<a href="http://ya.ru/">see http://ya.ru/ now</a>`,
		},
		{
			"<p>see ftp://files.example.org/x now</p>",
			`<p>see <a href="ftp://files.example.org/x">ftp://files.example.org/x</a> now</p>`,
		},
		{
			"a\thttp://ya.ru/\n\nb",
			"a\t<a href=\"http://ya.ru/\">http://ya.ru/</a>\n\nb",
		},
		{"<p>ok</p><a b cd", "<p>ok</p><a b cd"},
		{"xhttp://ya.ru/", "xhttp://ya.ru/"},
		{"see http://a.b/, ok", `see <a href="http://a.b/">http://a.b/</a>, ok`},
		{"done: http://ya.ru/.", `done: <a href="http://ya.ru/">http://ya.ru/</a>.`},
		{"(see http://ya.ru/)", `(see <a href="http://ya.ru/">http://ya.ru/</a>)`},
		{"see http://. now", "see http://. now"},
		{"see http://ya.ru/a)", `see <a href="http://ya.ru/a">http://ya.ru/a</a>)`},
		{"http://en.wikipedia.org/wiki/Go_(language)", `<a href="http://en.wikipedia.org/wiki/Go_(language)">http://en.wikipedia.org/wiki/Go_(language)</a>`},
	}
	for _, tc := range cases {
		if got := SetLinks(tc.in); got != tc.want {
			t.Fatalf("SetLinks(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSetLinksIsIdempotent(t *testing.T) {
	once := SetLinks("https://github.com/nvbn/ http://ya.ru/")
	if twice := SetLinks(once); twice != once {
		t.Fatalf("expected no double wrapping, got %q", twice)
	}
}

func TestNoteLinkGUID(t *testing.T) {
	cases := []struct {
		raw    string
		scheme string
		guid   string
		ok     bool
	}{
		{"evernote:///view/123/123/guid/123/", "evernote", "guid", true},
		{"evernote:///view/123/123/123/", "evernote", "123", true},
		{"EVERNOTE:///view/1/2/abc/3/", "evernote", "abc", true},
		{"https://example.com/view/1/2/abc/3/", "evernote", "", false},
		{"evernote:///edit/1/2/abc/3/", "evernote", "", false},
		{"evernote:///view/1/2/", "evernote", "", false},
		{"evernote:///view/123/123/guid/123/", "", "", false},
	}
	for _, tc := range cases {
		guid, ok := NoteLinkGUID(tc.raw, tc.scheme)
		if guid != tc.guid || ok != tc.ok {
			t.Fatalf("NoteLinkGUID(%q) = %q, %v; want %q, %v", tc.raw, guid, ok, tc.guid, tc.ok)
		}
	}
}

func TestFromMarkdown(t *testing.T) {
	src := strings.Join([]string{
		"# Shopping",
		"",
		"Some *text* with 1 < 2.",
		"",
		"```go",
		"func main() {}",
		"```",
		"",
	}, "\n")
	md, err := FromMarkdown([]byte(src))
	if err != nil {
		t.Fatalf("from markdown: %v", err)
	}
	if md.Title != "Shopping" {
		t.Fatalf("expected title from heading, got %q", md.Title)
	}
	if !strings.Contains(md.HTML, "<em>text</em>") {
		t.Fatalf("expected emphasis, got %q", md.HTML)
	}
	if !strings.Contains(md.HTML, "<pre") || !strings.Contains(md.HTML, "style=") {
		t.Fatalf("expected highlighted code block, got %q", md.HTML)
	}
	if !strings.Contains(md.HTML, "main") {
		t.Fatalf("expected code body, got %q", md.HTML)
	}
	if Sanitize(md.HTML) != md.HTML {
		t.Fatalf("expected sanitized output")
	}
}

func TestFromMarkdownWithoutHeading(t *testing.T) {
	md, err := FromMarkdown([]byte("plain paragraph\n"))
	if err != nil {
		t.Fatalf("from markdown: %v", err)
	}
	if md.Title != "" {
		t.Fatalf("expected empty title, got %q", md.Title)
	}
	if md.HTML != "<p>plain paragraph</p>" {
		t.Fatalf("unexpected html %q", md.HTML)
	}
}
