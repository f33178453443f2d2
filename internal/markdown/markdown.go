// Package markdown converts between post text, HTML and plain text: posts
// are rendered to HTML for export, fetched pages are reduced to text for
// the input stage.
package markdown

import (
	"io"
	"regexp"
	"strings"

	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"golang.org/x/net/html"
)

// bulletRe matches the "•" bullets models use for lists in posts.
var bulletRe = regexp.MustCompile(`(?m)^[ \t]*[•▪●◦]\s+`)

// ToHTML renders post text to HTML. "•" bullets become list items.
func ToHTML(post []byte) string {
	post = bulletRe.ReplaceAll(post, []byte("- "))

	opts := mdhtml.RendererOptions{
		Flags: mdhtml.CommonFlags | mdhtml.HrefTargetBlank,
	}
	renderer := mdhtml.NewRenderer(opts)
	ext := parser.CommonExtensions | parser.Attributes | parser.HardLineBreak
	p := parser.NewWithExtensions(ext)
	doc := p.Parse(post)
	return string(markdown.Render(doc, renderer))
}

// ToPlainText strips markdown emphasis and links by rendering and then
// extracting the text.
func ToPlainText(md []byte) string {
	text, _, _ := HTMLToText(strings.NewReader(ToHTML(md)))
	return text
}

var skipElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"svg": true, "nav": true, "footer": true, "header": true, "form": true,
	"iframe": true, "head": true,
}

var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"article": true, "section": true, "blockquote": true, "pre": true,
	"ul": true, "ol": true, "table": true,
}

// HTMLToText extracts readable text and the <title> from an HTML document.
// Scripts, styles and page chrome are dropped, entities decoded and runs of
// whitespace collapsed. Block elements become paragraph breaks.
func HTMLToText(r io.Reader) (text, title string, err error) {
	z := html.NewTokenizer(r)

	var (
		sb      strings.Builder
		skip    int
		inTitle bool
		titleSB strings.Builder
	)

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return collapse(sb.String()), strings.TrimSpace(collapseSpaces(titleSB.String())), nil
			}
			return collapse(sb.String()), strings.TrimSpace(collapseSpaces(titleSB.String())), z.Err()

		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "title" {
				inTitle = tt == html.StartTagToken
				continue
			}
			if skipElements[tag] && tt == html.StartTagToken {
				skip++
				continue
			}
			if blockElements[tag] {
				sb.WriteString("\n\n")
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "title" {
				inTitle = false
				continue
			}
			if skipElements[tag] && skip > 0 {
				skip--
				continue
			}
			if blockElements[tag] {
				sb.WriteString("\n\n")
			}

		case html.TextToken:
			if inTitle {
				titleSB.Write(z.Text())
				continue
			}
			if skip > 0 {
				continue
			}
			sb.Write(z.Text())
		}
	}
}

var (
	spacesRe     = regexp.MustCompile(`[ \t\r\f\v\x{00A0}]+`)
	blankLinesRe = regexp.MustCompile(`\n\s*\n+`)
)

func collapseSpaces(s string) string {
	return spacesRe.ReplaceAllString(s, " ")
}

// collapse normalizes whitespace while keeping paragraph breaks.
func collapse(s string) string {
	s = collapseSpaces(s)
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	s = strings.Join(lines, "\n")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
