package transcode

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/handiism/problem-archiver/internal/media"
	"github.com/handiism/problem-archiver/internal/model"
)

var (
	preBlockPattern   = regexp.MustCompile(`(?is)<pre\b[^>]*>(.*?)</pre\s*>`)
	preInlinePattern  = regexp.MustCompile(`(?i)</?(?:strong|b|em|i|code)\b[^>]*>`)
	placeholderFormat = "@@CODEBLOCK%d@@"
	blankRunPattern   = regexp.MustCompile(`\n{3,}`)
	trailingWSPattern = regexp.MustCompile(`[ \t]+\n`)
)

// Render dispatches to the renderer for format.
func Render(format model.Format, body string, mapping map[string]string) (string, error) {
	switch format {
	case model.FormatStructured:
		return ToStructured(body, mapping), nil
	case model.FormatLightweight:
		return ToLightweight(body, mapping), nil
	case model.FormatRaw:
		return ToRaw(body), nil
	default:
		return "", fmt.Errorf("unsupported format %s", format)
	}
}

// ToRaw returns body unchanged.
func ToRaw(body string) string {
	return body
}

// ToStructured returns body with media references rewritten through mapping.
func ToStructured(body string, mapping map[string]string) string {
	return media.Substitute(body, mapping)
}

// ToLightweight converts body to markdown.
//
// The steps run in a fixed order:
//
//  1. <pre> blocks become placeholders; emphasis tags inside them are
//     dropped and entities decoded so the block is literal text
//  2. media references are rewritten through mapping
//  3. the rest is parsed and rendered node by node
//  4. runs of blank lines collapse to one and the result is trimmed
//  5. placeholders are replaced with fenced code blocks
func ToLightweight(body string, mapping map[string]string) string {
	var blocks []string
	body = preBlockPattern.ReplaceAllStringFunc(body, func(block string) string {
		inner := preBlockPattern.FindStringSubmatch(block)[1]
		inner = preInlinePattern.ReplaceAllString(inner, "")
		blocks = append(blocks, html.UnescapeString(inner))
		return "\n\n" + fmt.Sprintf(placeholderFormat, len(blocks)-1) + "\n\n"
	})

	body = media.Substitute(body, mapping)

	text := renderMarkdown(body)
	text = trailingWSPattern.ReplaceAllString(text, "\n")
	text = blankRunPattern.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)

	for i, block := range blocks {
		fence := "```\n" + strings.Trim(block, "\n") + "\n```"
		text = strings.Replace(text, fmt.Sprintf(placeholderFormat, i), fence, 1)
	}
	return text
}
