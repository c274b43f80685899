package download

import (
	"fmt"
	"html"
	"strings"

	"github.com/handiism/problem-archiver/internal/catalog"
	"github.com/handiism/problem-archiver/internal/model"
	"github.com/handiism/problem-archiver/internal/transcode"
)

// markdownDescription prefixes the rendered body with a title block and
// appends the hints.
func markdownDescription(item model.Item, meta catalog.Metadata, body string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %d. %s\n\n", item.ID, item.Title)
	if item.Difficulty != "" {
		fmt.Fprintf(&sb, "- Difficulty: %s\n", item.Difficulty)
	}
	if len(meta.Tags) > 0 {
		fmt.Fprintf(&sb, "- Tags: %s\n", strings.Join(meta.Tags, ", "))
	}
	if meta.Likes > 0 || meta.Dislikes > 0 {
		fmt.Fprintf(&sb, "- Votes: %d up, %d down\n", meta.Likes, meta.Dislikes)
	}
	sb.WriteString("\n---\n\n")
	sb.WriteString(body)
	sb.WriteString("\n")

	if len(meta.Hints) > 0 {
		sb.WriteString("\n## Hints\n\n")
		for i, hint := range meta.Hints {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, transcode.ToLightweight(hint, nil))
		}
	}
	return sb.String()
}

// htmlDescription wraps the body in a minimal standalone page.
func htmlDescription(item model.Item, body string) string {
	title := html.EscapeString(fmt.Sprintf("%d. %s", item.ID, item.Title))
	return "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>" + title +
		"</title>\n</head>\n<body>\n<h1>" + title + "</h1>\n" + body + "\n</body>\n</html>\n"
}
