package transcode

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// renderMarkdown parses fragment as the content of a <body> element and
// renders it as markdown. Unknown elements contribute only their children.
func renderMarkdown(fragment string) string {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		// The tokenizer only fails on reader errors, which a strings.Reader
		// never produces.
		return fragment
	}

	r := &renderer{out: &strings.Builder{}}
	for _, n := range nodes {
		r.node(n)
	}
	return r.out.String()
}

type listFrame struct {
	ordered bool
	next    int
}

type renderer struct {
	out    *strings.Builder
	lists  []listFrame
	inCode bool
}

func (r *renderer) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		r.node(c)
	}
}

// inner renders n's children into a separate buffer.
func (r *renderer) inner(n *html.Node) string {
	saved := r.out
	r.out = &strings.Builder{}
	r.children(n)
	text := r.out.String()
	r.out = saved
	return text
}

func (r *renderer) node(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		r.out.WriteString(strings.ReplaceAll(n.Data, "\u00a0", " "))
		return
	case html.ElementNode:
	default:
		r.children(n)
		return
	}

	switch n.DataAtom {
	case atom.Script, atom.Style:
	case atom.Strong, atom.B:
		r.wrap(n, "**")
	case atom.Em, atom.I:
		r.wrap(n, "*")
	case atom.Code:
		r.code(n)
	case atom.Sup:
		r.out.WriteString("^" + r.inner(n))
	case atom.Sub:
		r.out.WriteString("_" + r.inner(n))
	case atom.Ul, atom.Ol:
		r.list(n)
	case atom.Li:
		r.item(n)
	case atom.P:
		r.out.WriteString("\n\n")
		r.children(n)
		r.out.WriteString("\n\n")
	case atom.Div:
		r.out.WriteString("\n")
		r.children(n)
		r.out.WriteString("\n")
	case atom.Br:
		r.out.WriteString("\n")
	case atom.Hr:
		r.out.WriteString("\n\n---\n\n")
	case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		level := int(n.Data[1] - '0')
		r.out.WriteString("\n\n" + strings.Repeat("#", level) + " ")
		r.out.WriteString(strings.TrimSpace(r.inner(n)))
		r.out.WriteString("\n\n")
	case atom.A:
		r.link(n)
	case atom.Img:
		r.out.WriteString("![" + attr(n, "alt") + "](" + attr(n, "src") + ")")
	case atom.Blockquote:
		r.quote(n)
	case atom.Pre:
		r.out.WriteString("\n\n```\n" + strings.Trim(textOf(n), "\n") + "\n```\n\n")
	default:
		r.children(n)
	}
}

func (r *renderer) wrap(n *html.Node, marker string) {
	text := r.inner(n)
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || r.inCode {
		r.out.WriteString(text)
		return
	}
	// Markers must hug the text, so surrounding spaces stay outside.
	lead := text[:len(text)-len(strings.TrimLeft(text, " \t\n"))]
	trail := text[len(strings.TrimRight(text, " \t\n")):]
	r.out.WriteString(lead + marker + trimmed + marker + trail)
}

func (r *renderer) code(n *html.Node) {
	if r.inCode {
		r.children(n)
		return
	}
	r.inCode = true
	text := r.inner(n)
	r.inCode = false
	r.out.WriteString("`" + text + "`")
}

func (r *renderer) list(n *html.Node) {
	r.lists = append(r.lists, listFrame{ordered: n.DataAtom == atom.Ol, next: 1})
	r.out.WriteString("\n")
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode && strings.TrimSpace(c.Data) == "" {
			continue
		}
		r.node(c)
	}
	r.lists = r.lists[:len(r.lists)-1]
	if len(r.lists) == 0 {
		r.out.WriteString("\n")
	}
}

func (r *renderer) item(n *html.Node) {
	depth := len(r.lists)
	marker := "- "
	if depth > 0 {
		frame := &r.lists[depth-1]
		if frame.ordered {
			marker = strconv.Itoa(frame.next) + ". "
			frame.next++
		}
	} else {
		depth = 1
	}

	content := strings.TrimSpace(blankRunPattern.ReplaceAllString(r.inner(n), "\n"))
	indent := strings.Repeat("  ", depth-1)
	lines := strings.Split(content, "\n")
	r.out.WriteString(indent + marker + strings.TrimSpace(lines[0]) + "\n")
	for _, line := range lines[1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if strings.HasPrefix(line, indent) {
			r.out.WriteString(line + "\n")
			continue
		}
		r.out.WriteString(indent + "  " + strings.TrimSpace(line) + "\n")
	}
}

func (r *renderer) link(n *html.Node) {
	href := attr(n, "href")
	text := strings.TrimSpace(r.inner(n))
	switch {
	case href == "":
		r.out.WriteString(text)
	case text == "":
		r.out.WriteString(href)
	default:
		r.out.WriteString("[" + text + "](" + href + ")")
	}
}

func (r *renderer) quote(n *html.Node) {
	content := strings.TrimSpace(blankRunPattern.ReplaceAllString(r.inner(n), "\n\n"))
	r.out.WriteString("\n\n")
	for _, line := range strings.Split(content, "\n") {
		r.out.WriteString(strings.TrimRight("> "+line, " ") + "\n")
	}
	r.out.WriteString("\n")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
