package model

// Document is a piece of rich markup together with the remote media it
// embeds.
type Document struct {
	// Body is the canonical markup.
	Body string

	// Media lists distinct media references in first-seen order.
	Media []MediaRef
}

// MediaRef is one distinct remote media reference.
type MediaRef struct {
	// URL is the remote location as it appears in the body.
	URL string

	// Index is the 1-based first-seen position among distinct references.
	Index int
}

// IsEmpty reports whether the document has no content.
func (d Document) IsEmpty() bool {
	for _, r := range d.Body {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			return false
		}
	}
	return true
}
