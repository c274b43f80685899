package media

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/handiism/problem-archiver/internal/model"
)

var (
	htmlImagePattern     = regexp.MustCompile(`(?is)<img\b[^>]*?\ssrc\s*=\s*["']([^"']+)["']`)
	markdownImagePattern = regexp.MustCompile(`!\[[^\]]*\]\(\s*<?([^)\s>]+)>?(?:\s+"[^"]*")?\s*\)`)
)

// Extract returns the distinct remote media URLs of body in first-occurrence
// order, indexed from 1. Only http and https URLs are returned.
func Extract(body string) []model.MediaRef {
	type hit struct {
		pos int
		url string
	}

	var hits []hit
	for _, re := range []*regexp.Regexp{htmlImagePattern, markdownImagePattern} {
		for _, m := range re.FindAllStringSubmatchIndex(body, -1) {
			hits = append(hits, hit{pos: m[2], url: body[m[2]:m[3]]})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	seen := make(map[string]struct{}, len(hits))
	refs := make([]model.MediaRef, 0, len(hits))
	for _, h := range hits {
		raw := strings.TrimSpace(h.url)
		if !isRemote(raw) {
			continue
		}
		if _, ok := seen[raw]; ok {
			continue
		}
		seen[raw] = struct{}{}
		refs = append(refs, model.MediaRef{URL: raw, Index: len(refs) + 1})
	}
	return refs
}

func isRemote(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// Substitute replaces every occurrence of each mapping key in body with its
// value in a single literal pass. Longer keys take precedence so a URL that
// is a prefix of another does not corrupt it.
func Substitute(body string, mapping map[string]string) string {
	keys := make([]string, 0, len(mapping))
	for from, to := range mapping {
		if from == "" || from == to {
			continue
		}
		keys = append(keys, from)
	}
	if len(keys) == 0 {
		return body
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, mapping[k])
	}
	return strings.NewReplacer(pairs...).Replace(body)
}
