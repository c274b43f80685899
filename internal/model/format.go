package model

import (
	"fmt"
	"strings"
)

// Format is an output representation of a description document.
type Format int

const (
	// FormatStructured is the source markup with media rewritten (.html).
	FormatStructured Format = iota

	// FormatLightweight is a Markdown rendering (.md).
	FormatLightweight

	// FormatRaw is the source markup, untouched (.txt).
	FormatRaw
)

// Extension returns the file extension for the format, without the dot.
//
// Returns:
//   - "html" for FormatStructured
//   - "md" for FormatLightweight
//   - "txt" for FormatRaw
func (f Format) Extension() string {
	switch f {
	case FormatStructured:
		return "html"
	case FormatLightweight:
		return "md"
	case FormatRaw:
		return "txt"
	default:
		return "md"
	}
}

// String returns the configuration name of the format.
func (f Format) String() string {
	switch f {
	case FormatStructured:
		return "structured"
	case FormatLightweight:
		return "lightweight"
	case FormatRaw:
		return "raw"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat converts a configuration name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "structured", "html":
		return FormatStructured, nil
	case "lightweight", "markdown", "md":
		return FormatLightweight, nil
	case "raw":
		return FormatRaw, nil
	default:
		return 0, fmt.Errorf("unknown format %q", name)
	}
}

// ParseFormats converts configuration names to Formats, dropping duplicates
// while keeping order.
func ParseFormats(names []string) ([]Format, error) {
	seen := make(map[Format]struct{}, len(names))
	formats := make([]Format, 0, len(names))
	for _, name := range names {
		f, err := ParseFormat(name)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		formats = append(formats, f)
	}
	return formats, nil
}
