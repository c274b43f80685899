// Package transcode renders fetched HTML documents into the archive's output
// formats.
//
// Three renderings exist:
//
//   - Structured: the HTML itself, with media references rewritten
//   - Lightweight: markdown produced from the HTML node tree
//   - Raw: the body exactly as fetched
//
// Lightweight rendering lifts every <pre> block out before parsing and puts
// it back as a fenced code block at the end, so markup inside examples is
// never reinterpreted.
package transcode
