// Package ioutils provides file system and image utilities.
//
// This package contains functions for:
//   - Filename sanitization for cross-platform compatibility
//   - Directory creation and file writing on an afero.Fs
//   - Atomic file replacement (temp file + rename)
//   - Image format sniffing
//
// # File Operations
//
// All writers take an afero.Fs so callers can use the OS filesystem in
// production and an in-memory filesystem in tests:
//
//	fs := afero.NewOsFs()
//	err := ioutils.WriteFile(fs, "/archive/Array/0001_Easy_two-sum/templates/solution.go", code)
//
//	// Replace a file so readers never observe a partial write
//	err = ioutils.WriteFileAtomic(fs, "/archive/progress.json", data)
//
// # Filename Sanitization
//
//	safe := ioutils.SanitizeFileName("Graph/Tree") // Returns "Graph_Tree"
//
// # Image Sniffing
//
//	ext, ok := ioutils.DetectImageExtension(data) // ".webp", true
package ioutils
