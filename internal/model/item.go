package model

import (
	"fmt"
	"path/filepath"

	ioutils "github.com/handiism/problem-archiver/internal/io"
)

// UncategorizedBucket is the category folder used for items without tags.
const UncategorizedBucket = "uncategorized"

// Item represents one catalog entry.
//
// Items are created from the catalog listing and are not modified for the
// rest of a run.
type Item struct {
	// ID is the stable numeric identifier shown to users (frontend id).
	ID int

	// Title is the display name.
	Title string

	// Slug is the external identifier used in every catalog query.
	Slug string

	// Difficulty is the difficulty label, e.g. "Easy".
	Difficulty string

	// Tags are the category tags in catalog order. The first tag selects
	// the storage bucket.
	Tags []string

	// Locked is true for paid-only content.
	Locked bool
}

// Category returns the storage bucket for the item.
func (i Item) Category() string {
	if len(i.Tags) == 0 || ioutils.SanitizeFileName(i.Tags[0]) == "" {
		return UncategorizedBucket
	}
	return ioutils.SanitizeFileName(i.Tags[0])
}

// DirName returns the per-item folder name: <4-digit id>_<difficulty>_<slug>.
func (i Item) DirName() string {
	return ioutils.SanitizeFileName(fmt.Sprintf("%04d_%s_%s", i.ID, i.Difficulty, i.Slug))
}

// ItemPaths holds every local path an item's files are written to.
//
// Paths are computed once by NewItemPaths so that writers never build paths
// by hand:
//
//	root/<category>/<0001>_<difficulty>_<slug>/
//	    description/problem.<ext>
//	    description/images/<n>.<ext>
//	    templates/solution.<ext>
//	    solutions/official/solution.md
//	    solutions/official/images/<n>.<ext>
//	    solutions/community/<variant>/solution.md
//	    solutions/community/<variant>/images/<n>.<ext>
type ItemPaths struct {
	// Dir is the item folder.
	Dir string

	// DescriptionDir holds the description in every requested format.
	DescriptionDir string

	// TemplatesDir holds one starter template per variant.
	TemplatesDir string

	// OfficialDir holds the official answer.
	OfficialDir string

	// CommunityDir holds one sub folder per variant.
	CommunityDir string
}

// ImagesDirName is the folder name media files are stored under, relative to
// the document that references them.
const ImagesDirName = "images"

// NewItemPaths computes the on-disk layout for an item under root.
func NewItemPaths(root string, item Item) ItemPaths {
	dir := filepath.Join(root, item.Category(), item.DirName())
	return ItemPaths{
		Dir:            dir,
		DescriptionDir: filepath.Join(dir, "description"),
		TemplatesDir:   filepath.Join(dir, "templates"),
		OfficialDir:    filepath.Join(dir, "solutions", "official"),
		CommunityDir:   filepath.Join(dir, "solutions", "community"),
	}
}

// DescriptionFile returns the description path for a format.
func (p ItemPaths) DescriptionFile(f Format) string {
	return filepath.Join(p.DescriptionDir, "problem."+f.Extension())
}

// TemplateFile returns the template path for a variant.
func (p ItemPaths) TemplateFile(v Variant) string {
	return filepath.Join(p.TemplatesDir, "solution."+v.Extension())
}

// TemplateFiles returns the template path for each variant slug. Variants
// sharing an extension (python and python3, the SQL dialects) after the first
// get solution_<slug>.<ext> so they never overwrite each other.
func (p ItemPaths) TemplateFiles(variants []Variant) map[string]string {
	files := make(map[string]string, len(variants))
	taken := make(map[string]bool, len(variants))
	for _, v := range variants {
		path := p.TemplateFile(v)
		if taken[path] {
			name := fmt.Sprintf("solution_%s.%s", ioutils.SanitizeFileName(v.Slug), v.Extension())
			path = filepath.Join(p.TemplatesDir, name)
		}
		taken[path] = true
		files[v.Slug] = path
	}
	return files
}

// OfficialFile returns the official answer path.
func (p ItemPaths) OfficialFile() string {
	return filepath.Join(p.OfficialDir, "solution.md")
}

// CommunityVariantDir returns the folder for a variant's community answer.
func (p ItemPaths) CommunityVariantDir(v Variant) string {
	return filepath.Join(p.CommunityDir, ioutils.SanitizeFileName(v.Slug))
}

// CommunityFile returns the community answer path for a variant.
func (p ItemPaths) CommunityFile(v Variant) string {
	return filepath.Join(p.CommunityVariantDir(v), "solution.md")
}
