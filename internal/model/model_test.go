package model

import (
	"path/filepath"
	"testing"
)

func TestItem_Category(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want string
	}{
		{"first tag wins", []string{"Array", "Hash Table"}, "Array"},
		{"no tags", nil, UncategorizedBucket},
		{"sanitized", []string{"Graph/Tree"}, "Graph_Tree"},
		{"blank tag", []string{"   "}, UncategorizedBucket},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := Item{ID: 1, Tags: tt.tags}
			if got := item.Category(); got != tt.want {
				t.Errorf("Category() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestItemPaths_Layout(t *testing.T) {
	item := Item{ID: 1, Title: "Two Sum", Slug: "two-sum", Difficulty: "Easy", Tags: []string{"Array"}}
	paths := NewItemPaths("/archive", item)

	wantDir := filepath.Join("/archive", "Array", "0001_Easy_two-sum")
	if paths.Dir != wantDir {
		t.Errorf("Dir = %q, want %q", paths.Dir, wantDir)
	}

	checks := map[string]string{
		paths.DescriptionFile(FormatLightweight):        filepath.Join(wantDir, "description", "problem.md"),
		paths.DescriptionFile(FormatStructured):         filepath.Join(wantDir, "description", "problem.html"),
		paths.TemplateFile(Variant{Slug: "golang"}):     filepath.Join(wantDir, "templates", "solution.go"),
		paths.OfficialFile():                            filepath.Join(wantDir, "solutions", "official", "solution.md"),
		paths.CommunityFile(Variant{Slug: "python3"}):   filepath.Join(wantDir, "solutions", "community", "python3", "solution.md"),
		paths.CommunityVariantDir(Variant{Slug: "cpp"}): filepath.Join(wantDir, "solutions", "community", "cpp"),
	}
	for got, want := range checks {
		if got != want {
			t.Errorf("path = %q, want %q", got, want)
		}
	}
}

func TestItemPaths_TemplateFilesAvoidCollisions(t *testing.T) {
	paths := NewItemPaths("/archive", Item{ID: 2, Slug: "x", Difficulty: "Hard"})
	files := paths.TemplateFiles([]Variant{{Slug: "python3"}, {Slug: "python"}, {Slug: "golang"}})

	want := map[string]string{
		"python3": filepath.Join(paths.TemplatesDir, "solution.py"),
		"python":  filepath.Join(paths.TemplatesDir, "solution_python.py"),
		"golang":  filepath.Join(paths.TemplatesDir, "solution.go"),
	}
	for slug, path := range want {
		if files[slug] != path {
			t.Errorf("TemplateFiles()[%q] = %q, want %q", slug, files[slug], path)
		}
	}
}

func TestVariant_Extension(t *testing.T) {
	tests := []struct {
		slug string
		want string
	}{
		{"python3", "py"},
		{"cpp", "cpp"},
		{"golang", "go"},
		{"mysql", "sql"},
		{"brainfuck", "txt"},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			if got := (Variant{Slug: tt.slug}).Extension(); got != tt.want {
				t.Errorf("Extension() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseFormats(t *testing.T) {
	got, err := ParseFormats([]string{"lightweight", "structured", "md", "raw"})
	if err != nil {
		t.Fatalf("ParseFormats() error = %v", err)
	}
	want := []Format{FormatLightweight, FormatStructured, FormatRaw}
	if len(got) != len(want) {
		t.Fatalf("ParseFormats() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ParseFormats()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	if _, err := ParseFormats([]string{"pdf"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestOutcome_Complete(t *testing.T) {
	if !(Outcome{Kind: KindTemplates, Total: 2, Achieved: 2}).Complete() {
		t.Error("2/2 should be complete")
	}
	if (Outcome{Kind: KindTemplates, Total: 3, Achieved: 2}).Complete() {
		t.Error("2/3 should not be complete")
	}
	if got := (Outcome{Kind: KindTemplates, Total: 3, Achieved: 2}).String(); got != "templates 2/3" {
		t.Errorf("String() = %q", got)
	}
}

func TestDocument_IsEmpty(t *testing.T) {
	if !(Document{Body: " \n\t"}).IsEmpty() {
		t.Error("whitespace body should be empty")
	}
	if (Document{Body: "<p>x</p>"}).IsEmpty() {
		t.Error("non-blank body should not be empty")
	}
}
