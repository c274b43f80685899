package model

// Variant is a language selection for which templates and community answers
// may exist. Variants are discovered from each item's detail response.
type Variant struct {
	// Slug is the catalog identifier, e.g. "python3".
	Slug string

	// Name is the display name, e.g. "Python3".
	Name string
}

var variantExtensions = map[string]string{
	"bash":       "sh",
	"c":          "c",
	"cpp":        "cpp",
	"csharp":     "cs",
	"dart":       "dart",
	"elixir":     "ex",
	"erlang":     "erl",
	"golang":     "go",
	"java":       "java",
	"javascript": "js",
	"kotlin":     "kt",
	"mssql":      "sql",
	"mysql":      "sql",
	"oraclesql":  "sql",
	"php":        "php",
	"postgresql": "sql",
	"python":     "py",
	"python3":    "py",
	"pythondata": "py",
	"racket":     "rkt",
	"ruby":       "rb",
	"rust":       "rs",
	"scala":      "scala",
	"swift":      "swift",
	"typescript": "ts",
}

// Extension returns the file extension (without the dot) for the variant.
//
// Unknown variants fall back to "txt".
func (v Variant) Extension() string {
	if ext, ok := variantExtensions[v.Slug]; ok {
		return ext
	}
	return "txt"
}
