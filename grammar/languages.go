package grammar

import (
	"path/filepath"
	"strings"
)

// Language describes one supported language identifier and the engine
// grammar that parses it.
type Language struct {
	ID         string   // canonical identifier, e.g. "typescriptreact"
	Name       string   // human readable name
	Grammar    string   // engine grammar name, e.g. "tsx"
	Aliases    []string // alternative identifiers
	Extensions []string // file extensions, with the leading dot
}

var languages = []Language{
	{ID: "javascript", Name: "JavaScript", Grammar: "javascript", Aliases: []string{"js"}, Extensions: []string{".js", ".mjs", ".cjs"}},
	{ID: "typescript", Name: "TypeScript", Grammar: "typescript", Aliases: []string{"ts"}, Extensions: []string{".ts", ".mts", ".cts"}},
	{ID: "javascriptreact", Name: "React JSX", Grammar: "javascript", Aliases: []string{"jsx"}, Extensions: []string{".jsx"}},
	{ID: "typescriptreact", Name: "React TSX", Grammar: "tsx", Aliases: []string{"tsx"}, Extensions: []string{".tsx"}},
	{ID: "python", Name: "Python", Grammar: "python", Aliases: []string{"py"}, Extensions: []string{".py", ".pyi"}},
	{ID: "java", Name: "Java", Grammar: "java", Extensions: []string{".java"}},
	{ID: "c", Name: "C", Grammar: "c", Extensions: []string{".c", ".h"}},
	{ID: "cpp", Name: "C++", Grammar: "cpp", Aliases: []string{"c++"}, Extensions: []string{".cc", ".cpp", ".cxx", ".hpp", ".hh", ".hxx"}},
	{ID: "csharp", Name: "C#", Grammar: "c_sharp", Aliases: []string{"cs", "c_sharp"}, Extensions: []string{".cs"}},
	{ID: "go", Name: "Go", Grammar: "go", Aliases: []string{"golang"}, Extensions: []string{".go"}},
	{ID: "rust", Name: "Rust", Grammar: "rust", Aliases: []string{"rs"}, Extensions: []string{".rs"}},
	{ID: "ruby", Name: "Ruby", Grammar: "ruby", Aliases: []string{"rb"}, Extensions: []string{".rb"}},
	{ID: "kotlin", Name: "Kotlin", Grammar: "kotlin", Aliases: []string{"kt"}, Extensions: []string{".kt", ".kts"}},
	{ID: "dart", Name: "Dart", Grammar: "dart", Extensions: []string{".dart"}},
	{ID: "php", Name: "PHP", Grammar: "php", Extensions: []string{".php"}},
}

var (
	byID        = map[string]*Language{}
	byExtension = map[string]*Language{}
)

func init() {
	for i := range languages {
		lang := &languages[i]
		byID[lang.ID] = lang
		for _, alias := range lang.Aliases {
			byID[alias] = lang
		}
		for _, ext := range lang.Extensions {
			byExtension[ext] = lang
		}
	}
}

// Languages returns every supported language in a stable order.
func Languages() []Language {
	result := make([]Language, len(languages))
	copy(result, languages)
	return result
}

// Lookup finds a language by identifier or alias. Identifiers are matched
// case-insensitively after trimming surrounding space.
func Lookup(id string) (Language, bool) {
	lang, ok := byID[normalizeID(id)]
	if !ok {
		return Language{}, false
	}
	return *lang, true
}

// Detect returns the language identifier for a file name, based on its
// extension.
func Detect(filename string) (string, bool) {
	lang, ok := byExtension[strings.ToLower(filepath.Ext(filename))]
	if !ok {
		return "", false
	}
	return lang.ID, true
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
