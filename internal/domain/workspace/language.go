package workspace

import (
	"fmt"
	"path"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
)

// DetectLanguage names the language of a file from its name, or returns ""
// when no lexer matches.
func DetectLanguage(filePath string) string {
	lexer := lexers.Match(path.Base(filePath))
	if lexer == nil {
		return ""
	}
	return strings.ToLower(lexer.Config().Name)
}

// Placeholder is the editor content shown for a file with nothing persisted.
func Placeholder(filePath, language string) string {
	if language == "" {
		language = DetectLanguage(filePath)
	}
	return comment(language, filePath) + "\n" + comment(language, "This file has not been generated yet.") + "\n"
}

func comment(language, text string) string {
	switch language {
	case "python", "ruby", "bash", "shell", "yaml", "toml", "docker", "dockerfile", "makefile", "r", "perl", "ini", "properties":
		return "# " + text
	case "html", "xml", "markdown", "vue", "svelte":
		return fmt.Sprintf("<!-- %s -->", text)
	case "css":
		return fmt.Sprintf("/* %s */", text)
	case "sql", "lua", "haskell":
		return "-- " + text
	default:
		return "// " + text
	}
}
