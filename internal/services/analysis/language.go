package services

import (
	"path/filepath"
	"strings"
)

var extLanguages = map[string]string{
	".go":    "go",
	".py":    "python",
	".js":    "javascript",
	".jsx":   "javascript",
	".ts":    "typescript",
	".tsx":   "typescript",
	".java":  "java",
	".kt":    "kotlin",
	".rb":    "ruby",
	".rs":    "rust",
	".c":     "c",
	".h":     "c",
	".cpp":   "cpp",
	".cc":    "cpp",
	".hpp":   "cpp",
	".cs":    "csharp",
	".php":   "php",
	".swift": "swift",
	".sql":   "sql",
	".sh":    "shell",
}

// DetectLanguage определяет язык по расширению файла. Для неизвестного
// расширения возвращает пустую строку.
func DetectLanguage(filename string) string {
	return extLanguages[strings.ToLower(filepath.Ext(filename))]
}
