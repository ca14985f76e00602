package transcript

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	promptsSuffix   = "_prompts"
	responsesSuffix = "_responses"
	markdownExt     = ".md"
)

// SplitExt splits the base name of path at its final extension only, so "a.md.md" yields
// stem "a.md" and ext ".md". A name without an extension returns ext "".
func SplitExt(path string) (stem, ext string) {
	ext = filepath.Ext(path)
	if ext == filepath.Base(path) {
		// Dotfiles like ".md" have no stem; treat the whole name as the stem.
		return path, ""
	}
	return strings.TrimSuffix(path, ext), ext
}

// SuffixedPath inserts suffix between the stem and the final extension of path.
func SuffixedPath(path, suffix string) string {
	stem, ext := SplitExt(path)
	return stem + suffix + ext
}

// PromptsPath is where the prompts half of a split transcript is written.
func PromptsPath(inputPath string) string {
	return SuffixedPath(inputPath, promptsSuffix)
}

// ResponsesPath is where the responses half of a split transcript is written.
func ResponsesPath(inputPath string) string {
	return SuffixedPath(inputPath, responsesSuffix)
}

// WordCountPath returns path with "_{n}_words" inserted before the final extension.
func WordCountPath(path string, n int) string {
	return SuffixedPath(path, fmt.Sprintf("_%d_words", n))
}

// MarkdownPath returns the converter's output path for an export file: the input name with
// ".md" appended (chat.json -> chat.json.md).
func MarkdownPath(exportPath string) string {
	return exportPath + markdownExt
}
