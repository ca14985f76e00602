package transcript

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/theimaginaryfoundation/chat-transcripts/transcript/fileutils"
)

// CountWords counts whitespace-separated tokens in text. Delimiter runs ("-----") are
// horizontal rules, not words, and are skipped.
func CountWords(text string) int {
	n := 0
	for _, f := range strings.Fields(text) {
		if IsDelimiter(f) {
			continue
		}
		n++
	}
	return n
}

// FinalizeWordCount re-reads path from disk, counts its words and renames it to embed the
// count (name.md -> name_{n}_words.md). The file on disk is the source of truth, so callers
// must have closed and flushed it first.
//
// If the target already exists and overwrite is false the rename is refused and the
// un-counted file is left in place.
func FinalizeWordCount(path string, overwrite bool) (string, int, error) {
	if path == "" {
		return "", 0, errors.New("FinalizeWordCount: path is empty")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return "", 0, fmt.Errorf("FinalizeWordCount: read %s: %w", path, err)
	}

	n := CountWords(string(b))
	finalPath := WordCountPath(path, n)
	if err := fileutils.RenameNoClobber(path, finalPath, overwrite); err != nil {
		return "", n, fmt.Errorf("FinalizeWordCount: rename: %w", err)
	}
	return finalPath, n, nil
}
