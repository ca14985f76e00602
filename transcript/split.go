package transcript

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/theimaginaryfoundation/chat-transcripts/transcript/fileutils"
)

const blankLine = "\n\n"

// SplitFileOptions controls how SplitMarkdownFile writes its outputs.
type SplitFileOptions struct {
	// OutputDir is where the prompts/responses files are written.
	// If empty, they are written next to the input file.
	OutputDir string

	// Overwrite allows replacing existing intermediate and word-counted files.
	// If false and any target exists, SplitMarkdownFile returns an error wrapping fs.ErrExist.
	Overwrite bool

	// FileMode is used when creating output files (defaults to 0o644).
	FileMode fs.FileMode
}

// SplitFileResult describes the two finalized output files.
type SplitFileResult struct {
	PromptsPath    string
	PromptsWords   int
	ResponsesPath  string
	ResponsesWords int

	Exchanges  int
	Delimiters int
}

// SplitStats counts what RenderSplit emitted.
type SplitStats struct {
	Exchanges  int
	Delimiters int
}

// RenderSplit renders the prompts and responses documents for a segmented transcript.
// Every exchange contributes "text\n\n" to its stream; every delimiter is echoed unchanged,
// followed by a blank line, into both streams.
func RenderSplit(tokens []Token) (prompts, responses string, stats SplitStats) {
	var p, r strings.Builder
	for _, tok := range tokens {
		switch tok.Kind {
		case TokenDelimiter:
			p.WriteString(tok.Text)
			p.WriteString(blankLine)
			r.WriteString(tok.Text)
			r.WriteString(blankLine)
			stats.Delimiters++
		case TokenSegment:
			ex, ok := ExtractExchange(tok.Text)
			if !ok {
				continue
			}
			p.WriteString(ex.Prompt)
			p.WriteString(blankLine)
			r.WriteString(ex.Response)
			r.WriteString(blankLine)
			stats.Exchanges++
		}
	}
	return p.String(), r.String(), stats
}

// SplitMarkdown is Segment followed by RenderSplit.
func SplitMarkdown(doc string) (prompts, responses string, stats SplitStats) {
	return RenderSplit(Segment(doc))
}

// SplitMarkdownFile reads a markdown transcript, writes its prompts and responses to two
// files and renames each to embed its word count.
//
// Given name.md the intermediate files are name_prompts.md and name_responses.md; the final
// files are name_prompts_{N}_words.md and name_responses_{M}_words.md.
func SplitMarkdownFile(ctx context.Context, inputPath string, opts SplitFileOptions) (SplitFileResult, error) {
	if ctx == nil {
		return SplitFileResult{}, errors.New("SplitMarkdownFile: ctx is nil")
	}
	if inputPath == "" {
		return SplitFileResult{}, errors.New("SplitMarkdownFile: inputPath is empty")
	}
	if opts.FileMode == 0 {
		opts.FileMode = 0o644
	}

	b, err := os.ReadFile(inputPath)
	if err != nil {
		return SplitFileResult{}, fmt.Errorf("SplitMarkdownFile: read input: %w", err)
	}

	base := inputPath
	if opts.OutputDir != "" {
		base = filepath.Join(opts.OutputDir, filepath.Base(inputPath))
	}
	promptsPath := PromptsPath(base)
	responsesPath := ResponsesPath(base)

	prompts, responses, stats := SplitMarkdown(string(b))

	if err := ctx.Err(); err != nil {
		return SplitFileResult{}, err
	}

	if err := fileutils.WriteFileNoClobber(promptsPath, []byte(prompts), opts.FileMode, opts.Overwrite); err != nil {
		return SplitFileResult{}, fmt.Errorf("SplitMarkdownFile: write prompts: %w", err)
	}
	if err := fileutils.WriteFileNoClobber(responsesPath, []byte(responses), opts.FileMode, opts.Overwrite); err != nil {
		return SplitFileResult{}, fmt.Errorf("SplitMarkdownFile: write responses: %w", err)
	}

	res := SplitFileResult{
		Exchanges:  stats.Exchanges,
		Delimiters: stats.Delimiters,
	}
	res.PromptsPath, res.PromptsWords, err = FinalizeWordCount(promptsPath, opts.Overwrite)
	if err != nil {
		return SplitFileResult{}, fmt.Errorf("SplitMarkdownFile: finalize prompts: %w", err)
	}
	res.ResponsesPath, res.ResponsesWords, err = FinalizeWordCount(responsesPath, opts.Overwrite)
	if err != nil {
		return SplitFileResult{}, fmt.Errorf("SplitMarkdownFile: finalize responses: %w", err)
	}
	return res, nil
}
