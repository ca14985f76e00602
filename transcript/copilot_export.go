package transcript

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/theimaginaryfoundation/chat-transcripts/transcript/fileutils"
)

// ExchangeDelimiter is the horizontal rule written after every converted request.
const ExchangeDelimiter = "-----------------------------------"

// Titler proposes a heading for an exported session that carries no followup title.
type Titler interface {
	SuggestTitle(ctx context.Context, firstMessage string) (string, error)
}

// TitleSource records where the markdown heading came from.
type TitleSource string

const (
	TitleNone     TitleSource = ""
	TitleFollowup TitleSource = "followup"
	TitleTitler   TitleSource = "titler"
)

// ConvertOptions controls ConvertExport.
type ConvertOptions struct {
	// Titler is consulted only when the first non-cancelled request has no followup title.
	// Nil disables it.
	Titler Titler
}

// ConvertResult contains basic stats from a conversion.
type ConvertResult struct {
	RequestsWritten  int
	RequestsCanceled int
	RequestsEmpty    int

	Title       string
	TitleSource TitleSource

	// TitleErr is set when the Titler failed. It is not fatal: the document is written
	// without a heading.
	TitleErr error
}

// ConvertFileOptions controls ConvertExportFile.
type ConvertFileOptions struct {
	ConvertOptions

	// OutputPath overrides the default "<input>.md".
	OutputPath string

	// Overwrite controls whether an existing output file may be replaced.
	Overwrite bool

	// FileMode is used when creating the output file (defaults to 0o644).
	FileMode fs.FileMode
}

// ConvertExport renders a VS Code Copilot Chat session export as a markdown transcript.
//
// Each non-cancelled request with a message becomes:
//
//	**message**
//
//	response fragment
//
//	-----------------------------------
//
// The first non-cancelled request may also contribute a "# title" heading, taken from its
// first followup title or, failing that, from opts.Titler.
func ConvertExport(ctx context.Context, data []byte, opts ConvertOptions) (ConvertResult, string, error) {
	if ctx == nil {
		return ConvertResult{}, "", errors.New("ConvertExport: ctx is nil")
	}
	if !gjson.ValidBytes(data) {
		return ConvertResult{}, "", errors.New("ConvertExport: input is not valid JSON")
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return ConvertResult{}, "", fmt.Errorf("ConvertExport: expected top-level JSON object, got %s", root.Type)
	}

	var (
		res          ConvertResult
		b            strings.Builder
		titleDecided bool
	)

	for _, req := range root.Get("requests").Array() {
		if err := ctx.Err(); err != nil {
			return ConvertResult{}, "", err
		}
		if req.Get("isCanceled").Bool() {
			res.RequestsCanceled++
			continue
		}

		message := req.Get("message.text").String()

		if !titleDecided {
			titleDecided = true
			decideTitle(ctx, req, message, opts.Titler, &res)
			if res.Title != "" {
				fmt.Fprintf(&b, "# %s\n\n", res.Title)
			}
		}

		if message == "" {
			res.RequestsEmpty++
			continue
		}

		fmt.Fprintf(&b, "**%s**\n\n", message)
		for _, frag := range req.Get("response").Array() {
			v := frag.Get("value")
			if v.Type != gjson.String || v.Str == "" {
				continue
			}
			b.WriteString(v.Str)
			b.WriteString(blankLine)
		}
		b.WriteString(ExchangeDelimiter)
		b.WriteString(blankLine)
		res.RequestsWritten++
	}

	return res, b.String(), nil
}

func decideTitle(ctx context.Context, req gjson.Result, message string, titler Titler, res *ConvertResult) {
	if title := fileutils.SingleLine(req.Get("followups.0.title").String()); title != "" {
		res.Title = title
		res.TitleSource = TitleFollowup
		return
	}
	if titler == nil || strings.TrimSpace(message) == "" {
		return
	}
	title, err := titler.SuggestTitle(ctx, message)
	if err != nil {
		res.TitleErr = err
		return
	}
	if title = fileutils.SingleLine(title); title != "" {
		res.Title = title
		res.TitleSource = TitleTitler
	}
}

// ConvertExportFile reads an export file, converts it and writes the markdown next to it
// (or to opts.OutputPath). It returns the conversion stats and the path written.
func ConvertExportFile(ctx context.Context, inputPath string, opts ConvertFileOptions) (ConvertResult, string, error) {
	if inputPath == "" {
		return ConvertResult{}, "", errors.New("ConvertExportFile: inputPath is empty")
	}
	outPath := opts.OutputPath
	if outPath == "" {
		outPath = MarkdownPath(inputPath)
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return ConvertResult{}, "", fmt.Errorf("ConvertExportFile: read input: %w", err)
	}

	res, doc, err := ConvertExport(ctx, data, opts.ConvertOptions)
	if err != nil {
		return ConvertResult{}, "", fmt.Errorf("ConvertExportFile: %s: %w", inputPath, err)
	}

	if err := fileutils.WriteFileNoClobber(outPath, []byte(doc), opts.FileMode, opts.Overwrite); err != nil {
		return ConvertResult{}, "", fmt.Errorf("ConvertExportFile: write output: %w", err)
	}
	return res, outPath, nil
}
