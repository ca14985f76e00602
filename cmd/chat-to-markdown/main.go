package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/qiniu/x/log"

	"github.com/theimaginaryfoundation/chat-transcripts/transcript"
	"github.com/theimaginaryfoundation/chat-transcripts/transcript/provider"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if cfg.Verbose {
		log.SetOutputLevel(log.Ldebug)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	titler, err := newTitler(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	res, outPath, err := transcript.ConvertExportFile(ctx, cfg.InputPath, transcript.ConvertFileOptions{
		ConvertOptions: transcript.ConvertOptions{Titler: titler},
		OutputPath:     cfg.OutputPath,
		Overwrite:      cfg.Overwrite,
		FileMode:       0o644,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	logConvertResult(cfg.InputPath, res)

	fmt.Fprintf(os.Stdout, "requests_written=%d requests_skipped=%d out=%s\n",
		res.RequestsWritten, res.RequestsCanceled+res.RequestsEmpty, outPath)
}

func logConvertResult(inputPath string, res transcript.ConvertResult) {
	if res.TitleErr != nil {
		log.Warnf("chat-to-markdown: title suggestion failed for %s, writing without heading: %v", inputPath, res.TitleErr)
	}
	if res.TitleSource != transcript.TitleNone {
		log.Debugf("chat-to-markdown: heading %q (source=%s)", res.Title, res.TitleSource)
	}
	log.Debugf("chat-to-markdown: %s written=%d canceled=%d empty=%d",
		inputPath, res.RequestsWritten, res.RequestsCanceled, res.RequestsEmpty)
}

// newTitler returns nil when -title-model is unset, so conversion stays offline by default.
func newTitler(cfg Config) (transcript.Titler, error) {
	if cfg.TitleModel == "" {
		return nil, nil
	}
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, errors.New("-title-model needs OPENAI_API_KEY (or pass -api-key)")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	log.Infof("chat-to-markdown: missing titles will be suggested by %s", cfg.TitleModel)
	return provider.NewOpenAITitler(&client, cfg.TitleModel), nil
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.OutputPath, "out", cfg.OutputPath, "Markdown output path (defaults to <input>.md)")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite an existing markdown file")
	fs.StringVar(&cfg.TitleModel, "title-model", "", "OpenAI model used to suggest a heading when the export has no followup title (empty = never)")
	fs.StringVar(&cfg.APIKey, "api-key", "", "OpenAI API key (overrides OPENAI_API_KEY env var)")
	fs.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags] [input.json]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExamples:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/chat-to-markdown")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/chat-to-markdown -overwrite exports/session.json")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	switch fs.NArg() {
	case 0:
	case 1:
		cfg.InputPath = fs.Arg(0)
	default:
		return Config{}, fmt.Errorf("expected at most one input file, got %d", fs.NArg())
	}

	cfg.InputPath = filepath.Clean(cfg.InputPath)
	if cfg.OutputPath != "" {
		cfg.OutputPath = filepath.Clean(cfg.OutputPath)
	}
	return cfg, nil
}
