package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/qiniu/x/log"

	"github.com/theimaginaryfoundation/chat-transcripts/transcript"
	"github.com/theimaginaryfoundation/chat-transcripts/transcript/fileutils"
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

	if err := run(ctx, cfg, titler); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// run executes the selected stages in order. The split stage always reads the converter's
// output path, whether or not convert ran in this invocation.
func run(ctx context.Context, cfg Config, titler transcript.Titler) error {
	stages := pipelineStages
	if cfg.OnlyStage != "" {
		stages = []string{cfg.OnlyStage}
	} else if cfg.FromStage != "" {
		stages = stagesFrom(stages, cfg.FromStage)
	}

	markdownPath := transcript.MarkdownPath(cfg.ExportPath)
	if cfg.OutputDir != "" {
		markdownPath = filepath.Join(cfg.OutputDir, filepath.Base(markdownPath))
	}

	for _, stage := range stages {
		start := time.Now()
		switch stage {
		case "convert":
			if !cfg.Overwrite && fileutils.FileExists(markdownPath) {
				fmt.Fprintln(os.Stdout, "skip convert: markdown already exists:", markdownPath)
				continue
			}
			res, out, err := transcript.ConvertExportFile(ctx, cfg.ExportPath, transcript.ConvertFileOptions{
				ConvertOptions: transcript.ConvertOptions{Titler: titler},
				OutputPath:     markdownPath,
				Overwrite:      cfg.Overwrite,
			})
			if err != nil {
				return fmt.Errorf("convert: %w", err)
			}
			if res.TitleErr != nil {
				log.Warnf("chat-pipeline: title suggestion failed, writing without heading: %v", res.TitleErr)
			}
			fmt.Fprintf(os.Stdout, "ok: convert requests_written=%d out=%s (%s)\n",
				res.RequestsWritten, out, time.Since(start).Round(time.Millisecond))
		case "split":
			res, err := transcript.SplitMarkdownFile(ctx, markdownPath, transcript.SplitFileOptions{
				Overwrite: cfg.Overwrite,
			})
			if err != nil {
				return fmt.Errorf("split: %w", err)
			}
			log.Debugf("chat-pipeline: split exchanges=%d delimiters=%d", res.Exchanges, res.Delimiters)
			fmt.Fprintf(os.Stdout, "ok: split prompts=%s responses=%s (%s)\n",
				res.PromptsPath, res.ResponsesPath, time.Since(start).Round(time.Millisecond))
		default:
			return fmt.Errorf("unknown stage: %s", stage)
		}
	}
	return nil
}

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
	return provider.NewOpenAITitler(&client, cfg.TitleModel), nil
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.OutputDir, "out", "", "Directory for all outputs (defaults to the export's directory)")
	fs.StringVar(&cfg.TitleModel, "title-model", "", "OpenAI model used to suggest a heading when the export has no followup title")
	fs.StringVar(&cfg.APIKey, "api-key", "", "OpenAI API key (overrides OPENAI_API_KEY env var)")
	fs.StringVar(&cfg.FromStage, "from-stage", "", "Start at stage: convert|split")
	fs.StringVar(&cfg.OnlyStage, "only-stage", "", "Run only one stage: convert|split")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite existing outputs")
	fs.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags] [input.json]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	switch fs.NArg() {
	case 0:
	case 1:
		cfg.ExportPath = fs.Arg(0)
	default:
		return Config{}, fmt.Errorf("expected at most one input file, got %d", fs.NArg())
	}

	cfg.ExportPath = filepath.Clean(cfg.ExportPath)
	if cfg.OutputDir != "" {
		cfg.OutputDir = filepath.Clean(cfg.OutputDir)
	}
	cfg.FromStage = strings.ToLower(strings.TrimSpace(cfg.FromStage))
	cfg.OnlyStage = strings.ToLower(strings.TrimSpace(cfg.OnlyStage))
	return cfg, nil
}

func stagesFrom(stages []string, from string) []string {
	from = strings.ToLower(strings.TrimSpace(from))
	for i, s := range stages {
		if s == from {
			return stages[i:]
		}
	}
	return stages
}
