package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/qiniu/x/log"

	"github.com/theimaginaryfoundation/chat-transcripts/transcript"
)

func main() {
	cfg, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		flag.CommandLine.Usage()
		os.Exit(2)
	}
	if cfg.Verbose {
		log.SetOutputLevel(log.Ldebug)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := transcript.SplitMarkdownFile(ctx, cfg.InputPath, transcript.SplitFileOptions{
		OutputDir: cfg.OutputDir,
		Overwrite: cfg.Overwrite,
		FileMode:  0o644,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	log.Debugf("transcript-splitter: %s exchanges=%d delimiters=%d", cfg.InputPath, res.Exchanges, res.Delimiters)
	if res.Exchanges == 0 {
		log.Warnf("transcript-splitter: no **prompt** spans found in %s", cfg.InputPath)
	}

	fmt.Fprintf(os.Stdout, "prompts=%s prompts_words=%d responses=%s responses_words=%d\n",
		res.PromptsPath, res.PromptsWords, res.ResponsesPath, res.ResponsesWords)
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.InputPath, "in", cfg.InputPath, "Markdown transcript to split (may also be given as the only argument)")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Directory for the prompts/responses files (defaults to the input's directory)")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite existing output files")
	fs.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags] <input.md>\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExamples:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/transcript-splitter chat.json.md")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/transcript-splitter -out split -overwrite notes/session.md")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	switch {
	case fs.NArg() > 1:
		return Config{}, fmt.Errorf("expected one input file, got %d", fs.NArg())
	case fs.NArg() == 1 && cfg.InputPath != "":
		return Config{}, fmt.Errorf("input given twice: -in %s and %s", cfg.InputPath, fs.Arg(0))
	case fs.NArg() == 1:
		cfg.InputPath = fs.Arg(0)
	}

	if cfg.InputPath != "" {
		cfg.InputPath = filepath.Clean(cfg.InputPath)
	}
	if cfg.OutputDir != "" {
		cfg.OutputDir = filepath.Clean(cfg.OutputDir)
	}
	return cfg, nil
}
