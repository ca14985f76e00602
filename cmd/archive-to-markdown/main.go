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
		os.Exit(2)
	}
	if cfg.Verbose {
		log.SetOutputLevel(log.Ldebug)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := transcript.ConvertChatGPTArchive(ctx, cfg.InputPath, cfg.OutputDir, transcript.ArchiveOptions{
		ArrayField: cfg.ArrayField,
		Overwrite:  cfg.Overwrite,
		FileMode:   0o644,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	for _, p := range res.Paths {
		log.Debugf("archive-to-markdown: wrote %s", p)
	}
	if res.ConversationsWritten == 0 {
		log.Warnf("archive-to-markdown: no conversations found in %s", cfg.InputPath)
	}

	fmt.Fprintf(os.Stdout, "conversations_written=%d turns_written=%d out_dir=%s\n", res.ConversationsWritten, res.TurnsWritten, cfg.OutputDir)
}

func parseFlags(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := defaultConfig()
	fs.SetOutput(os.Stderr)

	fs.StringVar(&cfg.InputPath, "in", cfg.InputPath, "Path to conversations.json (OpenAI export)")
	fs.StringVar(&cfg.OutputDir, "out", cfg.OutputDir, "Directory to write one markdown transcript per conversation into")
	fs.BoolVar(&cfg.Overwrite, "overwrite", false, "Overwrite existing markdown files")
	fs.StringVar(&cfg.ArrayField, "array-field", "", "If top-level JSON is an object, name of field containing conversations array (e.g. conversations)")
	fs.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage:\n  %s [flags]\n\nFlags:\n", filepath.Base(os.Args[0]))
		fs.PrintDefaults()
		fmt.Fprintln(fs.Output(), "\nExamples:")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/archive-to-markdown -overwrite")
		fmt.Fprintln(fs.Output(), "  go run ./cmd/archive-to-markdown -in exports/conversations.json -out exports/md")
	}

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() != 0 {
		return Config{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	cfg.InputPath = filepath.Clean(cfg.InputPath)
	cfg.OutputDir = filepath.Clean(cfg.OutputDir)
	return cfg, nil
}
