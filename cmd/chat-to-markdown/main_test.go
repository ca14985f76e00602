package main

import (
	"flag"
	"io"
	"testing"
)

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("chat-to-markdown", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func TestParseFlags_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := parseFlags(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.InputPath != "chat.json" {
		t.Fatalf("InputPath=%q, want chat.json", cfg.InputPath)
	}
	if cfg.TitleModel != "" {
		t.Fatalf("TitleModel=%q, want empty", cfg.TitleModel)
	}
}

func TestParseFlags_Overrides(t *testing.T) {
	t.Parallel()

	cfg, err := parseFlags(newFlagSet(), []string{
		"-out", "md/session.md",
		"-overwrite",
		"-title-model", "gpt-5-mini",
		"-api-key", "k",
		"-v",
		"exports/session.json",
	})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.InputPath != "exports/session.json" {
		t.Fatalf("InputPath=%q", cfg.InputPath)
	}
	if cfg.OutputPath != "md/session.md" {
		t.Fatalf("OutputPath=%q", cfg.OutputPath)
	}
	if !cfg.Overwrite || !cfg.Verbose {
		t.Fatalf("Overwrite=%v Verbose=%v", cfg.Overwrite, cfg.Verbose)
	}
	if cfg.TitleModel != "gpt-5-mini" || cfg.APIKey != "k" {
		t.Fatalf("TitleModel=%q APIKey=%q", cfg.TitleModel, cfg.APIKey)
	}

	if _, err := parseFlags(newFlagSet(), []string{"a.json", "b.json"}); err == nil {
		t.Fatalf("expected error for two inputs")
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	if err := (Config{}).Validate(); err == nil {
		t.Fatalf("expected error for empty config")
	}
	if err := (Config{InputPath: "chat.json", OutputPath: "chat.json"}).Validate(); err == nil {
		t.Fatalf("expected error when output would replace input")
	}
	if err := defaultConfig().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNewTitler(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	titler, err := newTitler(Config{})
	if err != nil || titler != nil {
		t.Fatalf("titler=%v err=%v, want nil/nil without -title-model", titler, err)
	}
	if _, err := newTitler(Config{TitleModel: "gpt-5-mini"}); err == nil {
		t.Fatalf("expected error without an API key")
	}
	titler, err = newTitler(Config{TitleModel: "gpt-5-mini", APIKey: "k"})
	if err != nil || titler == nil {
		t.Fatalf("titler=%v err=%v, want a titler", titler, err)
	}
}
