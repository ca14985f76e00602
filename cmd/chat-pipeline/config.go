package main

import (
	"errors"
	"fmt"
)

var pipelineStages = []string{"convert", "split"}

type Config struct {
	ExportPath string
	OutputDir  string

	TitleModel string
	APIKey     string

	FromStage string
	OnlyStage string

	Overwrite bool
	Verbose   bool
}

func (c Config) Validate() error {
	if c.ExportPath == "" {
		return errors.New("missing input export path")
	}
	if c.OnlyStage != "" && c.FromStage != "" {
		return errors.New("use only one of -only-stage or -from-stage")
	}
	for _, s := range []string{c.OnlyStage, c.FromStage} {
		if s != "" && !knownStage(s) {
			return fmt.Errorf("unknown stage %q (want one of %v)", s, pipelineStages)
		}
	}
	return nil
}

func knownStage(s string) bool {
	for _, known := range pipelineStages {
		if s == known {
			return true
		}
	}
	return false
}

func defaultConfig() Config {
	return Config{
		ExportPath: "chat.json",
	}
}
