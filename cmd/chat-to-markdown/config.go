package main

import (
	"errors"
)

type Config struct {
	InputPath  string
	OutputPath string
	Overwrite  bool
	TitleModel string
	APIKey     string
	Verbose    bool
}

func (c Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("missing input path")
	}
	if c.OutputPath != "" && c.OutputPath == c.InputPath {
		return errors.New("-out must differ from the input path")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		InputPath: "chat.json",
	}
}
