package main

import (
	"errors"
)

type Config struct {
	InputPath string
	OutputDir string
	Overwrite bool
	Verbose   bool
}

func (c Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("missing input markdown file")
	}
	return nil
}

func defaultConfig() Config {
	return Config{}
}
