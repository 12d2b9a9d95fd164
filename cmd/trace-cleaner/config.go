package main

import (
	"errors"

	"github.com/nocturnelab/psa/analysis"
)

type Config struct {
	RawDir        string
	OutDir        string
	MetadataLines int
	Overwrite     bool
	Verbose       bool
}

func (c Config) Validate() error {
	if c.RawDir == "" {
		return errors.New("missing -raw")
	}
	if c.OutDir == "" {
		return errors.New("missing -out")
	}
	if c.MetadataLines < 0 {
		return errors.New("metadata lines must be >= 0")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		MetadataLines: analysis.DefaultMetadataLines,
	}
}
