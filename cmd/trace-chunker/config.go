package main

import (
	"errors"

	"github.com/nocturnelab/psa/analysis"
)

type Config struct {
	OutDir    string
	ChunkSize int
	Overwrite bool
	Verbose   bool
}

func (c Config) Validate() error {
	if c.OutDir == "" {
		return errors.New("missing -out")
	}
	if c.ChunkSize <= 0 {
		return errors.New("chunk size must be > 0")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		ChunkSize: analysis.DefaultChunkSize,
	}
}
