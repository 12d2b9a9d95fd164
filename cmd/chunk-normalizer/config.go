package main

import (
	"errors"

	"github.com/nocturnelab/psa/analysis"
)

type Config struct {
	OutDir       string
	RefCondition string
	RefChunk     int
	Overwrite    bool
	Verbose      bool
}

func (c Config) Validate() error {
	if c.OutDir == "" {
		return errors.New("missing -out")
	}
	if _, err := analysis.ParseCondition(c.RefCondition); err != nil {
		return err
	}
	if c.RefChunk < 0 {
		return errors.New("reference chunk must be >= 0")
	}
	return nil
}

func defaultConfig() Config {
	return Config{
		RefCondition: string(analysis.DefaultReference.Condition),
		RefChunk:     analysis.DefaultReference.Index,
	}
}
