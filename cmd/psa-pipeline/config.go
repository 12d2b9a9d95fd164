package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nocturnelab/psa/analysis"
)

type Config struct {
	RawDir string
	OutDir string

	ChunkSize     int
	MetadataLines int

	RefCondition string
	RefChunk     int
	AllowPartial bool

	Workers int

	WorkbookPath string

	FromStage string
	OnlyStage string

	Overwrite   bool
	Verbose     bool
	PrintSchema bool
}

func (c Config) Validate() error {
	if c.PrintSchema {
		return nil
	}
	if c.OutDir == "" {
		return errors.New("missing -out")
	}
	if c.ChunkSize <= 0 {
		return errors.New("chunk size must be > 0")
	}
	if c.MetadataLines < 0 {
		return errors.New("metadata lines must be >= 0")
	}
	if _, err := analysis.ParseCondition(c.RefCondition); err != nil {
		return err
	}
	if c.RefChunk < 0 {
		return errors.New("reference chunk must be >= 0")
	}
	if c.FromStage != "" && c.OnlyStage != "" {
		return errors.New("-from-stage and -only-stage are mutually exclusive")
	}
	for _, s := range []string{c.FromStage, c.OnlyStage} {
		if s != "" && !knownStage(s) {
			return fmt.Errorf("unknown stage %q (stages: %s)", s, strings.Join(analysis.PipelineStages, "|"))
		}
	}
	return nil
}

func knownStage(name string) bool {
	for _, s := range analysis.PipelineStages {
		if s == name {
			return true
		}
	}
	return false
}

func defaultConfig() Config {
	return Config{
		ChunkSize:     analysis.DefaultChunkSize,
		MetadataLines: analysis.DefaultMetadataLines,
		RefCondition:  string(analysis.DefaultReference.Condition),
		RefChunk:      analysis.DefaultReference.Index,
		Workers:       4,
	}
}
