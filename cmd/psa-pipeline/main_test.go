package main

import (
	"flag"
	"reflect"
	"testing"

	"github.com/nocturnelab/psa/analysis"
)

func TestParseFlags_Overrides(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("psa-pipeline", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{
		"-raw", "data/raw",
		"-out", "data/analysis",
		"-chunk-size", "50",
		"-metadata-lines", "10",
		"-ref-condition", "test",
		"-ref-chunk", "1",
		"-allow-partial",
		"-workers", "8",
		"-xlsx", "data/analysis/profiles.xlsx",
		"-from-stage", "aggregate",
		"-overwrite",
		"-verbose",
	})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.RawDir != "data/raw" || cfg.OutDir != "data/analysis" {
		t.Fatalf("RawDir=%q OutDir=%q", cfg.RawDir, cfg.OutDir)
	}
	if cfg.ChunkSize != 50 || cfg.MetadataLines != 10 {
		t.Fatalf("ChunkSize=%d MetadataLines=%d", cfg.ChunkSize, cfg.MetadataLines)
	}
	if cfg.RefCondition != "test" || cfg.RefChunk != 1 {
		t.Fatalf("RefCondition=%q RefChunk=%d", cfg.RefCondition, cfg.RefChunk)
	}
	if !cfg.AllowPartial || !cfg.Overwrite || !cfg.Verbose {
		t.Fatalf("AllowPartial=%v Overwrite=%v Verbose=%v", cfg.AllowPartial, cfg.Overwrite, cfg.Verbose)
	}
	if cfg.Workers != 8 {
		t.Fatalf("Workers=%d", cfg.Workers)
	}
	if cfg.FromStage != "aggregate" {
		t.Fatalf("FromStage=%q", cfg.FromStage)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	if err := (Config{}).Validate(); err == nil {
		t.Fatalf("expected error for empty config")
	}
	if err := (Config{PrintSchema: true}).Validate(); err != nil {
		t.Fatalf("print-schema should not require other flags: %v", err)
	}

	good := defaultConfig()
	good.OutDir = "out"
	if err := good.Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	bad := good
	bad.FromStage = "chunk"
	bad.OnlyStage = "clean"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error when both stage selectors are set")
	}

	bad = good
	bad.OnlyStage = "garble"
	if err := bad.Validate(); err == nil {
		t.Fatalf("expected error for unknown stage")
	}
}

func TestSelectStages(t *testing.T) {
	t.Parallel()

	if got := selectStages(Config{OnlyStage: "normalize"}); !reflect.DeepEqual(got, []string{"normalize"}) {
		t.Fatalf("only-stage: %v", got)
	}
	if got := selectStages(Config{FromStage: "aggregate"}); !reflect.DeepEqual(got, []string{"aggregate", "normalize", "compile"}) {
		t.Fatalf("from-stage: %v", got)
	}
	if got := selectStages(Config{}); got != nil {
		t.Fatalf("default: %v, want nil (all stages)", got)
	}
}

func TestStagesFrom_UnknownFallsBackToAll(t *testing.T) {
	t.Parallel()

	got := stagesFrom(analysis.PipelineStages, "bogus")
	if !reflect.DeepEqual(got, analysis.PipelineStages) {
		t.Fatalf("got %v", got)
	}
}
