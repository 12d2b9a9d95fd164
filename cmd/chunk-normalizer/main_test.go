package main

import (
	"flag"
	"testing"
)

func TestParseFlags_Overrides(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("chunk-normalizer", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{
		"-out", "data/analysis",
		"-ref-condition", "test",
		"-ref-chunk", "2",
		"-overwrite",
	})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.OutDir != "data/analysis" {
		t.Fatalf("OutDir=%q", cfg.OutDir)
	}
	if cfg.RefCondition != "test" || cfg.RefChunk != 2 {
		t.Fatalf("RefCondition=%q RefChunk=%d", cfg.RefCondition, cfg.RefChunk)
	}
	if !cfg.Overwrite {
		t.Fatalf("Overwrite=%v", cfg.Overwrite)
	}
}

func TestParseFlags_DefaultReference(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("chunk-normalizer", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{"-out", "x"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.RefCondition != "baseline" || cfg.RefChunk != 0 {
		t.Fatalf("RefCondition=%q RefChunk=%d, want baseline 0", cfg.RefCondition, cfg.RefChunk)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	if err := (Config{}).Validate(); err == nil {
		t.Fatalf("expected error")
	}
	if err := (Config{OutDir: "out", RefCondition: "control"}).Validate(); err == nil {
		t.Fatalf("expected error for unknown condition")
	}
	if err := (Config{OutDir: "out", RefCondition: "baseline", RefChunk: -1}).Validate(); err == nil {
		t.Fatalf("expected error for negative chunk index")
	}
	if err := (Config{OutDir: "out", RefCondition: "baseline"}).Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}
