package main

import (
	"flag"
	"testing"
)

func TestParseFlags_Overrides(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("chunk-aggregator", flag.ContinueOnError)
	cfg, err := parseFlags(fs, []string{
		"-out", "data/analysis",
		"-allow-partial",
		"-overwrite",
	})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.OutDir != "data/analysis" {
		t.Fatalf("OutDir=%q", cfg.OutDir)
	}
	if !cfg.AllowPartial || !cfg.Overwrite {
		t.Fatalf("AllowPartial=%v Overwrite=%v", cfg.AllowPartial, cfg.Overwrite)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	if err := (Config{}).Validate(); err == nil {
		t.Fatalf("expected error")
	}
	if err := (Config{OutDir: "out"}).Validate(); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
}
