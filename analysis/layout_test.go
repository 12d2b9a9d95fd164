package analysis

import (
	"path/filepath"
	"testing"
)

func TestLayout_Paths(t *testing.T) {
	t.Parallel()

	l := Layout{RawDir: "/data/raw", OutDir: "/data/out"}

	cases := []struct {
		got  string
		want string
	}{
		{l.CleanedPath("RAT1", ConditionBaseline, "Traces_cFFT"), "/data/out/input/RAT1/baseline/Traces_cFFT_cleaned.csv"},
		{l.StagePath("RAT1", StageREM, ConditionTest, "Traces_cFFT"), "/data/out/RAT1/rem/original/test/Traces_cFFT_rem.csv"},
		{l.ChunkPath("RAT1", StageNREM, ConditionBaseline, "Traces_cFFT", 3), "/data/out/RAT1/nrem/chunked/Traces_cFFT_baseline_03.csv"},
		{l.RawChunkPath("RAT1", StageREM, 0), "/data/out/RAT1/rem/chunked/chunk_00_raw.csv"},
		{l.NormChunkPath("RAT1", StageREM, 12), "/data/out/RAT1/rem/chunked/chunk_12_norm.csv"},
		{l.CompiledChunkPath(StageNREM, 7), "/data/out/compiled/nrem/chunk_07.csv"},
		{l.ManifestPath(), "/data/out/manifest.json"},
	}
	for _, c := range cases {
		if c.got != filepath.FromSlash(c.want) {
			t.Errorf("got %q, want %q", c.got, c.want)
		}
	}
}

func TestParseChunkFileName(t *testing.T) {
	t.Parallel()

	stem, cond, idx, ok := ParseChunkFileName("Traces_cFFT_baseline_04.csv")
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	if stem != "Traces_cFFT" || cond != ConditionBaseline || idx != 4 {
		t.Fatalf("got (%q, %q, %d)", stem, cond, idx)
	}

	for _, bad := range []string{
		"Traces_cFFT_baseline_4.csv", // index not zero-padded
		"Traces_cFFT_control_04.csv", // unknown condition
		"chunk_04_raw.csv",
		"Traces_cFFT.csv",
	} {
		if _, _, _, ok := ParseChunkFileName(bad); ok {
			t.Errorf("ParseChunkFileName(%q) unexpectedly succeeded", bad)
		}
	}
}

func TestParseChunkFileName_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, idx := range []int{0, 9, 10, 42, 100} {
		name := ChunkFileName("Traces_cFFT", ConditionTest, idx)
		stem, cond, got, ok := ParseChunkFileName(name)
		if !ok || stem != "Traces_cFFT" || cond != ConditionTest || got != idx {
			t.Errorf("round trip failed for index %d: %q -> (%q, %q, %d, %v)", idx, name, stem, cond, got, ok)
		}
	}
}

func TestParseCombinedFileName(t *testing.T) {
	t.Parallel()

	idx, kind, ok := ParseCombinedFileName("chunk_03_norm.csv")
	if !ok || idx != 3 || kind != "norm" {
		t.Fatalf("got (%d, %q, %v)", idx, kind, ok)
	}

	for _, bad := range []string{
		"chunk_03_cooked.csv",
		"chunk_3_raw.csv",
		"Traces_cFFT_baseline_03.csv",
	} {
		if _, _, ok := ParseCombinedFileName(bad); ok {
			t.Errorf("ParseCombinedFileName(%q) unexpectedly succeeded", bad)
		}
	}
}
