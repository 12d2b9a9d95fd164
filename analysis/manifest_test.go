package analysis

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteManifest_RoundTrip(t *testing.T) {
	t.Parallel()

	m := RunManifest{
		Version:       1,
		GeneratedAt:   "2026-08-30T12:00:00Z",
		RawDataDir:    "/data/raw",
		OutputDir:     "/data/out",
		ChunkSize:     100,
		MetadataLines: 20,
		Reference:     DefaultReference,
		Animals:       []string{"RAT1", "RAT2"},
		Stages: []StageRun{
			{Name: "clean", Outputs: 4},
			{Name: "split", Outputs: 8},
		},
	}

	path := filepath.Join(t.TempDir(), "manifest.json")
	if err := WriteManifest(path, m, true); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var got RunManifest
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ChunkSize != 100 || got.Reference != DefaultReference {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if len(got.Stages) != 2 || got.Stages[0].Name != "clean" {
		t.Fatalf("stages mismatch: %+v", got.Stages)
	}
}

func TestWriteManifest_EmptyPath(t *testing.T) {
	t.Parallel()

	if err := WriteManifest("", RunManifest{}, false); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestManifestSchema(t *testing.T) {
	t.Parallel()

	b, err := ManifestSchema()
	if err != nil {
		t.Fatalf("ManifestSchema: %v", err)
	}

	var schema map[string]any
	if err := json.Unmarshal(b, &schema); err != nil {
		t.Fatalf("schema is not valid JSON: %v", err)
	}
	for _, field := range []string{"chunk_size", "metadata_lines", "reference", "animals"} {
		if !strings.Contains(string(b), `"`+field+`"`) {
			t.Errorf("schema missing field %q", field)
		}
	}
}
