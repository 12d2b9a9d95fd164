package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/invopop/jsonschema"
)

// RunManifest records what a pipeline run produced, for downstream tooling
// and for auditing which parameters generated a result set.
type RunManifest struct {
	Version       int    `json:"version"`
	GeneratedAt   string `json:"generated_at"`
	RawDataDir    string `json:"raw_data_dir"`
	OutputDir     string `json:"output_dir"`
	ChunkSize     int    `json:"chunk_size"`
	MetadataLines int    `json:"metadata_lines"`

	Reference ChunkRef `json:"reference"`

	Animals []string       `json:"animals"`
	Stages  []StageRun     `json:"stages"`
	Results []AnimalResult `json:"results,omitempty"`
}

// StageRun summarizes one pipeline stage.
type StageRun struct {
	Name    string `json:"name"`
	Outputs int    `json:"outputs"`
}

// AnimalResult summarizes one animal's processed stages.
type AnimalResult struct {
	Animal string        `json:"animal"`
	Stages []StageResult `json:"stages"`
}

// StageResult summarizes one (animal, sleep stage) tuple.
type StageResult struct {
	Stage          string `json:"stage"`
	BaselineEpochs int    `json:"baseline_epochs"`
	TestEpochs     int    `json:"test_epochs"`
	Chunks         int    `json:"chunks"`
	Skipped        bool   `json:"skipped,omitempty"`
}

// WriteManifest writes the manifest JSON atomically.
func WriteManifest(path string, m RunManifest, pretty bool) error {
	if path == "" {
		return errors.New("WriteManifest: path is empty")
	}
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(m, "", "  ")
	} else {
		b, err = json.Marshal(m)
	}
	if err != nil {
		return fmt.Errorf("WriteManifest: marshal: %w", err)
	}
	if _, err := writeFileAtomic(filepath.Dir(path), path, b, 0o644); err != nil {
		return fmt.Errorf("WriteManifest: write: %w", err)
	}
	return nil
}

// ManifestSchema returns the JSON schema for RunManifest, so external
// consumers can validate manifests without importing this package.
func ManifestSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		DoNotReference:             true,
		RequiredFromJSONSchemaTags: true,
	}
	schema := reflector.Reflect(&RunManifest{})
	b, err := schema.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("ManifestSchema: marshal: %w", err)
	}
	var indented json.RawMessage = b
	out, err := json.MarshalIndent(indented, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("ManifestSchema: indent: %w", err)
	}
	return append(out, '\n'), nil
}
