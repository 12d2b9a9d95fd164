package analysis

import (
	"fmt"
	"strings"
)

// Stage is a sleep-state label as scored in the trace export.
type Stage string

const (
	StageREM  Stage = "R"
	StageNREM Stage = "NR"
	StageWake Stage = "W"
)

// DirName returns the directory segment used for a stage's outputs.
func (s Stage) DirName() string {
	switch s {
	case StageREM:
		return "rem"
	case StageNREM:
		return "nrem"
	case StageWake:
		return "wake"
	default:
		return strings.ToLower(string(s))
	}
}

// ParseStage validates a raw stage label.
func ParseStage(label string) (Stage, error) {
	switch Stage(strings.TrimSpace(label)) {
	case StageREM:
		return StageREM, nil
	case StageNREM:
		return StageNREM, nil
	case StageWake:
		return StageWake, nil
	default:
		return "", fmt.Errorf("ParseStage: label %q: %w", label, ErrMalformedInput)
	}
}

// Condition identifies the recording session of a trace.
type Condition string

const (
	ConditionBaseline Condition = "baseline"
	ConditionTest     Condition = "test"
)

// Conditions lists the recognized session conditions in a fixed order.
var Conditions = []Condition{ConditionBaseline, ConditionTest}

// ParseCondition validates a session directory name.
func ParseCondition(name string) (Condition, error) {
	switch Condition(strings.ToLower(strings.TrimSpace(name))) {
	case ConditionBaseline:
		return ConditionBaseline, nil
	case ConditionTest:
		return ConditionTest, nil
	default:
		return "", fmt.Errorf("ParseCondition: session %q: %w", name, ErrMalformedInput)
	}
}

// TraceTable is a cleaned trace CSV exactly as it sits on disk: one row per
// field (EpochNo, Stage, Time, then one row per frequency bin), one column
// per epoch. Header holds the epoch identifiers from the first CSV line;
// Rows[i][0] names the field and Rows[i][1:] carry its per-epoch values.
type TraceTable struct {
	Header []string
	Rows   [][]string
}

// Epochs reports the number of epoch columns in the table.
func (t TraceTable) Epochs() int {
	if len(t.Header) == 0 {
		return 0
	}
	return len(t.Header) - 1
}

// LabelConfig pins down where the stage label and the non-frequency fields
// live, so the preprocessor never has to guess from file layout.
type LabelConfig struct {
	// LabelField is the field row holding stage labels (default "Stage").
	LabelField string

	// MetaFields are field rows carried through unaggregated, such as the
	// epoch number and clock time. Every remaining field is treated as a
	// frequency bin and must parse as a float.
	MetaFields []string
}

// DefaultLabelConfig matches the acquisition software's export layout.
func DefaultLabelConfig() LabelConfig {
	return LabelConfig{
		LabelField: "Stage",
		MetaFields: []string{"EpochNo", "Time"},
	}
}

func (c LabelConfig) isMeta(field string) bool {
	for _, m := range c.MetaFields {
		if m == field {
			return true
		}
	}
	return false
}

// Epoch is one time-scored row of spectral power values.
type Epoch struct {
	Meta  []string // values for StageTable.Meta, in order
	Stage Stage
	Power []float64 // values for StageTable.Freqs, in order
}

// StageTable holds the epochs of a single sleep stage in chronological
// order, with frequency bins as columns.
type StageTable struct {
	Stage  Stage
	Meta   []string // non-frequency field names
	Freqs  []string // frequency bin labels
	Epochs []Epoch
}

// Chunk is a contiguous run of epochs within one stage, numbered from 0.
type Chunk struct {
	Index  int
	Stage  Stage
	Meta   []string
	Freqs  []string
	Epochs []Epoch
}

// AggregateRow is one chunk's per-frequency mean profile for one condition.
type AggregateRow struct {
	Condition  Condition
	ChunkIndex int
	Values     []float64 // parallel to CombinedTable.Freqs
}

// CombinedTable merges baseline and test aggregate rows. Rows are ordered
// by chunk index with baseline before test, so output is deterministic.
type CombinedTable struct {
	Freqs []string
	Rows  []AggregateRow
}

// ChunkRef identifies one row of a combined table, used as the
// normalization reference.
type ChunkRef struct {
	Condition Condition `json:"condition"`
	Index     int       `json:"index"`
}

// DefaultReference is the first baseline chunk ("BL1").
var DefaultReference = ChunkRef{Condition: ConditionBaseline, Index: 0}

func (r ChunkRef) String() string {
	return fmt.Sprintf("%s/%d", r.Condition, r.Index)
}
