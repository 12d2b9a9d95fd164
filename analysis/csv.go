package analysis

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
)

func readCSVRecords(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	// Exported traces occasionally carry ragged trailing lines; width is
	// validated downstream against the header instead.
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

func encodeCSV(records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCSVAtomic(path string, records [][]string, mode fs.FileMode) error {
	b, err := encodeCSV(records)
	if err != nil {
		return fmt.Errorf("encode csv: %w", err)
	}
	if _, err := writeFileAtomic(filepath.Dir(path), path, b, mode); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// writeFileAtomic writes data to a temp file in tmpDir and renames it into
// place, so readers never observe a partially written table.
func writeFileAtomic(tmpDir, finalPath string, data []byte, mode fs.FileMode) (int64, error) {
	if mode == 0 {
		mode = 0o644
	}
	if err := os.MkdirAll(filepath.Dir(finalPath), 0o755); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(tmpDir, "psa_*.tmp")
	if err != nil {
		return 0, err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		return 0, err
	}

	n, err := tmp.Write(data)
	if err != nil {
		_ = tmp.Close()
		return int64(n), err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return int64(n), err
	}
	if err := tmp.Close(); err != nil {
		return int64(n), err
	}

	if err := os.Rename(tmpName, finalPath); err != nil {
		return int64(n), err
	}
	return int64(n), nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func formatPower(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parsePower(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
