package services

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// csvTable is a header-indexed view over one published CSV file. The
// register CSVs vary their column sets between categories and publications,
// so every lookup is by name and degrades to empty/zero when absent.
type csvTable struct {
	cols map[string]int
	rows [][]string
}

func readCSVTable(path string) (*csvTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csv: read %q: %w", path, err)
	}
	if len(records) == 0 {
		return &csvTable{cols: map[string]int{}}, nil
	}

	cols := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		cols[strings.TrimSpace(name)] = i
	}

	return &csvTable{cols: cols, rows: records[1:]}, nil
}

func (t *csvTable) str(row []string, col string) string {
	i, ok := t.cols[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *csvTable) float(row []string, col string) float64 {
	s := t.str(row, col)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func (t *csvTable) int(row []string, col string) int {
	s := t.str(row, col)
	if s == "" {
		return 0
	}
	// Member IDs sometimes arrive as "4514.0" after spreadsheet round-trips.
	if dot := strings.Index(s, "."); dot >= 0 {
		s = s[:dot]
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func (t *csvTable) bool(row []string, col string) bool {
	s := strings.ToLower(t.str(row, col))
	return s == "true" || s == "1" || s == "yes"
}
