package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SourceUpdate records the last successful refresh of one data source.
// Interests refreshes also carry the register publication they landed.
type SourceUpdate struct {
	Datetime        string `json:"datetime"`
	PublicationID   int    `json:"publication_id,omitempty"`
	PublicationDate string `json:"publication_date,omitempty"`
}

// LastUpdates tracks refresh bookkeeping across acquisition runs. The
// timestamps bound open-ended recurring-payment windows during analysis.
type LastUpdates struct {
	path    string
	Sources map[string]SourceUpdate
}

// UpdateTimestampLayout is the archive-folder-safe datetime form.
const UpdateTimestampLayout = "2006-01-02T15_04_05"

// LoadLastUpdates reads the bookkeeping file; a missing file yields an
// empty record, not an error.
func LoadLastUpdates(path string) (*LastUpdates, error) {
	lu := &LastUpdates{path: path, Sources: make(map[string]SourceUpdate)}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return lu, nil
	}
	if err != nil {
		return nil, fmt.Errorf("archive: read %q: %w", path, err)
	}

	if err := json.Unmarshal(raw, &lu.Sources); err != nil {
		return nil, fmt.Errorf("archive: parse %q: %w", path, err)
	}
	return lu, nil
}

// Set records a refresh for one source and persists the file.
func (lu *LastUpdates) Set(source string, update SourceUpdate) error {
	lu.Sources[source] = update

	raw, err := json.MarshalIndent(lu.Sources, "", "    ")
	if err != nil {
		return fmt.Errorf("archive: marshal updates: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(lu.path), 0755); err != nil {
		return fmt.Errorf("archive: create dir: %w", err)
	}
	if err := os.WriteFile(lu.path, raw, 0644); err != nil {
		return fmt.Errorf("archive: write %q: %w", lu.path, err)
	}
	return nil
}

// RefreshDate returns the date part (YYYY-MM-DD) of a source's last
// refresh, or fallback when the source was never refreshed.
func (lu *LastUpdates) RefreshDate(source, fallback string) string {
	u, ok := lu.Sources[source]
	if !ok || len(u.Datetime) < 10 {
		return fallback
	}
	return u.Datetime[:10]
}

// MostRecent returns the latest refresh datetime across all sources.
func (lu *LastUpdates) MostRecent() string {
	most := ""
	for _, u := range lu.Sources {
		if u.Datetime > most {
			most = u.Datetime
		}
	}
	return most
}

// UpdateDataRef stamps the presentation-layer reference file with the most
// recent refresh, formatted DD/MM/YYYY. The rest of the file is preserved.
func (lu *LastUpdates) UpdateDataRef(dataRefFile string) error {
	most := lu.MostRecent()
	if len(most) < 10 {
		return fmt.Errorf("archive: no refresh recorded, cannot stamp %q", dataRefFile)
	}
	stamp := fmt.Sprintf("%s/%s/%s", most[8:10], most[5:7], most[0:4])

	ref := make(map[string]any)
	if raw, err := os.ReadFile(dataRefFile); err == nil {
		if err := json.Unmarshal(raw, &ref); err != nil {
			return fmt.Errorf("archive: parse %q: %w", dataRefFile, err)
		}
	}
	ref["last_updated"] = stamp

	raw, err := json.MarshalIndent(ref, "", "  ")
	if err != nil {
		return fmt.Errorf("archive: marshal data ref: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dataRefFile), 0755); err != nil {
		return fmt.Errorf("archive: create dir: %w", err)
	}
	return os.WriteFile(dataRefFile, raw, 0644)
}

// ArchiveSnapshot copies a raw data file into a timestamped archive
// subfolder, e.g. "2025-05-22T18_10_06-ScrapedExpense/mp_data_ipsa.json".
// Archived snapshots are never mutated afterwards.
func ArchiveSnapshot(archiveDir, label, filename string, contents []byte, at time.Time) (string, error) {
	sub := filepath.Join(archiveDir, at.Format(UpdateTimestampLayout)+"-"+label)
	if err := os.MkdirAll(sub, 0755); err != nil {
		return "", fmt.Errorf("archive: create %q: %w", sub, err)
	}

	path := filepath.Join(sub, filename)
	if err := os.WriteFile(path, contents, 0644); err != nil {
		return "", fmt.Errorf("archive: write %q: %w", path, err)
	}
	return path, nil
}
