package interests

import (
	"archive/zip"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"mp-watch/config"
	"mp-watch/storage"
	"mp-watch/utils"
)

const (
	registersURL = "https://interests-api.parliament.uk/api/v1/Registers?Skip=0&Take=2000"
	source       = "interests"
)

// Categories published in each register release. Every version of the
// register ships one CSV per category.
var Categories = []string{"1", "1.1", "1.2", "2", "3", "4", "5", "6", "7", "8", "9", "10"}

// Downloader keeps the local archive of register versions in sync with the
// published list and rebuilds the combined raw CSVs. Interests are struck
// from the register after a year, so the combined files carry forward rows
// from every archived version to preserve the full history.
type Downloader struct {
	cfg    *config.Config
	logger *utils.Logger
	client *http.Client
}

// New creates a Downloader with a fixed request timeout. Downloads are
// single-shot; a failed version is picked up on the next run.
func New(cfg *config.Config, logger *utils.Logger) *Downloader {
	return &Downloader{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutSec) * time.Second},
	}
}

// register is one published register version from the API list.
type register struct {
	ID            int    `json:"id"`
	PublishedDate string `json:"publishedDate"`
	Links         []struct {
		Rel  string `json:"rel"`
		Href string `json:"href"`
	} `json:"links"`
}

type registerList struct {
	Items []register `json:"items"`
}

// Update downloads any register versions missing from the archive, rebuilds
// the combined category CSVs, and records the refresh.
func (d *Downloader) Update(updates *storage.LastUpdates) error {
	d.logger.Info("[interests] Starting to update interests data...")

	available, err := d.listRegisters()
	if err != nil {
		return err
	}
	if len(available) == 0 {
		return fmt.Errorf("interests: no register versions published")
	}

	archiveDir := filepath.Join(d.cfg.ArchiveDir, "interests")
	downloaded, err := archivedVersions(archiveDir)
	if err != nil {
		return err
	}

	var missing []int
	for _, reg := range available {
		if _, ok := downloaded[reg.ID]; !ok {
			missing = append(missing, reg.ID)
		}
	}
	if len(missing) > 0 {
		d.logger.Info("[interests] %d new register versions to download: %v", len(missing), missing)
	} else {
		d.logger.Info("[interests] No new updates available.")
	}

	for _, reg := range available {
		if _, ok := downloaded[reg.ID]; ok {
			continue
		}
		d.logger.Info("[interests] Downloading register %d published on %s.", reg.ID, reg.PublishedDate)

		zipURL := ""
		for _, link := range reg.Links {
			if link.Rel == "csv" {
				zipURL = link.Href
				break
			}
		}
		if zipURL == "" {
			d.logger.Error("[interests] No CSV download link found for register %d.", reg.ID)
			continue
		}

		dest := filepath.Join(archiveDir, fmt.Sprintf("register_%d_%s", reg.ID, reg.PublishedDate))
		if err := d.downloadAndExtract(zipURL, dest); err != nil {
			d.logger.Error("[interests] Register %d: %v", reg.ID, err)
			continue
		}
		d.logger.Info("[interests] ZIP file downloaded and extracted to: %s", dest)
	}

	// The API lists newest first; its head is the base for combining.
	newest := available[0]
	outDir := filepath.Join(d.cfg.RawDataDir, "interests")
	if err := d.CombineCSVs(newest.ID, archiveDir, outDir); err != nil {
		return err
	}

	return updates.Set(source, storage.SourceUpdate{
		Datetime:        newest.PublishedDate + "T00_00_00",
		PublicationID:   newest.ID,
		PublicationDate: newest.PublishedDate,
	})
}

func (d *Downloader) listRegisters() ([]register, error) {
	resp, err := d.client.Get(registersURL)
	if err != nil {
		return nil, fmt.Errorf("interests: list registers: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("interests: list registers: status %d", resp.StatusCode)
	}

	var list registerList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("interests: parse register list: %w", err)
	}
	return list.Items, nil
}

// archivedVersions scans the archive for register_<id>_<date> folders and
// returns the version IDs already present.
func archivedVersions(archiveDir string) (map[int]string, error) {
	out := make(map[int]string)

	entries, err := os.ReadDir(archiveDir)
	if os.IsNotExist(err) {
		return out, nil
	}
	if err != nil {
		return nil, fmt.Errorf("interests: scan archive %q: %w", archiveDir, err)
	}

	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), "register_") {
			continue
		}
		parts := strings.SplitN(e.Name(), "_", 3)
		if len(parts) < 3 {
			continue
		}
		id, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		out[id] = e.Name()
	}
	return out, nil
}

// downloadAndExtract fetches a register ZIP and unpacks its CSVs into dest.
func (d *Downloader) downloadAndExtract(zipURL, dest string) error {
	resp, err := d.client.Get(zipURL)
	if err != nil {
		return fmt.Errorf("download %q: %w", zipURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %q: status %d", zipURL, resp.StatusCode)
	}

	if err := os.MkdirAll(dest, 0755); err != nil {
		return fmt.Errorf("create %q: %w", dest, err)
	}

	zipPath := filepath.Join(dest, "temp.zip")
	f, err := os.Create(zipPath)
	if err != nil {
		return fmt.Errorf("create %q: %w", zipPath, err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		return fmt.Errorf("save %q: %w", zipPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %q: %w", zipPath, err)
	}

	if err := extractZip(zipPath, dest); err != nil {
		return err
	}
	return os.Remove(zipPath)
}

func extractZip(zipPath, dest string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("open zip %q: %w", zipPath, err)
	}
	defer r.Close()

	for _, zf := range r.File {
		name := filepath.Base(zf.Name)
		if zf.FileInfo().IsDir() || name == "" {
			continue
		}

		src, err := zf.Open()
		if err != nil {
			return fmt.Errorf("zip entry %q: %w", zf.Name, err)
		}

		outPath := filepath.Join(dest, name)
		out, err := os.Create(outPath)
		if err != nil {
			src.Close()
			return fmt.Errorf("create %q: %w", outPath, err)
		}
		_, err = io.Copy(out, src)
		src.Close()
		out.Close()
		if err != nil {
			return fmt.Errorf("extract %q: %w", outPath, err)
		}
	}
	return nil
}

// CombineCSVs rebuilds the combined per-category CSVs in outDir. The newest
// archived register is the base; rows from older versions are appended when
// their ID is not already present. Category 1.2 rows from older versions
// additionally require an EndDate: an old row with no end date that vanished
// from later registers was most likely struck as erroneous, not expired.
func (d *Downloader) CombineCSVs(mostRecentID int, archiveDir, outDir string) error {
	versions, err := archivedVersions(archiveDir)
	if err != nil {
		return err
	}

	baseFolder, ok := versions[mostRecentID]
	if !ok {
		return fmt.Errorf("interests: no folder found for register ID %d, cannot combine CSVs and complete update", mostRecentID)
	}

	olderIDs := make([]int, 0, len(versions))
	for id := range versions {
		if id != mostRecentID {
			olderIDs = append(olderIDs, id)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(olderIDs)))

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("interests: create %q: %w", outDir, err)
	}

	for _, cat := range Categories {
		filename := "PublishedInterest-Category_" + cat + ".csv"

		header, rows, err := readCSV(filepath.Join(archiveDir, baseFolder, filename))
		if err != nil {
			return err
		}

		idCol := columnIndex(header, "ID")
		if idCol < 0 {
			return fmt.Errorf("interests: %s: no ID column", filename)
		}
		seen := make(map[string]struct{}, len(rows))
		for _, row := range rows {
			seen[row[idCol]] = struct{}{}
		}

		requireEnd := cat == "1.2"

		for _, id := range olderIDs {
			olderPath := filepath.Join(archiveDir, versions[id], filename)
			olderHeader, olderRows, err := readCSV(olderPath)
			if err != nil {
				d.logger.Warn("[interests] Skipping %s: %v", olderPath, err)
				continue
			}

			if !sameColumns(header, olderHeader) {
				d.logger.Warn("[interests] Different headers found between %s and %s", filename, olderPath)
				d.logger.Warn("[interests] Headers in newest: %v", header)
				d.logger.Warn("[interests] Headers in %s: %v", olderPath, olderHeader)
			}

			olderIDCol := columnIndex(olderHeader, "ID")
			olderEndCol := columnIndex(olderHeader, "EndDate")
			if olderIDCol < 0 {
				continue
			}

			for _, row := range olderRows {
				if _, dup := seen[row[olderIDCol]]; dup {
					continue
				}
				if requireEnd && (olderEndCol < 0 || strings.TrimSpace(row[olderEndCol]) == "") {
					continue
				}
				seen[row[olderIDCol]] = struct{}{}
				rows = append(rows, realign(row, olderHeader, header))
			}
		}

		if err := writeCSV(filepath.Join(outDir, filename), header, rows); err != nil {
			return err
		}
	}
	return nil
}

func readCSV(path string) (header []string, rows [][]string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("interests: open %q: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("interests: parse %q: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("interests: %q is empty", path)
	}
	return records[0], records[1:], nil
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("interests: create %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("interests: write %q: %w", path, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("interests: write %q: %w", path, err)
		}
	}
	w.Flush()
	return w.Error()
}

func columnIndex(header []string, name string) int {
	for i, col := range header {
		if col == name {
			return i
		}
	}
	return -1
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, col := range a {
		set[col] = struct{}{}
	}
	for _, col := range b {
		if _, ok := set[col]; !ok {
			return false
		}
	}
	return true
}

// realign reorders a row from its own header into the target header.
// Columns missing from the source are left blank, extras are dropped.
func realign(row, from, to []string) []string {
	out := make([]string, len(to))
	for i, col := range to {
		j := columnIndex(from, col)
		if j >= 0 && j < len(row) {
			out[i] = row[j]
		}
	}
	return out
}
