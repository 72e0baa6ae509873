package ipsa

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"mp-watch/config"
	"mp-watch/models"
	"mp-watch/storage"
	"mp-watch/utils"
)

const (
	mpPageURL = "https://www.theipsa.org.uk/mp-staffing-business-costs/your-mp/x/%d"
	source    = "expenses"
)

// Scraper fetches per-MP expense data from IPSA. The site is a Next.js app;
// the full MP payload sits in the page's embedded __NEXT_DATA__ script, so
// each fetch renders the page headless and lifts the JSON out.
type Scraper struct {
	cfg    *config.Config
	logger *utils.Logger
	pool   *utils.WorkerPool
	seen   *utils.IDSet

	mu      sync.Mutex
	results map[int]json.RawMessage
}

// New creates a ready-to-use IPSA Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:     cfg,
		logger:  logger,
		pool:    utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		seen:    utils.NewIDSet(),
		results: make(map[int]json.RawMessage),
	}
}

// nextData is the shape of the embedded page payload down to the MP record.
type nextData struct {
	Props struct {
		PageProps struct {
			MP json.RawMessage `json:"mp"`
		} `json:"pageProps"`
	} `json:"props"`
}

// Scrape fetches every member in the roster file. Individual failures are
// logged and skipped; the run only fails when nothing could be fetched.
// There is deliberately no retry: a fixed timeout per request, one shot.
func (s *Scraper) Scrape(ctx context.Context) (map[int]json.RawMessage, error) {
	ids, err := s.rosterIDs()
	if err != nil {
		return nil, err
	}
	s.logger.Info("[ipsa] Starting scrape for %d MPs", len(ids))

	chromeBin := s.findChromeBinary()
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	for _, id := range ids {
		id := id
		s.pool.Submit(func() {
			payload, err := s.fetchMP(browserCtx, id)
			if err != nil {
				s.logger.Warn("[ipsa] Failed to retrieve data for MP %d: %v", id, err)
				return
			}
			s.mu.Lock()
			s.results[id] = payload
			s.mu.Unlock()
		})
	}
	s.pool.Wait()

	if len(s.results) == 0 {
		return nil, fmt.Errorf("ipsa: no MP data could be retrieved")
	}

	s.logger.Info("[ipsa] Retrieved %d of %d MPs", len(s.results), len(ids))
	return s.results, nil
}

// fetchMP renders one MP page and extracts the embedded JSON payload.
func (s *Scraper) fetchMP(parent context.Context, id int) (json.RawMessage, error) {
	tabCtx, cancelTab := chromedp.NewContext(parent)
	defer cancelTab()

	timeout := time.Duration(s.cfg.HTTPTimeoutSec) * time.Second
	ctx, cancel := context.WithTimeout(tabCtx, timeout)
	defer cancel()

	var raw string
	err := chromedp.Run(ctx,
		chromedp.Navigate(fmt.Sprintf(mpPageURL, id)),
		chromedp.Evaluate(
			`(document.getElementById('__NEXT_DATA__') || {}).textContent || ''`,
			&raw),
	)
	if err != nil {
		return nil, fmt.Errorf("ipsa: MP %d: %w", id, err)
	}
	if raw == "" {
		return nil, fmt.Errorf("ipsa: MP %d: missing __NEXT_DATA__ element", id)
	}

	var data nextData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("ipsa: MP %d: parse page payload: %w", id, err)
	}
	if len(data.Props.PageProps.MP) == 0 {
		return nil, fmt.Errorf("ipsa: MP %d: no mp record in page payload", id)
	}

	return data.Props.PageProps.MP, nil
}

// rosterIDs reads the member ID list, one per line, dropping duplicates.
func (s *Scraper) rosterIDs() ([]int, error) {
	raw, err := os.ReadFile(s.cfg.MPListFile)
	if err != nil {
		return nil, fmt.Errorf("ipsa: read roster %q: %w", s.cfg.MPListFile, err)
	}

	var ids []int
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		id, err := strconv.Atoi(line)
		if err != nil {
			s.logger.Warn("[ipsa] Skipping non-numeric roster entry %q", line)
			continue
		}
		if s.seen.Add(id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Save writes the scraped payloads to the raw data file, archives a
// snapshot, and records the refresh.
func (s *Scraper) Save(results map[int]json.RawMessage, updates *storage.LastUpdates) error {
	keyed := make(map[string]json.RawMessage, len(results))
	ids := make([]int, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		keyed[strconv.Itoa(id)] = results[id]
	}

	raw, err := json.MarshalIndent(keyed, "", "  ")
	if err != nil {
		return fmt.Errorf("ipsa: marshal results: %w", err)
	}

	outFile := filepath.Join(s.cfg.RawDataDir, "expenses", "mp_data_ipsa.json")
	if err := os.MkdirAll(filepath.Dir(outFile), 0755); err != nil {
		return fmt.Errorf("ipsa: create raw dir: %w", err)
	}
	if err := os.WriteFile(outFile, raw, 0644); err != nil {
		return fmt.Errorf("ipsa: write %q: %w", outFile, err)
	}

	now := time.Now()
	archiveDir := filepath.Join(s.cfg.ArchiveDir, "expenses")
	if _, err := storage.ArchiveSnapshot(archiveDir, "ScrapedExpense", "mp_data_ipsa.json", raw, now); err != nil {
		return err
	}

	s.logger.Info("[ipsa] Raw data saved to %s and archived", outFile)
	return updates.Set(source, storage.SourceUpdate{
		Datetime: now.Format(storage.UpdateTimestampLayout),
	})
}

// FilterExpenses writes the filtered copy of the raw IPSA file the collator
// consumes: the page history is dropped and expenses are kept only from the
// election cutoff onwards, for comparability between sitting MPs.
func FilterExpenses(rawFile, filteredFile string) error {
	raw, err := os.ReadFile(rawFile)
	if err != nil {
		return fmt.Errorf("ipsa: read %q: %w", rawFile, err)
	}

	var members map[string]map[string]json.RawMessage
	if err := json.Unmarshal(raw, &members); err != nil {
		return fmt.Errorf("ipsa: parse %q: %w", rawFile, err)
	}

	cutoff := models.ElectionCutoff + "T00:00:00"
	out := make(map[string]map[string]json.RawMessage, len(members))

	for id, member := range members {
		filtered := make(map[string]json.RawMessage, len(member))
		for key, value := range member {
			switch key {
			case "history":
				// dropped
			case "expenses":
				var expenses []map[string]json.RawMessage
				if err := json.Unmarshal(value, &expenses); err != nil {
					continue
				}
				kept := expenses[:0]
				for _, e := range expenses {
					var date string
					if err := json.Unmarshal(e["date"], &date); err != nil {
						continue
					}
					if date >= cutoff {
						kept = append(kept, e)
					}
				}
				if len(kept) > 0 {
					enc, err := json.Marshal(kept)
					if err == nil {
						filtered[key] = enc
					}
				}
			default:
				filtered[key] = value
			}
		}
		out[id] = filtered
	}

	enc, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("ipsa: marshal filtered: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(filteredFile), 0755); err != nil {
		return fmt.Errorf("ipsa: create dir: %w", err)
	}
	return os.WriteFile(filteredFile, enc, 0644)
}

// findChromeBinary locates a usable browser binary, preferring the
// configured path.
func (s *Scraper) findChromeBinary() string {
	if s.cfg.ChromeBin != "" {
		return s.cfg.ChromeBin
	}
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "chrome"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}
