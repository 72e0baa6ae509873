package votes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"mp-watch/config"
	"mp-watch/utils"
)

const divisionURL = "https://commonsvotes-api.parliament.uk/data/division/%s.json"

// Fetcher retrieves single Commons division records. Divisions are fetched
// one at a time, on demand, when a new vote is added to the tracked list.
type Fetcher struct {
	cfg    *config.Config
	logger *utils.Logger
	client *http.Client
}

// New creates a division Fetcher with a fixed request timeout.
func New(cfg *config.Config, logger *utils.Logger) *Fetcher {
	return &Fetcher{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutSec) * time.Second},
	}
}

type member struct {
	MemberID int `json:"MemberId"`
}

// Division is one Commons division record from the votes API.
type Division struct {
	DivisionID     int      `json:"DivisionId"`
	Title          string   `json:"Title"`
	Ayes           []member `json:"Ayes"`
	AyeTellers     []member `json:"AyeTellers"`
	Noes           []member `json:"Noes"`
	NoTellers      []member `json:"NoTellers"`
	NoVoteRecorded []member `json:"NoVoteRecorded"`
}

// Fetch retrieves one division by ID.
func (f *Fetcher) Fetch(voteID string) (*Division, json.RawMessage, error) {
	url := fmt.Sprintf(divisionURL, voteID)
	f.logger.Info("[votes] Fetching %s", url)

	resp, err := f.client.Get(url)
	if err != nil {
		return nil, nil, fmt.Errorf("votes: fetch division %s: %w", voteID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("votes: fetch division %s: status %d", voteID, resp.StatusCode)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, nil, fmt.Errorf("votes: read division %s: %w", voteID, err)
	}

	var div Division
	if err := json.Unmarshal(raw, &div); err != nil {
		return nil, nil, fmt.Errorf("votes: parse division %s: %w", voteID, err)
	}

	f.logger.Info("[votes] Vote ID: %d, Title: %s", div.DivisionID, div.Title)
	return &div, raw, nil
}

// Save writes the full division record plus the three per-response member
// lists the collator consumes. Tellers are folded into the ayes and noes:
// they only technically abstain, and treating them as non-voters misreads
// the record.
func (f *Fetcher) Save(div *Division, raw json.RawMessage) error {
	id := strconv.Itoa(div.DivisionID)
	dir := filepath.Join(f.cfg.RawDataDir, "votes", id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("votes: create %q: %w", dir, err)
	}

	pretty, err := json.MarshalIndent(json.RawMessage(raw), "", "    ")
	if err != nil {
		return fmt.Errorf("votes: marshal division %s: %w", id, err)
	}
	jsonPath := filepath.Join(dir, id+" - "+sanitizeTitle(div.Title)+".json")
	if err := os.WriteFile(jsonPath, pretty, 0644); err != nil {
		return fmt.Errorf("votes: write %q: %w", jsonPath, err)
	}

	ayes := memberIDs(div.Ayes, div.AyeTellers)
	noes := memberIDs(div.Noes, div.NoTellers)
	absent := memberIDs(div.NoVoteRecorded, nil)

	lists := map[string][]int{
		"ayes":           ayes,
		"noes":           noes,
		"novoterecorded": absent,
	}
	for response, ids := range lists {
		path := filepath.Join(dir, id+" - "+response+".txt")
		if err := writeIDList(path, ids); err != nil {
			return err
		}
	}

	f.logger.Info("[votes] Vote record for ID %s saved successfully.", id)
	return nil
}

func memberIDs(voters, tellers []member) []int {
	out := make([]int, 0, len(voters)+len(tellers))
	for _, m := range voters {
		out = append(out, m.MemberID)
	}
	for _, m := range tellers {
		out = append(out, m.MemberID)
	}
	return out
}

func writeIDList(path string, ids []int) error {
	var b strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&b, "%d\n", id)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("votes: write %q: %w", path, err)
	}
	return nil
}

// sanitizeTitle strips characters unsafe for filenames from a division title.
func sanitizeTitle(title string) string {
	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
