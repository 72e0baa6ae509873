package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// TrackedVote describes one Commons division whose membership lists are
// joined onto the MP dataset. Noteworthy lists which response categories
// raise the per-MP flag for this vote ("ayes", "noes", "novoterecorded").
type TrackedVote struct {
	ID         string   `yaml:"id"`
	Title      string   `yaml:"title"`
	Noteworthy []string `yaml:"noteworthy"`
}

// VotesConfig is the top-level structure of votes.yaml.
type VotesConfig struct {
	Votes []TrackedVote `yaml:"votes"`
}

// LoadVotes reads the tracked-votes file. A missing file is an error: vote
// joining without a vote list means a misconfigured run, not a degraded one.
func LoadVotes(path string) ([]TrackedVote, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("votes: read %q: %w", path, err)
	}

	var cfg VotesConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("votes: parse %q: %w", path, err)
	}

	for _, v := range cfg.Votes {
		if v.ID == "" {
			return nil, fmt.Errorf("votes: entry with empty id in %q", path)
		}
	}
	return cfg.Votes, nil
}

// IsNoteworthy reports whether a response category is in the vote's
// noteworthy set.
func (v TrackedVote) IsNoteworthy(response string) bool {
	for _, r := range v.Noteworthy {
		if r == response {
			return true
		}
	}
	return false
}
