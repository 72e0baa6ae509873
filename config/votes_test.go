package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadVotes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "votes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`votes:
  - id: "1905"
    title: "Renters' Rights Bill"
    noteworthy: ["noes"]
  - id: "2074"
    title: "UC and PIP Bill"
    noteworthy: ["ayes", "novoterecorded"]
`), 0644))

	votes, err := LoadVotes(path)
	require.NoError(t, err)
	require.Len(t, votes, 2)

	assert.Equal(t, "1905", votes[0].ID)
	assert.Equal(t, "Renters' Rights Bill", votes[0].Title)
	assert.Equal(t, []string{"noes"}, votes[0].Noteworthy)
	assert.Equal(t, []string{"ayes", "novoterecorded"}, votes[1].Noteworthy)
}

func TestLoadVotesMissingFile(t *testing.T) {
	_, err := LoadVotes(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadVotesEmptyID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "votes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`votes:
  - title: "No ID here"
    noteworthy: ["noes"]
`), 0644))

	_, err := LoadVotes(path)
	assert.Error(t, err)
}

func TestLoadVotesMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "votes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("votes: [not: closed"), 0644))

	_, err := LoadVotes(path)
	assert.Error(t, err)
}

func TestIsNoteworthy(t *testing.T) {
	vote := TrackedVote{ID: "1905", Noteworthy: []string{"noes", "novoterecorded"}}
	assert.True(t, vote.IsNoteworthy("noes"))
	assert.True(t, vote.IsNoteworthy("novoterecorded"))
	assert.False(t, vote.IsNoteworthy("ayes"))
	assert.False(t, vote.IsNoteworthy(""))
}
