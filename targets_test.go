package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"review-scraper/models"
	"review-scraper/utils"
)

func TestReadTargetsSkipsBlanksCommentsAndDuplicates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	content := "# parks\nhttps://a.example/1\n\n  https://a.example/2  \nhttps://a.example/1\n#https://a.example/3\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	targets, err := readTargets(path, utils.NewLoggerTo(io.Discard, io.Discard, false))
	require.NoError(t, err)
	assert.Equal(t, []models.Target{
		{URL: "https://a.example/1"},
		{URL: "https://a.example/2"},
	}, targets)
}

func TestReadTargetsMissingFile(t *testing.T) {
	_, err := readTargets(filepath.Join(t.TempDir(), "nope.txt"), utils.NewLoggerTo(io.Discard, io.Discard, false))
	assert.Error(t, err)
}

func TestReplayTargets(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"parque", "jardim"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, name), 0755))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0644))

	targets, err := replayTargets(dir)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "replay://jardim", targets[0].URL)
	assert.Equal(t, "parque", replayName(targets[1].URL))
}

func TestRunDirNameDistinguishesRunsInTheSameSecond(t *testing.T) {
	first := time.Date(2024, 3, 3, 10, 15, 30, 120*int(time.Millisecond), time.UTC)
	second := first.Add(340 * time.Millisecond)

	assert.Equal(t, "2024-03-03_10-15-30.120", runDirName(first))
	assert.NotEqual(t, runDirName(first), runDirName(second))
}
