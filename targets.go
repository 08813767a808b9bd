package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"review-scraper/models"
	"review-scraper/utils"
)

const replayScheme = "replay://"

// readTargets loads the newline-delimited target list. Blank lines and lines
// starting with # are ignored; repeated URLs are kept once.
func readTargets(path string, logger *utils.Logger) ([]models.Target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open targets file: %w", err)
	}
	defer f.Close()

	seen := utils.NewStringSet()
	var targets []models.Target

	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		u := strings.TrimSpace(sc.Text())
		if u == "" || strings.HasPrefix(u, "#") {
			continue
		}
		if !seen.Add(u) {
			logger.Warn("Skipping duplicate target on line %d: %s", line, u)
			continue
		}
		targets = append(targets, models.Target{URL: u})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read targets file: %w", err)
	}

	logger.Info("Loaded %d targets from %s", len(targets), path)
	return targets, nil
}

// replayTargets turns every sub-directory of dir into a target.
func replayTargets(dir string) ([]models.Target, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read replay directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	targets := make([]models.Target, 0, len(names))
	for _, name := range names {
		targets = append(targets, models.Target{URL: replayScheme + name})
	}
	return targets, nil
}

func replayName(url string) string {
	return filepath.Base(strings.TrimPrefix(url, replayScheme))
}
