// internal/config/config.go
package config

import (
	"encoding/json"
	"os"
)

type Config struct {
	// Tool is the version-control executable. Defaults to "git".
	Tool string `json:"tool"`

	// AltTool is an optional alternate tool probed when the primary
	// reports no repository (e.g. "yadm" for a dotfiles home).
	AltTool string `json:"alt_tool"`

	// Base is the revision documents are compared against. Empty means
	// the index version.
	Base string `json:"base"`

	// DiffAlgorithm selects the line-diff implementation: "myers" or "lcs".
	DiffAlgorithm string `json:"diff_algorithm"`

	// DiffWorkers off-loads diff computation to a worker pool of this
	// size. Zero keeps the synchronous path.
	DiffWorkers int `json:"diff_workers"`

	// IndentHeuristic slides one-sided hunks to nicer split points.
	IndentHeuristic bool `json:"indent_heuristic"`

	// WordDiff enables intraline change regions.
	WordDiff bool `json:"word_diff"`

	// DebounceMs is the edit-coalescing window in milliseconds.
	DebounceMs int `json:"debounce_ms"`

	// FollowRenames enables rename detection when a file leaves the index.
	FollowRenames bool `json:"follow_renames"`

	// MaxFileLength skips documents longer than this many lines.
	MaxFileLength int `json:"max_file_length"`

	// CacheDir enables the on-disk reference-content cache when non-empty.
	CacheDir string `json:"cache_dir"`

	LogLevel string `json:"log_level"` // debug, info, warn, error
}

func Default() *Config {
	return &Config{
		Tool:          "git",
		DiffAlgorithm: "myers",
		DebounceMs:    100,
		FollowRenames: true,
		MaxFileLength: 40000,
		LogLevel:      "info",
	}
}

func Load(path string) (*Config, error) {
	config := Default()

	if path == "" {
		path = os.Getenv("GITSIGNS_CONFIG")
	}
	if path == "" {
		return config, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(config); err != nil {
		return nil, err
	}

	return config, nil
}
