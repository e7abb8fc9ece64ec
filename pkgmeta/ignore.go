package pkgmeta

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ignoreCacheEntry holds cached ignore patterns with metadata
type ignoreCacheEntry struct {
	patterns []string
	modTime  time.Time
}

// Global cache for ignore patterns
var (
	ignoreCache = make(map[string]*ignoreCacheEntry)
	cacheMutex  sync.RWMutex
)

// GetIgnorePatterns reads and returns the patterns from the workspace
// ignore file. If the file does not exist, it returns an empty pattern
// list. This function supports caching for improved performance.
func GetIgnorePatterns(srcDir string) ([]string, error) {
	ignorePath := filepath.Join(srcDir, ".buildscope-ignore")

	fileInfo, err := os.Stat(ignorePath)
	if os.IsNotExist(err) {
		return []string{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("error checking .buildscope-ignore: %w", err)
	}

	// Check cache first
	cacheMutex.RLock()
	if cached, exists := ignoreCache[ignorePath]; exists {
		if fileInfo.ModTime().Equal(cached.modTime) {
			cacheMutex.RUnlock()
			return cached.patterns, nil
		}
	}
	cacheMutex.RUnlock()

	patterns, err := readIgnoreFile(ignorePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read .buildscope-ignore: %w", err)
	}

	cacheMutex.Lock()
	ignoreCache[ignorePath] = &ignoreCacheEntry{
		patterns: patterns,
		modTime:  fileInfo.ModTime(),
	}
	cacheMutex.Unlock()

	return patterns, nil
}

// IsDefaultIgnored reports directories no package scan should descend into.
func IsDefaultIgnored(name string) bool {
	switch strings.ToLower(name) {
	case ".git", ".svn", ".idea", ".vscode", ".cache",
		"build", "devel", "install", "logs", "node_modules":
		return true
	}
	return false
}

// readIgnoreFile reads the ignore file and returns the list of patterns.
func readIgnoreFile(ignorePath string) ([]string, error) {
	content, err := os.ReadFile(ignorePath)
	if err != nil {
		return nil, err
	}
	var patterns []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, nil
}

// IsIgnored checks if a relative path matches any of the ignore patterns.
func IsIgnored(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if match, _ := filepath.Match(pattern, path); match {
			return true
		}
		// Patterns like "dir/" ignore entire directory trees.
		if strings.HasSuffix(pattern, "/") && strings.HasPrefix(path, pattern) {
			return true
		}
	}
	return false
}

// ClearIgnoreCache clears all cached ignore patterns.
func ClearIgnoreCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	ignoreCache = make(map[string]*ignoreCacheEntry)
}
