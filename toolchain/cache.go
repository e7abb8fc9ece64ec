package toolchain

import (
	"bytes"
	"crypto/md5"
	"encoding/gob"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"
)

// cacheEntry is one persisted defaults resolution with the compiler binary
// metadata used for invalidation.
type cacheEntry struct {
	Paths           []string
	CompilerSize    int64
	CompilerModTime time.Time
	Timestamp       time.Time
}

// DefaultsCache persists resolved default include paths per compiler
// binary, so restarts skip the multi-hundred-millisecond compiler probe.
// An entry is invalidated when the compiler binary's size or modification
// time changes (toolchain upgrade).
type DefaultsCache struct {
	cacheDir string
	mutex    sync.RWMutex
}

// NewDefaultsCache creates the cache rooted at cacheDir, defaulting to
// ".cache/buildscope" under the current working directory when empty.
func NewDefaultsCache(cacheDir string) (*DefaultsCache, error) {
	if cacheDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current working directory: %w", err)
		}
		cacheDir = filepath.Join(cwd, ".cache", "buildscope")
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	return &DefaultsCache{cacheDir: cacheDir}, nil
}

// cacheKey derives the cache file name for a compiler path.
func (dc *DefaultsCache) cacheKey(compilerPath string) string {
	hash := md5.Sum([]byte(compilerPath))
	return fmt.Sprintf("%x.cache", hash)
}

// compilerInfo stats the compiler binary, following PATH lookup for bare
// names like "g++".
func compilerInfo(compilerPath string) (os.FileInfo, error) {
	resolved := compilerPath
	if !filepath.IsAbs(compilerPath) {
		located, err := exec.LookPath(compilerPath)
		if err != nil {
			return nil, err
		}
		resolved = located
	}
	return os.Stat(resolved)
}

// Get returns the cached default paths for a compiler, invalidating stale
// entries when the compiler binary has changed.
func (dc *DefaultsCache) Get(compilerPath string) ([]string, bool) {
	dc.mutex.RLock()
	defer dc.mutex.RUnlock()

	cachePath := filepath.Join(dc.cacheDir, dc.cacheKey(compilerPath))
	data, err := os.ReadFile(cachePath)
	if err != nil {
		return nil, false
	}

	var entry cacheEntry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entry); err != nil {
		os.Remove(cachePath)
		return nil, false
	}

	info, err := compilerInfo(compilerPath)
	if err != nil || info.Size() != entry.CompilerSize || !info.ModTime().Equal(entry.CompilerModTime) {
		os.Remove(cachePath)
		return nil, false
	}

	return entry.Paths, true
}

// Set stores the default paths for a compiler along with the binary
// metadata used for invalidation.
func (dc *DefaultsCache) Set(compilerPath string, paths []string) error {
	dc.mutex.Lock()
	defer dc.mutex.Unlock()

	info, err := compilerInfo(compilerPath)
	if err != nil {
		return fmt.Errorf("failed to stat compiler %s: %w", compilerPath, err)
	}

	entry := cacheEntry{
		Paths:           paths,
		CompilerSize:    info.Size(),
		CompilerModTime: info.ModTime(),
		Timestamp:       time.Now(),
	}

	var buffer bytes.Buffer
	if err := gob.NewEncoder(&buffer).Encode(entry); err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	cachePath := filepath.Join(dc.cacheDir, dc.cacheKey(compilerPath))
	if err := os.WriteFile(cachePath, buffer.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// Clear removes every cached entry.
func (dc *DefaultsCache) Clear() error {
	dc.mutex.Lock()
	defer dc.mutex.Unlock()

	if err := os.RemoveAll(dc.cacheDir); err != nil {
		return fmt.Errorf("failed to clear cache directory: %w", err)
	}
	return os.MkdirAll(dc.cacheDir, 0755)
}

// Stats returns cache statistics for the reset-cache command.
func (dc *DefaultsCache) Stats() (map[string]interface{}, error) {
	dc.mutex.RLock()
	defer dc.mutex.RUnlock()

	entries, err := os.ReadDir(dc.cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache directory: %w", err)
	}

	var totalSize int64
	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if info, err := entry.Info(); err == nil {
			totalSize += info.Size()
			count++
		}
	}

	stats := make(map[string]interface{})
	stats["cache_files"] = count
	stats["total_size"] = totalSize
	stats["cache_dir"] = dc.cacheDir
	return stats, nil
}
