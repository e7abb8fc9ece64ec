package compiledb

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/zeebo/xxh3"

	"github.com/meysamhadeli/buildscope/events"
	"github.com/meysamhadeli/buildscope/workspace/models"
)

// rawRecord is one entry of a compile_commands.json file as written by the
// build system.
type rawRecord struct {
	File      string `json:"file"`
	Command   string `json:"command"`
	Directory string `json:"directory"`
}

// flagsEntry is the winning projection of one source file: the record it
// came from, a hash of its command for cheap idempotence checks, and the
// parsed flags.
type flagsEntry struct {
	record      models.CompileRecord
	commandHash uint64
	flags       *models.ParsedFlags
}

// Store merges every known compile database into a single projection keyed
// by source file. When two databases claim the same file, the most recently
// scanned one wins. Change signals are coalesced to at most one emission
// per event per database update.
type Store struct {
	mu       sync.RWMutex
	parser   *Parser
	notifier *events.Notifier

	databases map[string]*models.DatabaseFile
	entries   map[string]*flagsEntry
}

func NewStore(parser *Parser, notifier *events.Notifier) *Store {
	return &Store{
		parser:    parser,
		notifier:  notifier,
		databases: make(map[string]*models.DatabaseFile),
		entries:   make(map[string]*flagsEntry),
	}
}

// UpdateDatabase re-reads one compile database and merges it into the
// projection. A vanished file cascades to the removal of every record it
// owned. The returned bool reports whether the projection changed.
func (s *Store) UpdateDatabase(ctx context.Context, filePath string) (bool, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return s.removeDatabase(filePath), nil
		}
		return false, fmt.Errorf("failed to read compile database %s: %w", filePath, err)
	}

	var raw []rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return false, fmt.Errorf("failed to parse compile database %s: %w", filePath, err)
	}

	changed := false
	systemPathFound := false

	s.mu.Lock()
	present := make(map[string]bool, len(raw))
	records := make([]models.CompileRecord, 0, len(raw))

	for _, r := range raw {
		if r.File == "" || r.Command == "" {
			continue
		}
		record := models.CompileRecord{
			SourceFile:     r.File,
			Command:        r.Command,
			DatabaseOrigin: filePath,
		}
		records = append(records, record)
		present[r.File] = true

		hash := xxh3.HashString(r.Command)
		existing := s.entries[r.File]
		if existing != nil && existing.commandHash == hash {
			// Unchanged command. A different origin still takes over
			// ownership so deletion cascades stay correct, without
			// re-parsing or signalling.
			existing.record = record
			continue
		}

		flags, newSystemPath := s.parser.Parse(ctx, record)
		s.entries[r.File] = &flagsEntry{record: record, commandHash: hash, flags: flags}
		changed = true
		systemPathFound = systemPathFound || newSystemPath
	}

	// Records this database used to own but no longer lists are stale.
	for file, entry := range s.entries {
		if entry.record.DatabaseOrigin == filePath && !present[file] {
			delete(s.entries, file)
			changed = true
		}
	}

	s.databases[filePath] = &models.DatabaseFile{FilePath: filePath, Records: records}
	s.mu.Unlock()

	if changed {
		s.notifier.Emit(events.BuildCommandsChanged, true)
	}
	if systemPathFound {
		s.notifier.Emit(events.SystemPathsChanged, true)
	}
	return changed, nil
}

// removeDatabase drops a vanished database and every projection entry it
// owned. Entries that another database has since taken over are untouched.
func (s *Store) removeDatabase(filePath string) bool {
	s.mu.Lock()
	removed := false
	for file, entry := range s.entries {
		if entry.record.DatabaseOrigin == filePath {
			delete(s.entries, file)
			removed = true
		}
	}
	delete(s.databases, filePath)
	s.mu.Unlock()

	if removed {
		s.notifier.Emit(events.BuildCommandsChanged, true)
	}
	return removed
}

// GetFlags returns the parsed flags of the winning record for a source file.
func (s *Store) GetFlags(sourceFile string) (*models.ParsedFlags, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[sourceFile]
	if !ok {
		return nil, false
	}
	return entry.flags, true
}

// GetRecord returns the winning compile record for a source file.
func (s *Store) GetRecord(sourceFile string) (models.CompileRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[sourceFile]
	if !ok {
		return models.CompileRecord{}, false
	}
	return entry.record, true
}

// SourceFiles lists every source file with a known compile command, sorted
// for stable iteration.
func (s *Store) SourceFiles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	files := make([]string, 0, len(s.entries))
	for file := range s.entries {
		files = append(files, file)
	}
	sort.Strings(files)
	return files
}

// DatabasePaths lists every compile database currently merged into the
// projection.
func (s *Store) DatabasePaths() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	paths := make([]string, 0, len(s.databases))
	for path := range s.databases {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Counts returns the number of merged databases and projected records.
func (s *Store) Counts() (databases int, records int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.databases), len(s.entries)
}

// Reset drops the whole projection. Called on a full workspace reload.
func (s *Store) Reset() {
	s.mu.Lock()
	s.databases = make(map[string]*models.DatabaseFile)
	s.entries = make(map[string]*flagsEntry)
	s.mu.Unlock()
	s.parser.Reset()
}
