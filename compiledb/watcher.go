package compiledb

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/meysamhadeli/buildscope/events"
	"github.com/meysamhadeli/buildscope/workspace/contracts"
)

// Missing-database decision options presented through the diagnostic
// boundary.
const (
	DecisionIgnore       = "Ignore"
	DecisionFixConfig    = "Fix configuration"
	DecisionTriggerBuild = "Trigger build"
)

// MissingDatabaseDecision remembers the user's answer to the missing
// compile-database prompt. It outlives individual watch managers so one
// "Ignore" suppresses further prompts until the next full reload.
type MissingDatabaseDecision struct {
	mu     sync.Mutex
	made   bool
	choice string
}

func (d *MissingDatabaseDecision) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.made = false
	d.choice = ""
}

// WatchManager watches the build root for package directories appearing and
// disappearing, and each known compile database for rewrites. Every change
// funnels into Store.UpdateDatabase.
type WatchManager struct {
	store      *Store
	notifier   *events.Notifier
	diag       contracts.IDiagnostics
	decision   *MissingDatabaseDecision
	buildRoot  string
	dbFileName string

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	watched map[string]bool
	done    chan struct{}
}

func NewWatchManager(
	store *Store,
	notifier *events.Notifier,
	diag contracts.IDiagnostics,
	decision *MissingDatabaseDecision,
	buildRoot string,
	dbFileName string,
) *WatchManager {
	return &WatchManager{
		store:      store,
		notifier:   notifier,
		diag:       diag,
		decision:   decision,
		buildRoot:  filepath.Clean(buildRoot),
		dbFileName: dbFileName,
		watched:    make(map[string]bool),
	}
}

// Start scans the build root, merges every existing compile database, arms
// the file-system watches and launches the event loop.
func (w *WatchManager) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	done := make(chan struct{})
	w.mu.Lock()
	w.fsw = fsw
	w.done = done
	w.mu.Unlock()

	if _, err := os.Stat(w.buildRoot); err != nil {
		w.handleMissingDatabases(fmt.Sprintf("Build directory %s does not exist.", w.buildRoot))
		go w.loop(ctx, fsw, done)
		return nil
	}

	if err := w.armWatch(w.buildRoot); err != nil {
		return fmt.Errorf("failed to watch build root %s: %w", w.buildRoot, err)
	}

	databases := w.findDatabases()
	for _, dbPath := range databases {
		if err := w.armWatch(filepath.Dir(dbPath)); err != nil {
			log.Printf("failed to watch %s: %v", filepath.Dir(dbPath), err)
			continue
		}
		if _, err := w.store.UpdateDatabase(ctx, dbPath); err != nil {
			log.Printf("failed to load compile database %s: %v", dbPath, err)
		}
	}

	if len(databases) == 0 {
		w.handleMissingDatabases(fmt.Sprintf("No %s found under %s.", w.dbFileName, w.buildRoot))
	}

	go w.loop(ctx, fsw, done)
	return nil
}

// Stop tears down every watch. Safe to call more than once.
func (w *WatchManager) Stop() {
	w.mu.Lock()
	fsw := w.fsw
	done := w.done
	w.fsw = nil
	w.watched = make(map[string]bool)
	w.mu.Unlock()

	if fsw != nil {
		fsw.Close()
	}
	if done != nil {
		<-done
	}
}

// findDatabases globs for every compile database below the build root.
func (w *WatchManager) findDatabases() []string {
	var found []string
	filepath.WalkDir(w.buildRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && d.Name() == w.dbFileName {
			found = append(found, path)
		}
		return nil
	})
	return found
}

// armWatch registers a directory watch keyed by absolute path. Re-arming an
// already watched path cancels the previous watch first so no path is
// watched twice.
func (w *WatchManager) armWatch(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw == nil {
		return fmt.Errorf("watch manager is stopped")
	}
	if w.watched[abs] {
		w.fsw.Remove(abs)
	}
	if err := w.fsw.Add(abs); err != nil {
		return err
	}
	w.watched[abs] = true
	return nil
}

func (w *WatchManager) dropWatchesUnder(root string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw == nil {
		return
	}
	prefix := root + string(os.PathSeparator)
	for path := range w.watched {
		if path == root || strings.HasPrefix(path, prefix) {
			w.fsw.Remove(path)
			delete(w.watched, path)
		}
	}
}

func (w *WatchManager) loop(ctx context.Context, fsw *fsnotify.Watcher, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			log.Printf("file watcher error: %v", err)
		}
	}
}

func (w *WatchManager) handleEvent(ctx context.Context, event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	if filepath.Base(path) == w.dbFileName {
		// Any change type triggers a re-read; a vanished file is handled
		// inside the store as a removal.
		if _, err := w.store.UpdateDatabase(ctx, path); err != nil {
			log.Printf("failed to update compile database %s: %v", path, err)
		}
		return
	}

	if filepath.Dir(path) != w.buildRoot {
		return
	}

	switch {
	case event.Op&fsnotify.Create != 0:
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			return
		}
		// A new package directory appeared under the build root. Watch it
		// for its own compile database and flag its tests for rescan.
		if err := w.armWatch(path); err != nil {
			log.Printf("failed to watch new package directory %s: %v", path, err)
			return
		}
		w.notifier.Emit(events.TestsSetChanged, true)

		dbPath := filepath.Join(path, w.dbFileName)
		if _, err := os.Stat(dbPath); err == nil {
			if _, err := w.store.UpdateDatabase(ctx, dbPath); err != nil {
				log.Printf("failed to load compile database %s: %v", dbPath, err)
			}
		}
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		abs, err := filepath.Abs(path)
		if err != nil {
			abs = path
		}
		w.dropWatchesUnder(abs)
		w.store.UpdateDatabase(ctx, filepath.Join(path, w.dbFileName))
	}
}

// handleMissingDatabases asks the user what to do about an absent build
// directory or a build root without any compile database. The choice is
// remembered so the prompt fires at most once per reload cycle.
func (w *WatchManager) handleMissingDatabases(message string) {
	w.decision.mu.Lock()
	if w.decision.made {
		w.decision.mu.Unlock()
		return
	}
	w.decision.mu.Unlock()

	choice, err := w.diag.ShowWarning(
		message+" Compile commands are needed to resolve include paths.",
		DecisionIgnore, DecisionFixConfig, DecisionTriggerBuild,
	)
	if err != nil {
		log.Printf("missing database prompt failed: %v", err)
		return
	}

	w.decision.mu.Lock()
	w.decision.made = true
	w.decision.choice = choice
	w.decision.mu.Unlock()

	switch choice {
	case DecisionFixConfig:
		w.diag.ShowError("Enable compile-database generation in your build configuration, then reload.")
	case DecisionTriggerBuild:
		w.diag.ShowError("Run a build to produce compile databases, then reload.")
	}
}
