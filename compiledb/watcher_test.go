package compiledb

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meysamhadeli/buildscope/events"
)

// fakeDiagnostics answers every prompt with a canned choice.
type fakeDiagnostics struct {
	mu       sync.Mutex
	choice   string
	warnings []string
	errors   []string
}

func (f *fakeDiagnostics) ShowWarning(message string, options ...string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.warnings = append(f.warnings, message)
	if f.choice != "" {
		return f.choice, nil
	}
	if len(options) > 0 {
		return options[0], nil
	}
	return "", nil
}

func (f *fakeDiagnostics) ShowError(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, message)
}

func (f *fakeDiagnostics) ReportProgress(int, string) {}

func (f *fakeDiagnostics) warningCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.warnings)
}

const testDBName = "compile_commands.json"

func startManager(t *testing.T, buildRoot string, diag *fakeDiagnostics) (*WatchManager, *Store, *events.Notifier) {
	t.Helper()
	store, notifier := newTestStore(filepath.Dir(buildRoot))
	decision := &MissingDatabaseDecision{}
	manager := NewWatchManager(store, notifier, diag, decision, buildRoot, testDBName)
	require.NoError(t, manager.Start(context.Background()))
	t.Cleanup(manager.Stop)
	return manager, store, notifier
}

func TestWatchManager_InitialScan(t *testing.T) {
	tempDir := t.TempDir()
	buildRoot := filepath.Join(tempDir, "build")
	writeDatabase(t, filepath.Join(buildRoot, "pkg_a", testDBName), []rawRecord{
		{File: "/ws/src/a/a.cpp", Command: "g++ a.cpp", Directory: "/ws"},
	})

	diag := &fakeDiagnostics{}
	_, store, _ := startManager(t, buildRoot, diag)

	_, ok := store.GetFlags("/ws/src/a/a.cpp")
	assert.True(t, ok, "initial scan must merge existing databases")
	assert.Zero(t, diag.warningCount())
}

func TestWatchManager_DatabaseRewrite(t *testing.T) {
	tempDir := t.TempDir()
	buildRoot := filepath.Join(tempDir, "build")
	dbPath := filepath.Join(buildRoot, "pkg_a", testDBName)
	writeDatabase(t, dbPath, []rawRecord{
		{File: "/ws/src/a/a.cpp", Command: "g++ a.cpp", Directory: "/ws"},
	})

	_, store, _ := startManager(t, buildRoot, &fakeDiagnostics{})

	writeDatabase(t, dbPath, []rawRecord{
		{File: "/ws/src/a/a.cpp", Command: "g++ a.cpp", Directory: "/ws"},
		{File: "/ws/src/a/b.cpp", Command: "g++ b.cpp", Directory: "/ws"},
	})

	require.Eventually(t, func() bool {
		_, ok := store.GetFlags("/ws/src/a/b.cpp")
		return ok
	}, 3*time.Second, 20*time.Millisecond, "rewrite must reach the projection")
}

func TestWatchManager_NewPackageDirectory(t *testing.T) {
	tempDir := t.TempDir()
	buildRoot := filepath.Join(tempDir, "build")
	writeDatabase(t, filepath.Join(buildRoot, "pkg_a", testDBName), []rawRecord{
		{File: "/ws/src/a/a.cpp", Command: "g++ a.cpp", Directory: "/ws"},
	})

	_, store, notifier := startManager(t, buildRoot, &fakeDiagnostics{})

	testsRescan := make(chan bool, 1)
	notifier.Subscribe(events.TestsSetChanged, func(payload bool) {
		select {
		case testsRescan <- payload:
		default:
		}
	})

	newPkg := filepath.Join(buildRoot, "pkg_b")
	require.NoError(t, os.MkdirAll(newPkg, 0755))

	select {
	case payload := <-testsRescan:
		assert.True(t, payload)
	case <-time.After(3 * time.Second):
		t.Fatal("expected a tests-set-changed notification for the new package directory")
	}

	// The new package's database is picked up once written.
	writeDatabase(t, filepath.Join(newPkg, testDBName), []rawRecord{
		{File: "/ws/src/b/b.cpp", Command: "g++ b.cpp", Directory: "/ws"},
	})
	require.Eventually(t, func() bool {
		_, ok := store.GetFlags("/ws/src/b/b.cpp")
		return ok
	}, 3*time.Second, 20*time.Millisecond)
}

func TestWatchManager_MissingBuildRootPromptsOnce(t *testing.T) {
	tempDir := t.TempDir()
	buildRoot := filepath.Join(tempDir, "no-such-build")

	diag := &fakeDiagnostics{choice: DecisionIgnore}
	store, notifier := newTestStore(tempDir)
	decision := &MissingDatabaseDecision{}

	first := NewWatchManager(store, notifier, diag, decision, buildRoot, testDBName)
	require.NoError(t, first.Start(context.Background()))
	first.Stop()
	assert.Equal(t, 1, diag.warningCount())

	// The remembered choice suppresses the prompt for a second manager.
	second := NewWatchManager(store, notifier, diag, decision, buildRoot, testDBName)
	require.NoError(t, second.Start(context.Background()))
	second.Stop()
	assert.Equal(t, 1, diag.warningCount())

	// A full reload resets the decision and prompts again.
	decision.Reset()
	third := NewWatchManager(store, notifier, diag, decision, buildRoot, testDBName)
	require.NoError(t, third.Start(context.Background()))
	third.Stop()
	assert.Equal(t, 2, diag.warningCount())
}

func TestWatchManager_EmptyBuildRootPrompts(t *testing.T) {
	tempDir := t.TempDir()
	buildRoot := filepath.Join(tempDir, "build")
	require.NoError(t, os.MkdirAll(buildRoot, 0755))

	diag := &fakeDiagnostics{choice: DecisionIgnore}
	_, _, _ = startManager(t, buildRoot, diag)

	assert.Equal(t, 1, diag.warningCount())
}
