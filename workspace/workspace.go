package workspace

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/meysamhadeli/buildscope/compiledb"
	"github.com/meysamhadeli/buildscope/config"
	"github.com/meysamhadeli/buildscope/depgraph"
	"github.com/meysamhadeli/buildscope/events"
	"github.com/meysamhadeli/buildscope/pkgmeta"
	"github.com/meysamhadeli/buildscope/toolchain"
	"github.com/meysamhadeli/buildscope/workspace/contracts"
	"github.com/meysamhadeli/buildscope/workspace/models"
)

// State is the lifecycle phase of one workspace instance.
type State int

const (
	Uninitialized State = iota
	Loading
	Ready
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "uninitialized"
	}
}

// Workspace owns every piece of per-workspace state: the merged compile
// database projection, the package dependency graph and the file watches.
// Reload rebuilds all of it from scratch; concurrent reloads are not
// supported and are serialized by an internal mutex.
type Workspace struct {
	cfg      *config.Config
	provider contracts.IDirectoryProvider
	diag     contracts.IDiagnostics
	notifier *events.Notifier
	resolver *toolchain.Resolver

	parser   *compiledb.Parser
	store    *compiledb.Store
	registry *depgraph.Registry
	decision *compiledb.MissingDatabaseDecision
	stats    *sessionStats

	mu       sync.Mutex
	state    State
	root     string
	watch    *compiledb.WatchManager
	reloadMu sync.Mutex
}

func NewWorkspace(
	cfg *config.Config,
	provider contracts.IDirectoryProvider,
	diag contracts.IDiagnostics,
	notifier *events.Notifier,
	resolver *toolchain.Resolver,
) *Workspace {
	w := &Workspace{
		cfg:      cfg,
		provider: provider,
		diag:     diag,
		notifier: notifier,
		resolver: resolver,
		registry: depgraph.NewRegistry(),
		decision: &compiledb.MissingDatabaseDecision{},
		stats:    newSessionStats(),
	}
	w.parser = compiledb.NewParser(resolver, w.isWorkspaceLocal)
	w.store = compiledb.NewStore(w.parser, notifier)
	return w
}

// isWorkspaceLocal reports whether a path lies under the workspace root.
// Paths outside it are system include paths.
func (w *Workspace) isWorkspaceLocal(path string) bool {
	w.mu.Lock()
	root := w.root
	w.mu.Unlock()
	if root == "" {
		return false
	}
	cleaned := filepath.Clean(path)
	return cleaned == root || strings.HasPrefix(cleaned, root+string(os.PathSeparator))
}

func (w *Workspace) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Workspace) Store() *compiledb.Store {
	return w.store
}

func (w *Workspace) Registry() *depgraph.Registry {
	return w.registry
}

func (w *Workspace) Stats() *sessionStats {
	return w.stats
}

func (w *Workspace) setState(state State) {
	w.mu.Lock()
	w.state = state
	w.mu.Unlock()
}

// Reload rebuilds the whole workspace: directories are re-resolved, every
// compile database re-merged and the package graph re-built. A failure to
// resolve the build directory aborts the reload and leaves the workspace
// uninitialized; individual package failures only skip that package.
func (w *Workspace) Reload(ctx context.Context) error {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	started := time.Now()
	w.setState(Loading)

	w.diag.ReportProgress(10, "Refreshing build profile")
	w.provider.Refresh()

	w.diag.ReportProgress(10, "Clearing workspace state")
	w.clearState()

	w.diag.ReportProgress(20, "Locating compile databases")
	buildDir, err := w.provider.GetBuildDir(ctx)
	if err != nil {
		return w.abortReload(fmt.Errorf("failed to resolve build directory: %w", err))
	}
	srcDir, err := w.provider.GetSrcDir(ctx)
	if err != nil {
		return w.abortReload(fmt.Errorf("failed to resolve source directory: %w", err))
	}

	w.mu.Lock()
	w.root = filepath.Dir(filepath.Clean(srcDir))
	w.mu.Unlock()

	watch := compiledb.NewWatchManager(w.store, w.notifier, w.diag, w.decision, buildDir, w.cfg.CompileDBName)
	if err := watch.Start(ctx); err != nil {
		return w.abortReload(fmt.Errorf("failed to watch compile databases: %w", err))
	}
	w.mu.Lock()
	w.watch = watch
	w.mu.Unlock()

	w.diag.ReportProgress(30, "Parsing package descriptors")
	w.loadPackages(ctx, srcDir)
	if ctx.Err() != nil {
		// Cancelled mid-enumeration: loaded packages stay, but the graph
		// and the ready transition are skipped.
		return ctx.Err()
	}

	w.diag.ReportProgress(20, "Building dependency graph")
	w.registry.BuildGraph()

	w.diag.ReportProgress(10, "Workspace ready")
	w.setState(Ready)
	w.notifier.Emit(events.WorkspaceInitialized, true)

	databases, records := w.store.Counts()
	w.stats.ReloadCompleted(w.registry.Count(), databases, records, time.Since(started))
	return nil
}

// clearState drops watchers, databases, packages and derived caches before
// repopulation.
func (w *Workspace) clearState() {
	w.mu.Lock()
	watch := w.watch
	w.watch = nil
	w.mu.Unlock()

	if watch != nil {
		watch.Stop()
	}
	w.store.Reset()
	w.registry.Clear()
	w.resolver.Invalidate()
	w.decision.Reset()
}

func (w *Workspace) abortReload(err error) error {
	w.diag.ShowError(err.Error())
	w.setState(Uninitialized)
	return err
}

// loadPackages enumerates and parses every package descriptor under the
// source directory. Individual failures surface one diagnostic each and
// never abort the reload; cancellation is checked between descriptors.
func (w *Workspace) loadPackages(ctx context.Context, srcDir string) {
	manifests, err := pkgmeta.Discover(srcDir)
	if err != nil {
		w.diag.ShowError(fmt.Sprintf("failed to enumerate packages: %v", err))
		return
	}

	for _, manifestPath := range manifests {
		if ctx.Err() != nil {
			return
		}
		manifest, err := pkgmeta.Load(manifestPath)
		if err != nil {
			w.diag.ShowError(fmt.Sprintf("skipping package: %v", err))
			continue
		}
		w.registry.Add(&depgraph.Package{
			Name:         manifest.Name,
			RootPath:     filepath.Dir(manifestPath),
			Dependencies: manifest.Dependencies,
		})
	}
}

// Dispose tears the workspace down; the instance goes back to
// uninitialized and can be reloaded later.
func (w *Workspace) Dispose() {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()
	w.clearState()
	w.setState(Uninitialized)
}

// GetSourceFileConfiguration composes the stored flags of a source file
// into the external configuration shape. Standard and IntelliSense mode
// pass through from configuration; every interpreted flag is logged.
func (w *Workspace) GetSourceFileConfiguration(sourceFile string) (*models.SourceFileConfiguration, bool) {
	flags, ok := w.store.GetFlags(sourceFile)
	if !ok {
		return nil, false
	}

	for _, path := range flags.IncludePaths {
		log.Printf("%s: include path %s", sourceFile, path)
	}
	for _, define := range flags.Defines {
		log.Printf("%s: define %s", sourceFile, define)
	}
	log.Printf("%s: compiler %s", sourceFile, flags.CompilerPath)

	return &models.SourceFileConfiguration{
		Standard:         w.cfg.Standard,
		IntelliSenseMode: w.cfg.IntelliSenseMode,
		IncludePath:      flags.IncludePaths,
		Defines:          flags.Defines,
		CompilerPath:     flags.CompilerPath,
	}, true
}

// GetPackageContaining returns the package whose root is the deepest
// ancestor of the given file.
func (w *Workspace) GetPackageContaining(file string) (*depgraph.Package, bool) {
	return w.registry.PackageContaining(file)
}

// IteratePossibleSourceFiles offers a file to its owning package first,
// then walks the dependency graph outward over dependees until a package
// accepts it. Returns whether any package accepted.
func (w *Workspace) IteratePossibleSourceFiles(file string, accept func(*depgraph.Package) bool) bool {
	owner, ok := w.GetPackageContaining(file)
	if !ok {
		return false
	}
	if accept(owner) {
		return true
	}
	return w.registry.TransitiveDependees(owner, accept)
}
