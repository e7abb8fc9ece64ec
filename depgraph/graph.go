package depgraph

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Package is one workspace package with its declared forward dependencies
// and the reverse edges computed by BuildGraph.
type Package struct {
	Name         string
	RootPath     string
	Dependencies []string
	Dependees    []string
}

// ContainsFile reports whether a file lives under the package root.
func (p *Package) ContainsFile(path string) bool {
	if p.RootPath == "" {
		return false
	}
	root := filepath.Clean(p.RootPath)
	cleaned := filepath.Clean(path)
	return cleaned == root || strings.HasPrefix(cleaned, root+string(os.PathSeparator))
}

// Registry holds every known package by name and the dependency graph over
// them. It is rebuilt from empty on each workspace reload.
type Registry struct {
	mu       sync.RWMutex
	packages map[string]*Package
}

func NewRegistry() *Registry {
	return &Registry{packages: make(map[string]*Package)}
}

func (r *Registry) Add(pkg *Package) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packages[pkg.Name] = pkg
}

func (r *Registry) Get(name string) (*Package, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pkg, ok := r.packages[name]
	return pkg, ok
}

// Names lists every registered package name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.packages))
	for name := range r.packages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.packages)
}

// Clear drops every package. Must run before re-registering on a reload;
// BuildGraph on a stale registry would duplicate dependee edges.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packages = make(map[string]*Package)
}

// PackageContaining returns the package whose root is the deepest ancestor
// of the given file, so nested package roots resolve to the innermost one.
func (r *Registry) PackageContaining(path string) (*Package, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *Package
	for _, pkg := range r.packages {
		if !pkg.ContainsFile(path) {
			continue
		}
		if best == nil || len(pkg.RootPath) > len(best.RootPath) {
			best = pkg
		}
	}
	return best, best != nil
}

// BuildGraph computes the reverse dependency edges: for every package, each
// declared dependency that resolves to a known package gains this package
// as a dependee. Unknown dependency names are skipped.
func (r *Registry) BuildGraph() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, pkg := range r.packages {
		for _, depName := range pkg.Dependencies {
			if dep, ok := r.packages[depName]; ok {
				dep.Dependees = append(dep.Dependees, pkg.Name)
			}
		}
	}
}

// TransitiveDependees walks the reverse dependency edges breadth-first from
// start's direct dependees. visit runs once per first-seen package; names
// that resolve to no known package are marked seen and skipped. The walk
// stops and returns true as soon as visit returns true, false when the
// closure is exhausted.
func (r *Registry) TransitiveDependees(start *Package, visit func(*Package) bool) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := map[string]bool{start.Name: true}
	queue := make([]string, 0, len(start.Dependees))
	for _, name := range start.Dependees {
		if !seen[name] {
			seen[name] = true
			queue = append(queue, name)
		}
	}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		pkg, ok := r.packages[name]
		if !ok {
			continue
		}
		if visit(pkg) {
			return true
		}
		for _, dependee := range pkg.Dependees {
			if !seen[dependee] {
				seen[dependee] = true
				queue = append(queue, dependee)
			}
		}
	}
	return false
}
