package toolchain

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/meysamhadeli/buildscope/workspace/contracts"
)

// Kind classifies a compiler executable by its base name.
type Kind int

const (
	// KindGeneric is a plain C++-family compiler (gcc, g++, clang, ...).
	KindGeneric Kind = iota
	// KindCacheWrapper is a caching or distributing proxy (ccache, sccache,
	// distcc); the real compiler is the first remaining argument.
	KindCacheWrapper
	// KindGPU is the CUDA compiler driver, which reports its internal
	// include flags on the diagnostic path of a dry run.
	KindGPU
)

var cacheWrapperTokens = []string{"ccache", "sccache", "distcc"}

const gpuCompilerName = "nvcc"

// Classify determines the resolution strategy for a compiler path.
func Classify(compilerPath string) Kind {
	base := strings.TrimSuffix(filepath.Base(compilerPath), ".exe")
	if base == gpuCompilerName {
		return KindGPU
	}
	for _, token := range cacheWrapperTokens {
		if strings.Contains(base, token) {
			return KindCacheWrapper
		}
	}
	return KindGeneric
}

// gpuIncludesPattern matches the INCLUDES="..." line nvcc emits in
// dry-run verbose mode.
var gpuIncludesPattern = regexp.MustCompile(`INCLUDES="([^"]*)"`)

// Resolver determines the implicit system include search paths a compiler
// would use with no explicit -I flags. Results are memoized per distinct
// compiler path until Invalidate; an optional on-disk cache survives
// process restarts.
type Resolver struct {
	mu        sync.Mutex
	runner    contracts.ICommandRunner
	memo      map[string][]string
	diskCache *DefaultsCache
}

// NewResolver creates a Resolver. diskCache may be nil to disable the
// persistent layer.
func NewResolver(runner contracts.ICommandRunner, diskCache *DefaultsCache) *Resolver {
	return &Resolver{
		runner:    runner,
		memo:      make(map[string][]string),
		diskCache: diskCache,
	}
}

// Cached reports whether defaults for the compiler are already memoized.
func (r *Resolver) Cached(compilerPath string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.memo[compilerPath]
	return ok
}

// Invalidate drops every memoized entry. Called on a full workspace reload.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.memo = make(map[string][]string)
}

// ResolveDefaults returns the compiler's implicit include search paths, in
// the order the compiler reports them. Resolution failures degrade to an
// empty list and never return an error; the owning record stays usable.
func (r *Resolver) ResolveDefaults(ctx context.Context, compilerPath string, remainingArgs []string) []string {
	r.mu.Lock()
	if paths, ok := r.memo[compilerPath]; ok {
		r.mu.Unlock()
		return paths
	}
	r.mu.Unlock()

	paths := r.resolve(ctx, compilerPath, remainingArgs)

	r.mu.Lock()
	r.memo[compilerPath] = paths
	r.mu.Unlock()

	return paths
}

func (r *Resolver) resolve(ctx context.Context, compilerPath string, remainingArgs []string) []string {
	switch Classify(compilerPath) {
	case KindCacheWrapper:
		if len(remainingArgs) == 0 {
			log.Printf("cannot resolve defaults for %s: wrapper without inner compiler", compilerPath)
			return nil
		}
		return r.ResolveDefaults(ctx, remainingArgs[0], remainingArgs[1:])
	case KindGPU:
		return r.resolveWithDiskCache(compilerPath, func() []string {
			return r.resolveGPU(ctx, compilerPath, remainingArgs)
		})
	default:
		return r.resolveWithDiskCache(compilerPath, func() []string {
			return r.resolveGeneric(ctx, compilerPath)
		})
	}
}

// resolveWithDiskCache consults the persistent cache before invoking the
// compiler, and stores a fresh result afterwards.
func (r *Resolver) resolveWithDiskCache(compilerPath string, invoke func() []string) []string {
	if r.diskCache != nil {
		if paths, found := r.diskCache.Get(compilerPath); found {
			return paths
		}
	}

	paths := invoke()

	if r.diskCache != nil && len(paths) > 0 {
		if err := r.diskCache.Set(compilerPath, paths); err != nil {
			log.Printf("failed to cache defaults for %s: %v", compilerPath, err)
		}
	}
	return paths
}

// resolveGeneric preprocesses an empty input in verbose mode and scans the
// diagnostic output for the include search list markers.
func (r *Resolver) resolveGeneric(ctx context.Context, compilerPath string) []string {
	stdout, stderr, exitCode, err := r.runner.Run(ctx, compilerPath, "-xc++", "-E", "-v", os.DevNull)
	if err != nil {
		log.Printf("failed to invoke %s for default include paths: %v", compilerPath, err)
		return nil
	}
	if exitCode != 0 {
		log.Printf("%s exited with code %d while resolving default include paths", compilerPath, exitCode)
		return nil
	}
	return parseSearchList(stderr + "\n" + stdout)
}

// parseSearchList extracts paths between the verbose-output search list
// markers. Both quote and angle-bracket sections contribute, in order.
func parseSearchList(output string) []string {
	var paths []string
	inSearchList := false

	for _, line := range strings.Split(output, "\n") {
		switch {
		case strings.Contains(line, `#include "..."`) && strings.Contains(line, "starts here"),
			strings.Contains(line, `#include <...>`) && strings.Contains(line, "starts here"):
			inSearchList = true
		case strings.Contains(line, "End of search list"):
			inSearchList = false
		case inSearchList:
			if path := strings.TrimSpace(line); path != "" {
				paths = append(paths, path)
			}
		}
	}
	return paths
}

// resolveGPU dry-runs the CUDA compiler. nvcc reports its internal include
// flags on stderr with a non-zero exit, so the exit code is not checked.
func (r *Resolver) resolveGPU(ctx context.Context, compilerPath string, remainingArgs []string) []string {
	args := append([]string{"--dryrun", "-v"}, remainingArgs...)
	_, stderr, _, err := r.runner.Run(ctx, compilerPath, args...)
	if err != nil {
		log.Printf("failed to invoke %s for default include paths: %v", compilerPath, err)
		return nil
	}

	var paths []string
	for _, line := range strings.Split(stderr, "\n") {
		match := gpuIncludesPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		for _, fragment := range strings.Split(match[1], "-I") {
			if path := strings.TrimSpace(fragment); path != "" {
				paths = append(paths, path)
			}
		}
	}
	return paths
}
