package toolchain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeRunner records invocations and replays canned process output.
type fakeRunner struct {
	calls  []fakeCall
	stdout string
	stderr string
	exit   int
	err    error
}

type fakeCall struct {
	name string
	args []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (string, string, int, error) {
	f.calls = append(f.calls, fakeCall{name: name, args: args})
	return f.stdout, f.stderr, f.exit, f.err
}

func TestClassify(t *testing.T) {
	assert.Equal(t, KindGeneric, Classify("/usr/bin/g++"))
	assert.Equal(t, KindGeneric, Classify("clang++"))
	assert.Equal(t, KindCacheWrapper, Classify("/usr/lib/ccache/ccache"))
	assert.Equal(t, KindCacheWrapper, Classify("sccache"))
	assert.Equal(t, KindCacheWrapper, Classify("distcc"))
	assert.Equal(t, KindGPU, Classify("/usr/local/cuda/bin/nvcc"))
	assert.Equal(t, KindGPU, Classify("nvcc.exe"))
}

const gccVerboseOutput = `Using built-in specs.
Target: x86_64-linux-gnu
#include "..." search starts here:
#include <...> search starts here:
 /usr/include/c++/11
 /usr/include/x86_64-linux-gnu/c++/11
 /usr/lib/gcc/x86_64-linux-gnu/11/include
 /usr/local/include
 /usr/include
End of search list.
# 1 "/dev/null"
`

func TestResolveDefaults_Generic(t *testing.T) {
	runner := &fakeRunner{stderr: gccVerboseOutput}
	resolver := NewResolver(runner, nil)

	paths := resolver.ResolveDefaults(context.Background(), "/usr/bin/g++", nil)

	assert.Equal(t, []string{
		"/usr/include/c++/11",
		"/usr/include/x86_64-linux-gnu/c++/11",
		"/usr/lib/gcc/x86_64-linux-gnu/11/include",
		"/usr/local/include",
		"/usr/include",
	}, paths)
}

func TestResolveDefaults_GenericNonZeroExit(t *testing.T) {
	runner := &fakeRunner{stderr: gccVerboseOutput, exit: 1}
	resolver := NewResolver(runner, nil)

	paths := resolver.ResolveDefaults(context.Background(), "/usr/bin/g++", nil)

	assert.Empty(t, paths)
}

func TestResolveDefaults_WrapperUnwrapping(t *testing.T) {
	runner := &fakeRunner{stderr: gccVerboseOutput}
	resolver := NewResolver(runner, nil)

	paths := resolver.ResolveDefaults(context.Background(), "ccache", []string{"g++", "-std=c++17"})

	assert.NotEmpty(t, paths)
	// The wrapper itself is never invoked; the inner compiler is.
	assert.Len(t, runner.calls, 1)
	assert.Equal(t, "g++", runner.calls[0].name)
}

func TestResolveDefaults_WrapperWithoutInnerCompiler(t *testing.T) {
	runner := &fakeRunner{}
	resolver := NewResolver(runner, nil)

	paths := resolver.ResolveDefaults(context.Background(), "ccache", nil)

	assert.Empty(t, paths)
	assert.Empty(t, runner.calls, "no process should be spawned for an unknown inner compiler")
}

func TestResolveDefaults_GPU(t *testing.T) {
	runner := &fakeRunner{
		stderr: `#$ _NVVM_BRANCH_=nvvm
#$ INCLUDES="-I/usr/local/cuda/bin/../targets/x86_64-linux/include -I/usr/local/cuda/include"
#$ LIBRARIES=  "-L/usr/local/cuda/lib64"
`,
		exit: 1,
	}
	resolver := NewResolver(runner, nil)

	paths := resolver.ResolveDefaults(context.Background(), "/usr/local/cuda/bin/nvcc", []string{"-c", "kernel.cu"})

	assert.Equal(t, []string{
		"/usr/local/cuda/bin/../targets/x86_64-linux/include",
		"/usr/local/cuda/include",
	}, paths)
}

func TestResolveDefaults_GPUUnparsableOutput(t *testing.T) {
	runner := &fakeRunner{stderr: "nvcc fatal: no input files", exit: 1}
	resolver := NewResolver(runner, nil)

	paths := resolver.ResolveDefaults(context.Background(), "nvcc", nil)

	assert.Empty(t, paths)
}

func TestResolveDefaults_Memoized(t *testing.T) {
	runner := &fakeRunner{stderr: gccVerboseOutput}
	resolver := NewResolver(runner, nil)

	first := resolver.ResolveDefaults(context.Background(), "/usr/bin/g++", nil)
	second := resolver.ResolveDefaults(context.Background(), "/usr/bin/g++", nil)

	assert.Equal(t, first, second)
	assert.Len(t, runner.calls, 1, "second resolution must hit the memo")
	assert.True(t, resolver.Cached("/usr/bin/g++"))
}

func TestResolveDefaults_InvalidateClearsMemo(t *testing.T) {
	runner := &fakeRunner{stderr: gccVerboseOutput}
	resolver := NewResolver(runner, nil)

	resolver.ResolveDefaults(context.Background(), "/usr/bin/g++", nil)
	resolver.Invalidate()
	assert.False(t, resolver.Cached("/usr/bin/g++"))

	resolver.ResolveDefaults(context.Background(), "/usr/bin/g++", nil)
	assert.Len(t, runner.calls, 2)
}
