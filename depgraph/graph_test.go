package depgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// diamond builds A <- B <- C and A <- D (B, C and D depend on their left
// neighbor).
func diamond() *Registry {
	registry := NewRegistry()
	registry.Add(&Package{Name: "A", RootPath: "/ws/src/a"})
	registry.Add(&Package{Name: "B", RootPath: "/ws/src/b", Dependencies: []string{"A"}})
	registry.Add(&Package{Name: "C", RootPath: "/ws/src/c", Dependencies: []string{"B"}})
	registry.Add(&Package{Name: "D", RootPath: "/ws/src/d", Dependencies: []string{"A"}})
	registry.BuildGraph()
	return registry
}

func TestBuildGraph_ReverseEdges(t *testing.T) {
	registry := diamond()

	a, ok := registry.Get("A")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"B", "D"}, a.Dependees)

	b, ok := registry.Get("B")
	require.True(t, ok)
	assert.Equal(t, []string{"C"}, b.Dependees)
}

func TestTransitiveDependees_VisitsClosureOnce(t *testing.T) {
	registry := diamond()
	a, _ := registry.Get("A")

	var order []string
	exhausted := registry.TransitiveDependees(a, func(pkg *Package) bool {
		order = append(order, pkg.Name)
		return false
	})

	assert.False(t, exhausted)
	assert.ElementsMatch(t, []string{"B", "C", "D"}, order)
	// Breadth-first: direct dependees before their own dependees.
	assert.Equal(t, "C", order[2])
}

func TestTransitiveDependees_ShortCircuit(t *testing.T) {
	registry := diamond()
	a, _ := registry.Get("A")

	visits := 0
	stopped := registry.TransitiveDependees(a, func(pkg *Package) bool {
		visits++
		return true
	})

	assert.True(t, stopped)
	assert.Equal(t, 1, visits)
}

func TestTransitiveDependees_UnresolvableNameSkipped(t *testing.T) {
	registry := NewRegistry()
	a := &Package{Name: "A", Dependees: []string{"ghost", "B"}}
	registry.Add(a)
	registry.Add(&Package{Name: "B", Dependencies: []string{"A"}})

	var order []string
	registry.TransitiveDependees(a, func(pkg *Package) bool {
		order = append(order, pkg.Name)
		return false
	})

	assert.Equal(t, []string{"B"}, order)
}

func TestTransitiveDependees_CycleTerminates(t *testing.T) {
	registry := NewRegistry()
	registry.Add(&Package{Name: "A", Dependencies: []string{"B"}})
	registry.Add(&Package{Name: "B", Dependencies: []string{"A"}})
	registry.BuildGraph()

	a, _ := registry.Get("A")
	visits := 0
	registry.TransitiveDependees(a, func(pkg *Package) bool {
		visits++
		return false
	})

	assert.Equal(t, 1, visits, "a dependency cycle must not loop")
}

func TestPackageContaining_DeepestMatch(t *testing.T) {
	registry := NewRegistry()
	registry.Add(&Package{Name: "outer", RootPath: "/ws/src/outer"})
	registry.Add(&Package{Name: "inner", RootPath: "/ws/src/outer/inner"})

	pkg, ok := registry.PackageContaining("/ws/src/outer/inner/src/main.cpp")
	require.True(t, ok)
	assert.Equal(t, "inner", pkg.Name)

	pkg, ok = registry.PackageContaining("/ws/src/outer/lib.cpp")
	require.True(t, ok)
	assert.Equal(t, "outer", pkg.Name)

	_, ok = registry.PackageContaining("/elsewhere/file.cpp")
	assert.False(t, ok)
}

func TestContainsFile(t *testing.T) {
	pkg := &Package{Name: "a", RootPath: "/ws/src/a"}

	assert.True(t, pkg.ContainsFile("/ws/src/a/src/a.cpp"))
	assert.True(t, pkg.ContainsFile("/ws/src/a"))
	assert.False(t, pkg.ContainsFile("/ws/src/ab/src/a.cpp"))
}
