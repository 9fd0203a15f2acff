package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/buildgridgo/internal/builder"
	"github.com/specialistvlad/buildgridgo/internal/node"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestGraph registers every name in order and returns the graph.
func newTestGraph(t *testing.T, names ...string) *Graph {
	t.Helper()
	g := New(context.Background())
	for _, name := range names {
		_, err := g.AddTask(name, builder.NewFunc(name, nil))
		require.NoError(t, err)
	}
	return g
}

func names(nodes []*node.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	return out
}

func TestAddTask(t *testing.T) {
	t.Parallel()

	t.Run("registers in order", func(t *testing.T) {
		t.Parallel()
		g := newTestGraph(t, "a", "b")

		assert.Equal(t, 2, g.Len())
		assert.True(t, g.HasTask("b"))
		assert.False(t, g.HasTask("c"))

		n, ok := g.Task("b")
		require.True(t, ok)
		assert.Equal(t, 1, n.Index)
		assert.Same(t, n, g.Node(1))
	})

	t.Run("rejects duplicates", func(t *testing.T) {
		t.Parallel()
		g := newTestGraph(t, "a")

		_, err := g.AddTask("a", builder.NewFunc("a", nil))

		var dup *DuplicateTaskError
		require.ErrorAs(t, err, &dup)
		assert.Equal(t, "a", dup.Name)
		assert.ErrorIs(t, err, ErrDuplicateTask)
	})

	t.Run("rejects empty name and nil builder", func(t *testing.T) {
		t.Parallel()
		g := New(context.Background())

		_, err := g.AddTask("", builder.NewFunc("", nil))
		assert.ErrorIs(t, err, ErrInvalidTask)
		_, err = g.AddTask("a", nil)
		assert.ErrorIs(t, err, ErrInvalidTask)
	})
}

func TestAddDependency(t *testing.T) {
	t.Parallel()

	t.Run("links both directions", func(t *testing.T) {
		t.Parallel()
		g := newTestGraph(t, "lib", "app")

		require.NoError(t, g.AddDependency("app", "lib"))
		require.NoError(t, g.AddDependency("app", "lib"))

		app, _ := g.Task("app")
		lib, _ := g.Task("lib")
		assert.Equal(t, []int{lib.Index}, app.Dependencies())
		assert.Equal(t, []int{app.Index}, lib.Dependents())
	})

	t.Run("unknown task", func(t *testing.T) {
		t.Parallel()
		g := newTestGraph(t, "app")

		err := g.AddDependency("missing", "app")
		var unknown *UnknownTaskError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "missing", unknown.Name)
		assert.Empty(t, unknown.Referrer)
	})

	t.Run("unknown dependency", func(t *testing.T) {
		t.Parallel()
		g := newTestGraph(t, "app")

		err := g.AddDependencies("app", "missing")
		var unknown *UnknownTaskError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "missing", unknown.Name)
		assert.Equal(t, "app", unknown.Referrer)
		assert.ErrorIs(t, err, ErrUnknownTask)
		assert.Contains(t, err.Error(), `"app" depends on "missing"`)
	})
}

func TestExecutionOrder_Chain(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	g := newTestGraph(t, "A", "B", "C", "D")
	require.NoError(t, g.AddDependency("B", "A"))
	require.NoError(t, g.AddDependency("C", "B"))
	require.NoError(t, g.AddDependency("D", "C"))

	// --- Act ---
	order, err := g.ExecutionOrder()

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, names(order))

	want := map[string]int{"A": 3, "B": 2, "C": 1, "D": 0}
	for _, n := range order {
		cp, ok := n.CriticalPathLength()
		require.True(t, ok)
		assert.Equal(t, want[n.Name], cp, n.Name)
	}
}

func TestExecutionOrder_StableTies(t *testing.T) {
	t.Parallel()

	// Registered in reverse so the order cannot come from name sorting.
	g := newTestGraph(t, "z-app", "y-lib", "x-tool", "w-core")
	require.NoError(t, g.AddDependencies("z-app", "y-lib", "w-core"))
	require.NoError(t, g.AddDependency("y-lib", "w-core"))

	order, err := g.ExecutionOrder()
	require.NoError(t, err)

	want := []string{"w-core", "y-lib", "z-app", "x-tool"}
	if diff := cmp.Diff(want, names(order)); diff != "" {
		t.Errorf("ExecutionOrder() mismatch (-want +got):\n%s", diff)
	}
}

func TestExecutionOrder_Diamond(t *testing.T) {
	t.Parallel()

	g := newTestGraph(t, "base", "left", "right", "top")
	require.NoError(t, g.AddDependencies("left", "base"))
	require.NoError(t, g.AddDependencies("right", "base"))
	require.NoError(t, g.AddDependencies("top", "left", "right"))

	order, err := g.ExecutionOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"base", "left", "right", "top"}, names(order))

	base, _ := g.Task("base")
	cp, _ := base.CriticalPathLength()
	assert.Equal(t, 2, cp)
}

func TestExecutionOrder_Cycles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		tasks []string
		deps  [][2]string
		want  []string
	}{
		{
			name:  "two nodes",
			tasks: []string{"A", "B"},
			deps:  [][2]string{{"A", "B"}, {"B", "A"}},
			want:  []string{"A", "B", "A"},
		},
		{
			name:  "self dependency",
			tasks: []string{"A"},
			deps:  [][2]string{{"A", "A"}},
			want:  []string{"A", "A"},
		},
		{
			name:  "three nodes behind an acyclic prefix",
			tasks: []string{"root", "A", "B", "C"},
			deps:  [][2]string{{"A", "root"}, {"B", "A"}, {"C", "B"}, {"A", "C"}},
			want:  []string{"A", "C", "B", "A"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			g := newTestGraph(t, tc.tasks...)
			for _, d := range tc.deps {
				require.NoError(t, g.AddDependency(d[0], d[1]))
			}

			_, err := g.ExecutionOrder()

			var cycle *CyclicDependencyError
			require.ErrorAs(t, err, &cycle)
			assert.Equal(t, tc.want, cycle.Path)
			assert.True(t, errors.Is(err, ErrCyclicDependency))
		})
	}
}

func TestExecutionOrder_CycleMessage(t *testing.T) {
	t.Parallel()

	g := newTestGraph(t, "A", "B")
	require.NoError(t, g.AddDependency("A", "B"))
	require.NoError(t, g.AddDependency("B", "A"))

	_, err := g.ExecutionOrder()
	require.Error(t, err)
	assert.Equal(t, "cyclic dependency encountered:\n  A\n  -> B\n  -> A", err.Error())
}

func TestExecutionOrder_IdempotentAndFrozen(t *testing.T) {
	t.Parallel()

	g := newTestGraph(t, "a", "b", "c")
	require.NoError(t, g.AddDependency("c", "a"))

	first, err := g.ExecutionOrder()
	require.NoError(t, err)
	first[0] = nil

	second, err := g.ExecutionOrder()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, names(second))

	_, err = g.AddTask("d", builder.NewFunc("d", nil))
	assert.ErrorIs(t, err, ErrGraphFrozen)
	assert.ErrorIs(t, g.AddDependency("b", "a"), ErrGraphFrozen)
}

func TestExecutionOrder_Completeness(t *testing.T) {
	t.Parallel()

	g := New(context.Background())
	var want []string
	for i := 0; i < 200; i++ {
		name := string(rune('a'+i%26)) + string(rune('0'+i/26))
		want = append(want, name)
		_, err := g.AddTask(name, builder.NewFunc(name, nil))
		require.NoError(t, err)
		if i > 0 {
			require.NoError(t, g.AddDependency(name, want[i-1]))
		}
	}

	order, err := g.ExecutionOrder()
	require.NoError(t, err)
	assert.Equal(t, want, names(order), "a long chain must come out in chain order")
}
