// Package node holds the per-task state the graph and scheduler share.
package node

import (
	"fmt"
	"maps"
	"slices"
	"sync/atomic"

	"github.com/specialistvlad/buildgridgo/internal/builder"
	"github.com/specialistvlad/buildgridgo/internal/status"
	"github.com/specialistvlad/buildgridgo/internal/stdio"
)

// Node is a single vertex in the task graph, wrapping one Builder.
//
// Edges are stored as registration indexes into the owning graph, never as
// pointers, so a node never holds a reference cycle. dependencies shrinks as
// the scheduler completes prerequisites; dependents never changes once the
// graph is frozen.
//
// Apart from the status, which is atomic, mutation must be serialized by the
// caller. The scheduler does this through queue.ReadyQueue.Commit.
type Node struct {
	// Name is the unique task name.
	Name string
	// Builder performs the work for this node.
	Builder builder.Builder
	// Index is the registration order of the node in its graph.
	Index int

	// Err stores the error reported by the builder, if any.
	Err error
	// BlockedBy is the name of the failed task that blocked this one.
	BlockedBy string
	// Output collects what the builder wrote while executing.
	Output *stdio.Summarizer
	// Stopwatch times the builder invocation.
	Stopwatch Stopwatch

	// --- Internal state management ---

	status       atomic.Int32
	dependencies map[int]struct{}
	dependents   []int

	criticalPath int
	cpComputed   bool
}

// New returns a Ready node with no edges.
func New(name string, b builder.Builder, index int) *Node {
	n := &Node{
		Name:         name,
		Builder:      b,
		Index:        index,
		dependencies: make(map[int]struct{}),
	}
	n.status.Store(int32(status.Ready))
	return n
}

// Status returns the current lifecycle status.
func (n *Node) Status() status.Status {
	return status.Status(n.status.Load())
}

// SetStatus moves the node to a new status, enforcing the lifecycle rules.
func (n *Node) SetStatus(to status.Status) error {
	from := n.Status()
	if !status.CanTransition(from, to) {
		return fmt.Errorf("task %q: illegal status transition %s -> %s", n.Name, from, to)
	}
	n.status.Store(int32(to))
	return nil
}

// AddDependency records that this node needs the node at index dep. It
// reports false if the edge already existed.
func (n *Node) AddDependency(dep int) bool {
	if _, ok := n.dependencies[dep]; ok {
		return false
	}
	n.dependencies[dep] = struct{}{}
	return true
}

// AddDependent records that the node at index dep needs this node. Indexes
// are kept sorted so traversal follows registration order.
func (n *Node) AddDependent(dep int) {
	i, found := slices.BinarySearch(n.dependents, dep)
	if found {
		return
	}
	n.dependents = slices.Insert(n.dependents, i, dep)
}

// RemoveDependency removes a satisfied prerequisite.
func (n *Node) RemoveDependency(dep int) {
	delete(n.dependencies, dep)
}

// DependencyCount returns the number of unsatisfied prerequisites.
func (n *Node) DependencyCount() int {
	return len(n.dependencies)
}

// Dependencies returns the indexes of unsatisfied prerequisites, sorted.
func (n *Node) Dependencies() []int {
	return slices.Sorted(maps.Keys(n.dependencies))
}

// Dependents returns the indexes of nodes that need this one, sorted.
func (n *Node) Dependents() []int {
	return slices.Clone(n.dependents)
}

// CriticalPathLength returns the longest chain of dependents below this node
// and whether it has been computed yet. A node with no dependents has
// length 0.
func (n *Node) CriticalPathLength() (int, bool) {
	return n.criticalPath, n.cpComputed
}

// SetCriticalPathLength stores the computed length. Once set it is final.
func (n *Node) SetCriticalPathLength(length int) {
	if n.cpComputed {
		return
	}
	n.criticalPath = length
	n.cpComputed = true
}

func (n *Node) String() string {
	return n.Name
}
