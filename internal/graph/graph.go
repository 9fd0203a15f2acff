// Package graph registers tasks and their dependency edges and computes the
// order in which the scheduler should consider them.
//
// # Representation
//
// Nodes live in an arena indexed by registration order. Edges are index
// sets on each node, so two nodes that depend on each other never hold
// pointers to one another.
//
// # Ordering
//
// ExecutionOrder runs a single iterative depth-first walk along the
// dependents direction. The walk detects cycles and, in post-order, fills in
// each node's critical path length: 0 for a node nothing depends on, else one
// more than the longest of its dependents. Nodes are then stably sorted by
// descending critical path, so ties keep registration order.
//
// # Lifecycle
//
// Once ExecutionOrder succeeds the graph is frozen and rejects further
// registration. A Graph serves exactly one scheduler run and is not safe for
// concurrent registration.
package graph

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/specialistvlad/buildgridgo/internal/builder"
	"github.com/specialistvlad/buildgridgo/internal/ctxlog"
	"github.com/specialistvlad/buildgridgo/internal/node"
)

// Graph is the registry of tasks for one run.
type Graph struct {
	logger *slog.Logger
	nodes  []*node.Node
	byName map[string]int
	order  []*node.Node
}

// New returns an empty graph that logs through the logger carried by ctx.
func New(ctx context.Context) *Graph {
	return &Graph{
		logger: ctxlog.FromContext(ctx),
		byName: make(map[string]int),
	}
}

// AddTask registers a task backed by b and returns its node.
func (g *Graph) AddTask(name string, b builder.Builder) (*node.Node, error) {
	if g.order != nil {
		return nil, ErrGraphFrozen
	}
	if name == "" || b == nil {
		return nil, fmt.Errorf("%w: a task needs a name and a builder", ErrInvalidTask)
	}
	if _, ok := g.byName[name]; ok {
		return nil, &DuplicateTaskError{Name: name}
	}

	n := node.New(name, b, len(g.nodes))
	g.nodes = append(g.nodes, n)
	g.byName[name] = n.Index
	g.logger.Debug("Registered task.", "task", name, "index", n.Index)
	return n, nil
}

// HasTask reports whether a task with the given name is registered.
func (g *Graph) HasTask(name string) bool {
	_, ok := g.byName[name]
	return ok
}

// Task returns the node registered under name.
func (g *Graph) Task(name string) (*node.Node, bool) {
	i, ok := g.byName[name]
	if !ok {
		return nil, false
	}
	return g.nodes[i], true
}

// Node returns the node at a registration index. It panics if i is out of
// range, like a slice index.
func (g *Graph) Node(i int) *node.Node {
	return g.nodes[i]
}

// Len returns the number of registered tasks.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Nodes returns all nodes in registration order.
func (g *Graph) Nodes() []*node.Node {
	return slices.Clone(g.nodes)
}

// AddDependency records that task needs dependency to finish first. Adding
// the same edge twice has no further effect. A task depending on itself is
// accepted here and reported as a cycle by ExecutionOrder.
func (g *Graph) AddDependency(task, dependency string) error {
	if g.order != nil {
		return ErrGraphFrozen
	}
	ti, ok := g.byName[task]
	if !ok {
		return &UnknownTaskError{Name: task}
	}
	di, ok := g.byName[dependency]
	if !ok {
		return &UnknownTaskError{Name: dependency, Referrer: task}
	}

	if g.nodes[ti].AddDependency(di) {
		g.nodes[di].AddDependent(ti)
		g.logger.Debug("Added dependency.", "task", task, "dependency", dependency)
	}
	return nil
}

// AddDependencies records several dependencies of task, stopping at the
// first error.
func (g *Graph) AddDependencies(task string, dependencies ...string) error {
	for _, dep := range dependencies {
		if err := g.AddDependency(task, dep); err != nil {
			return err
		}
	}
	return nil
}

// ExecutionOrder validates the graph and returns every node sorted by
// descending critical path length. Repeated calls return the same order. The
// returned slice is a copy and may be modified by the caller.
func (g *Graph) ExecutionOrder() ([]*node.Node, error) {
	if g.order != nil {
		return slices.Clone(g.order), nil
	}

	if err := g.walk(); err != nil {
		return nil, err
	}

	order := slices.Clone(g.nodes)
	slices.SortStableFunc(order, func(a, b *node.Node) int {
		acp, _ := a.CriticalPathLength()
		bcp, _ := b.CriticalPathLength()
		return cmp.Compare(bcp, acp)
	})
	g.order = order

	g.logger.Debug("Computed execution order.", "tasks", len(order))
	return slices.Clone(order), nil
}

type mark uint8

const (
	unvisited mark = iota
	inProgress
	done
)

// frame is one level of the explicit DFS stack.
type frame struct {
	index int
	next  int // position in the node's dependents still to visit
}

// walk performs cycle detection and critical path computation in one
// iterative post-order traversal along dependents.
func (g *Graph) walk() error {
	marks := make([]mark, len(g.nodes))
	var stack []frame

	for root := range g.nodes {
		if marks[root] != unvisited {
			continue
		}
		marks[root] = inProgress
		stack = append(stack, frame{index: root})

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			n := g.nodes[top.index]
			dependents := n.Dependents()

			if top.next < len(dependents) {
				child := dependents[top.next]
				top.next++
				switch marks[child] {
				case inProgress:
					return g.cycleError(stack, child)
				case unvisited:
					marks[child] = inProgress
					stack = append(stack, frame{index: child})
				}
				continue
			}

			length := 0
			for _, d := range dependents {
				cp, _ := g.nodes[d].CriticalPathLength()
				length = max(length, cp+1)
			}
			n.SetCriticalPathLength(length)
			marks[top.index] = done
			stack = stack[:len(stack)-1]
		}
	}
	return nil
}

// cycleError builds the cycle from the stack segment that starts at the
// repeated node. The stack runs in dependents direction, so the path is
// reversed to read as "depends on".
func (g *Graph) cycleError(stack []frame, repeated int) error {
	start := slices.IndexFunc(stack, func(f frame) bool { return f.index == repeated })
	path := make([]string, 0, len(stack)-start+1)
	for _, f := range stack[start:] {
		path = append(path, g.nodes[f.index].Name)
	}
	path = append(path, g.nodes[repeated].Name)
	slices.Reverse(path)

	g.logger.Debug("Detected dependency cycle.", "path", path)
	return &CyclicDependencyError{Path: path}
}
