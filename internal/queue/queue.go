// Package queue provides the pull-based source of runnable nodes that
// scheduler workers consume.
//
// # Caller Contract
//
// A worker that receives a node from Next must, before any caller can
// observe the result, remove that node from the dependencies of each of its
// dependents. Do that inside Commit: it serializes the mutation with every
// other consumer and wakes the ones waiting for work. A node that is never
// released this way leaves its dependents pending forever and Next blocks.
package queue

import (
	"context"
	"iter"
	"sync"

	"github.com/specialistvlad/buildgridgo/internal/node"
	"github.com/specialistvlad/buildgridgo/internal/status"
)

// ReadyQueue hands out nodes that are Ready and have no unsatisfied
// dependencies, in the order they were given to New.
type ReadyQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []*node.Node
}

// New returns a queue over ordered. The slice is copied.
func New(ordered []*node.Node) *ReadyQueue {
	q := &ReadyQueue{pending: append([]*node.Node(nil), ordered...)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Next returns the first pending node that can run now. If none can but some
// are still pending, it waits until a Commit changes that. It returns false
// once nothing is pending or ctx is done.
//
// Nodes that are no longer Ready are dropped the first time a scan meets
// them.
func (q *ReadyQueue) Next(ctx context.Context) (*node.Node, bool) {
	stop := context.AfterFunc(ctx, q.wake)
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if ctx.Err() != nil {
			return nil, false
		}
		if n, ok := q.take(); ok {
			return n, true
		}
		if len(q.pending) == 0 {
			return nil, false
		}
		q.cond.Wait()
	}
}

// take must be called with q.mu held.
func (q *ReadyQueue) take() (*node.Node, bool) {
	kept := q.pending[:0]
	var found *node.Node
	for i, n := range q.pending {
		if n.Status() != status.Ready {
			continue
		}
		if found == nil && n.DependencyCount() == 0 {
			found = n
			kept = append(kept, q.pending[i+1:]...)
			break
		}
		kept = append(kept, n)
	}
	clear(q.pending[len(kept):])
	q.pending = kept
	return found, found != nil
}

// Commit runs fn while holding the queue lock and then wakes every waiting
// consumer. Node mutations that can make other nodes runnable belong here.
func (q *ReadyQueue) Commit(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	fn()
	q.cond.Broadcast()
}

func (q *ReadyQueue) wake() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cond.Broadcast()
}

// Remaining returns the number of nodes the queue has not yet handed out or
// pruned. Stale entries count until a scan drops them.
func (q *ReadyQueue) Remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// All yields nodes from Next until the queue is exhausted or ctx is done.
func (q *ReadyQueue) All(ctx context.Context) iter.Seq[*node.Node] {
	return func(yield func(*node.Node) bool) {
		for {
			n, ok := q.Next(ctx)
			if !ok || !yield(n) {
				return
			}
		}
	}
}
