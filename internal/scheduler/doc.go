// Package scheduler runs the tasks of a graph to completion under bounded
// concurrency.
//
// # How a Run Works
//
// Run asks the graph for its execution order, which also rejects cycles,
// and feeds that order to a queue.ReadyQueue. A fixed pool of workers pulls
// from the queue. For each node a worker:
//
//  1. Marks it Executing and announces it.
//  2. Skips it if its builder allows that, otherwise calls Execute.
//  3. Applies the result under the queue lock.
//
// # Result Propagation
//
//   - **Success and warnings:** Dependents lose this prerequisite. Unless only
//     changed projects are being built, their skip eligibility is revoked
//   - **Skipped:** Dependents lose this prerequisite and keep their eligibility
//   - **Failure:** Every transitive dependent that is still Ready becomes
//     Blocked and counts as completed without its builder ever running
//
// Failure never cancels siblings that are already running.
//
// # Final Result
//
// Any failure fails the run with ErrTasksFailed. Otherwise warnings fail it
// with ErrAlreadyReported unless they are allowed. In both cases the summary
// has already been written to Options.Output.
package scheduler
