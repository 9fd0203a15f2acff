package testutil

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/buildgridgo/internal/builder"
	"github.com/specialistvlad/buildgridgo/internal/status"
)

// Script tells a RecordingBuilder how to behave when executed.
type Script struct {
	// Status is returned from Execute. The zero value means Success.
	Status status.Status
	// Err is returned from Execute alongside Status.
	Err error
	// Panic, when non-nil, is raised from Execute after any output is written.
	Panic any
	// Delay is slept before returning, or until the context is done.
	Delay time.Duration
	// Gate, when non-nil, must be closed before Execute returns.
	Gate <-chan struct{}
	// Stdout and Stderr lines are written before returning.
	Stdout []string
	Stderr []string
}

// RecordingBuilder is a scripted builder that records how it was called.
type RecordingBuilder struct {
	builder.Base
	script Script
	probe  *ConcurrencyProbe
	calls  atomic.Int32
	quiet  atomic.Bool
}

// NewRecordingBuilder returns a builder for name. probe may be nil.
func NewRecordingBuilder(name string, probe *ConcurrencyProbe, script Script) *RecordingBuilder {
	b := &RecordingBuilder{script: script, probe: probe}
	b.Init(name, false, false)
	return b
}

// WithSkipAllowed sets the initial skip eligibility and returns the builder.
func (b *RecordingBuilder) WithSkipAllowed(allowed bool) *RecordingBuilder {
	b.SetSkipAllowed(allowed)
	return b
}

// Calls returns how many times Execute ran.
func (b *RecordingBuilder) Calls() int {
	return int(b.calls.Load())
}

// SawQuietMode reports whether the last invocation asked for quiet output.
func (b *RecordingBuilder) SawQuietMode() bool {
	return b.quiet.Load()
}

// Execute implements builder.Builder.
func (b *RecordingBuilder) Execute(ctx context.Context, bc builder.Context) (status.Status, error) {
	b.calls.Add(1)
	b.quiet.Store(bc.QuietMode)
	b.probe.enter(b.Name())
	defer b.probe.leave()

	for _, line := range b.script.Stdout {
		fmt.Fprintln(bc.Stdout, line)
	}
	for _, line := range b.script.Stderr {
		fmt.Fprintln(bc.Stderr, line)
	}

	if b.script.Gate != nil {
		select {
		case <-b.script.Gate:
		case <-ctx.Done():
			return status.Failure, ctx.Err()
		}
	}
	if b.script.Delay > 0 {
		select {
		case <-time.After(b.script.Delay):
		case <-ctx.Done():
			return status.Failure, ctx.Err()
		}
	}
	if b.script.Panic != nil {
		panic(b.script.Panic)
	}

	st := b.script.Status
	if st == status.Ready {
		st = status.Success
	}
	return st, b.script.Err
}

// ConcurrencyProbe tracks how many builders sharing it run at once and the
// order in which they started. A nil probe records nothing.
type ConcurrencyProbe struct {
	mu      sync.Mutex
	current int
	peak    int
	started []string
}

func (p *ConcurrencyProbe) enter(name string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current++
	p.peak = max(p.peak, p.current)
	p.started = append(p.started, name)
}

func (p *ConcurrencyProbe) leave() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current--
}

// Peak returns the highest number of builders seen running at once.
func (p *ConcurrencyProbe) Peak() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.peak
}

// Started returns builder names in the order their Execute began.
func (p *ConcurrencyProbe) Started() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.started)
}
