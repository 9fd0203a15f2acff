package builder

import (
	"context"
	"sync/atomic"

	"github.com/specialistvlad/buildgridgo/internal/status"
)

// Base implements the metadata half of the Builder interface. Embed it in a
// concrete builder and call Init before first use.
type Base struct {
	name        string
	emptyScript bool
	skipAllowed atomic.Bool
}

// Init sets the immutable metadata and the initial skip eligibility.
func (b *Base) Init(name string, skipAllowed, emptyScript bool) {
	b.name = name
	b.emptyScript = emptyScript
	b.skipAllowed.Store(skipAllowed)
}

// Name implements Builder.
func (b *Base) Name() string { return b.name }

// IsSkipAllowed implements Builder.
func (b *Base) IsSkipAllowed() bool { return b.skipAllowed.Load() }

// SetSkipAllowed implements Builder.
func (b *Base) SetSkipAllowed(allowed bool) { b.skipAllowed.Store(allowed) }

// HadEmptyScript implements Builder.
func (b *Base) HadEmptyScript() bool { return b.emptyScript }

// ExecuteFunc is the signature of the work performed by a FuncBuilder.
type ExecuteFunc func(ctx context.Context, bc Context) (status.Status, error)

// FuncBuilder adapts a plain function to the Builder interface.
type FuncBuilder struct {
	Base
	fn ExecuteFunc
}

// NewFunc returns a builder named name that runs fn when executed.
func NewFunc(name string, fn ExecuteFunc) *FuncBuilder {
	b := &FuncBuilder{fn: fn}
	b.Init(name, false, false)
	return b
}

// WithSkipAllowed sets the initial skip eligibility and returns the builder.
func (b *FuncBuilder) WithSkipAllowed(allowed bool) *FuncBuilder {
	b.SetSkipAllowed(allowed)
	return b
}

// WithEmptyScript marks the builder as having no script and returns it.
func (b *FuncBuilder) WithEmptyScript() *FuncBuilder {
	b.emptyScript = true
	return b
}

// Execute implements Builder.
func (b *FuncBuilder) Execute(ctx context.Context, bc Context) (status.Status, error) {
	if b.fn == nil {
		return status.Success, nil
	}
	return b.fn(ctx, bc)
}
