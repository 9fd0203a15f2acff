package simulate

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/specialistvlad/buildgridgo/internal/builder"
	"github.com/specialistvlad/buildgridgo/internal/plan"
	"github.com/specialistvlad/buildgridgo/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Execute(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	b := New(&plan.Task{
		Name:        "lib",
		Result:      status.SuccessWithWarning,
		Duration:    time.Hour,
		Output:      []string{"compiling"},
		Stderr:      []string{"warning: unused"},
		SkipAllowed: true,
		EmptyScript: true,
	})
	var slept time.Duration
	b.sleep = func(_ context.Context, d time.Duration) error {
		slept = d
		return nil
	}
	var stdout, stderr bytes.Buffer

	// --- Act ---
	st, err := b.Execute(context.Background(), builder.Context{Stdout: &stdout, Stderr: &stderr})

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, status.SuccessWithWarning, st)
	assert.Equal(t, time.Hour, slept)
	assert.Equal(t, "compiling\n", stdout.String())
	assert.Equal(t, "warning: unused\n", stderr.String())
	assert.Equal(t, "lib", b.Name())
	assert.True(t, b.IsSkipAllowed())
	assert.True(t, b.HadEmptyScript())
}

func TestBuilder_PlannedError(t *testing.T) {
	t.Parallel()

	b := New(&plan.Task{Name: "app", Error: "exit status 2"})
	st, err := b.Execute(context.Background(), builder.Context{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})

	assert.Equal(t, status.Failure, st)
	assert.EqualError(t, err, "exit status 2")
}

func TestBuilder_Cancelled(t *testing.T) {
	t.Parallel()

	b := New(&plan.Task{Name: "slow", Duration: time.Minute})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st, err := b.Execute(ctx, builder.Context{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})

	assert.Equal(t, status.Failure, st)
	assert.ErrorIs(t, err, context.Canceled)
}
