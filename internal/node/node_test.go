package node

import (
	"testing"
	"time"

	"github.com/specialistvlad/buildgridgo/internal/builder"
	"github.com/specialistvlad/buildgridgo/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNode_StatusLifecycle(t *testing.T) {
	t.Parallel()

	n := New("a", builder.NewFunc("a", nil), 0)
	assert.Equal(t, status.Ready, n.Status())

	require.NoError(t, n.SetStatus(status.Executing))
	require.NoError(t, n.SetStatus(status.Success))

	err := n.SetStatus(status.Failure)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUCCESS -> FAILURE")
	assert.Equal(t, status.Success, n.Status())
}

func TestNode_Edges(t *testing.T) {
	t.Parallel()

	n := New("a", builder.NewFunc("a", nil), 0)

	assert.True(t, n.AddDependency(3))
	assert.True(t, n.AddDependency(1))
	assert.False(t, n.AddDependency(3), "duplicate edge must be ignored")
	assert.Equal(t, []int{1, 3}, n.Dependencies())

	n.RemoveDependency(1)
	assert.Equal(t, 1, n.DependencyCount())

	n.AddDependent(5)
	n.AddDependent(2)
	n.AddDependent(5)
	assert.Equal(t, []int{2, 5}, n.Dependents())
}

func TestNode_CriticalPathIsSetOnce(t *testing.T) {
	t.Parallel()

	n := New("a", builder.NewFunc("a", nil), 0)
	_, ok := n.CriticalPathLength()
	assert.False(t, ok)

	n.SetCriticalPathLength(2)
	n.SetCriticalPathLength(7)

	cp, ok := n.CriticalPathLength()
	assert.True(t, ok)
	assert.Equal(t, 2, cp)
}

func TestStopwatch(t *testing.T) {
	t.Parallel()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ticks := []time.Time{base, base.Add(1500 * time.Millisecond)}
	var sw Stopwatch
	sw.SetClock(func() time.Time {
		next := ticks[0]
		ticks = ticks[1:]
		return next
	})

	assert.Zero(t, sw.Duration())
	sw.Start()
	sw.Stop()

	assert.Equal(t, 1500*time.Millisecond, sw.Duration())
	assert.Equal(t, "1.50 seconds", sw.String())
	assert.Equal(t, base, sw.StartTime())
}
