package builder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/specialistvlad/buildgridgo/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuncBuilder(t *testing.T) {
	t.Parallel()

	t.Run("runs the wrapped function with the builder context", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		b := NewFunc("lib", func(_ context.Context, bc Context) (status.Status, error) {
			fmt.Fprintln(bc.Stdout, "compiled")
			return status.SuccessWithWarning, nil
		})

		st, err := b.Execute(context.Background(), Context{Stdout: &out})

		require.NoError(t, err)
		assert.Equal(t, status.SuccessWithWarning, st)
		assert.Equal(t, "compiled\n", out.String())
	})

	t.Run("nil function succeeds", func(t *testing.T) {
		t.Parallel()
		st, err := NewFunc("noop", nil).Execute(context.Background(), Context{})
		require.NoError(t, err)
		assert.Equal(t, status.Success, st)
	})

	t.Run("propagates errors", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		b := NewFunc("bad", func(context.Context, Context) (status.Status, error) {
			return status.Failure, boom
		})
		_, err := b.Execute(context.Background(), Context{})
		assert.ErrorIs(t, err, boom)
	})
}

func TestBaseMetadata(t *testing.T) {
	t.Parallel()

	b := NewFunc("app", nil).WithSkipAllowed(true).WithEmptyScript()
	var _ Builder = b

	assert.Equal(t, "app", b.Name())
	assert.True(t, b.IsSkipAllowed())
	assert.True(t, b.HadEmptyScript())

	b.SetSkipAllowed(false)
	assert.False(t, b.IsSkipAllowed())
}
