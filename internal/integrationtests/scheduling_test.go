package integrationtests

import (
	"fmt"
	"strings"
	"testing"

	"github.com/specialistvlad/buildgridgo/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduling_CriticalPathFirst(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// deep sits on a chain of two dependents, leaf on none, so a single
	// worker must start deep first.
	files := map[string]string{"main.hcl": `
task "leaf" {}
task "deep" {}
task "mid" {
  depends_on = ["deep"]
}
task "top" {
  depends_on = ["mid"]
}
`}

	// --- Act ---
	result := runIntegrationTest(t, files, "-parallelism", "1")

	// --- Assert ---
	require.NoError(t, result.Err)
	var started []string
	for _, l := range result.lines() {
		if name, ok := strings.CutSuffix(l, "] started"); ok {
			started = append(started, strings.TrimPrefix(name, "["))
		}
	}
	assert.Equal(t, "deep", started[0])
	assert.Less(t, indexOf(started, "mid"), indexOf(started, "top"))
	assert.Len(t, started, 4)
}

func TestScheduling_FailureBlocksTransitiveDependents(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	files := map[string]string{"main.yaml": `
tasks:
  - name: core
    status: failure
    stderr: ["error TS2304: Cannot find name 'x'"]
  - name: ui
    depends_on: [core]
  - name: app
    depends_on: [ui]
  - name: docs
`}

	// --- Act ---
	result := runIntegrationTest(t, files, "-parallelism", "1")

	// --- Assert ---
	var runErr *scheduler.RunError
	require.ErrorAs(t, result.Err, &runErr)
	assert.Equal(t, 1, runErr.Failed)
	assert.Equal(t, 2, runErr.Blocked)

	assert.Contains(t, result.Output, "[ui] blocked by [core]!")
	assert.Contains(t, result.Output, "[app] blocked by [core]!")
	assert.Contains(t, result.Output, "==[ BLOCKED: 2 projects ]")
	assert.Contains(t, result.Output, "error TS2304")
	assert.Contains(t, result.Output, "4 of 4: ")
	assert.NotContains(t, result.Output, "[ui] started")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(result.Output), "Projects failed to build."))
}

func TestScheduling_SkipsUnchangedProjects(t *testing.T) {
	t.Parallel()

	files := map[string]string{"main.hcl": `
task "lib" {}
task "app" {
  depends_on   = ["lib"]
  skip_allowed = true
}
task "tools" {
  skip_allowed = true
}
`}

	t.Run("rebuilt dependency forces dependents to build", func(t *testing.T) {
		t.Parallel()
		result := runIntegrationTest(t, files, "-parallelism", "1")
		require.NoError(t, result.Err)
		assert.Contains(t, result.Output, "[app] completed successfully")
		assert.Contains(t, result.Output, "[tools] skipped")
		assert.Contains(t, result.Output, "==[ SKIPPED: 1 project ]")
	})

	t.Run("changed projects only keeps dependents skippable", func(t *testing.T) {
		t.Parallel()
		result := runIntegrationTest(t, files, "-parallelism", "1", "-changed-projects-only")
		require.NoError(t, result.Err)
		assert.Contains(t, result.Output, "[app] skipped")
		assert.Contains(t, result.Output, "==[ SKIPPED: 2 projects ]")
	})
}

func TestScheduling_WarningsPolicy(t *testing.T) {
	t.Parallel()

	files := map[string]string{"main.hcl": `
task "lint" {
  status = "warning"
  stderr = ["warning: unused variable"]
}
`}

	t.Run("warnings fail the run by default", func(t *testing.T) {
		t.Parallel()
		result := runIntegrationTest(t, files)
		assert.ErrorIs(t, result.Err, scheduler.ErrAlreadyReported)
		assert.Contains(t, result.Output, "--[ WARNING: lint ]")
		assert.Contains(t, result.Output, "Projects succeeded with warnings.")
	})

	t.Run("allowed warnings succeed", func(t *testing.T) {
		t.Parallel()
		result := runIntegrationTest(t, files, "-allow-warnings")
		require.NoError(t, result.Err)
		assert.NotContains(t, result.Output, "Projects succeeded with warnings.")
	})
}

func TestScheduling_QuietModeAndAbridgedOutput(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	var output []string
	for i := 1; i <= 50; i++ {
		output = append(output, fmt.Sprintf("%q", fmt.Sprintf("line %d", i)))
	}
	files := map[string]string{"main.hcl": fmt.Sprintf(`
task "noisy" {
  status = "failure"
  stderr = [%s]
}
`, strings.Join(output, ", "))}

	// --- Act ---
	result := runIntegrationTest(t, files, "-quiet")

	// --- Assert ---
	require.Error(t, result.Err)
	assert.NotContains(t, result.Output, "Selected")
	assert.NotContains(t, result.Output, "started")
	assert.Contains(t, result.Output, "Executing a maximum of")
	assert.Contains(t, result.Output, "line 10\n")
	assert.Contains(t, result.Output, "  ==[ 20 lines omitted ]==")
	assert.NotContains(t, result.Output, "line 11\n")
	assert.Contains(t, result.Output, "line 31\n")
	assert.Contains(t, result.Output, "line 50\n")
}
