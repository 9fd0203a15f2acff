package integrationtests

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/specialistvlad/buildgridgo/internal/app"
	"github.com/specialistvlad/buildgridgo/internal/cli"
	"github.com/specialistvlad/buildgridgo/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// runResult holds the outcome of one end-to-end run.
type runResult struct {
	Dir    string
	Output string
	Logs   string
	Err    error
}

// lines returns the non-empty output lines.
func (r runResult) lines() []string {
	var out []string
	for _, l := range strings.Split(r.Output, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

// runIntegrationTest writes files into a temp dir and runs the app on it
// with args. The plan directory is appended as the final argument.
func runIntegrationTest(t *testing.T, files map[string]string, args ...string) runResult {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	out, logs := &testutil.SafeBuffer{}, &testutil.SafeBuffer{}
	cfg, shouldExit, err := cli.Parse(append(append([]string{"-log-level", "debug"}, args...), dir), out)
	require.NoError(t, err)
	require.False(t, shouldExit)

	a, err := app.NewApp(out, logs, cfg)
	require.NoError(t, err)
	runErr := a.Run(context.Background())

	t.Cleanup(func() {
		if os.Getenv("BGGO_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return runResult{Dir: dir, Output: out.String(), Logs: logs.String(), Err: runErr}
}

// indexOf returns the index of the first line containing substr, or -1.
func indexOf(lines []string, substr string) int {
	for i, l := range lines {
		if strings.Contains(l, substr) {
			return i
		}
	}
	return -1
}
