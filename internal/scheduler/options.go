package scheduler

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"

	"github.com/specialistvlad/buildgridgo/internal/metrics"
)

// ErrInvalidParallelism is returned for a parallelism value that is not a
// positive integer, "max" or empty.
var ErrInvalidParallelism = errors.New("invalid parallelism")

// Options configures a Scheduler.
type Options struct {
	// Parallelism is a positive integer, "max" for every CPU, or empty for
	// the platform default.
	Parallelism string
	// QuietMode suppresses the task listing and start announcements.
	QuietMode bool
	// ChangedProjectsOnly keeps dependents skippable after their
	// dependencies rebuild.
	ChangedProjectsOnly bool
	// AllowWarningsInSuccessfulBuild lets a run with warnings succeed.
	AllowWarningsInSuccessfulBuild bool
	// Output receives progress lines and the summary. Nil discards them.
	Output io.Writer
	// Metrics, when set, records task and run outcomes.
	Metrics *metrics.Collector
}

// ParseParallelism resolves a parallelism setting against this machine.
func ParseParallelism(value string) (int, error) {
	return parseParallelism(value, runtime.NumCPU(), runtime.GOOS)
}

func parseParallelism(value string, cpus int, goos string) (int, error) {
	cpus = max(cpus, 1)
	switch value = strings.TrimSpace(value); value {
	case "":
		// Leave a core for the desktop on Windows, which otherwise becomes
		// sluggish.
		if goos == "windows" {
			return max(cpus-1, 1), nil
		}
		return cpus, nil
	case "max":
		return cpus, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q, expected a positive number or \"max\"", ErrInvalidParallelism, value)
	}
	return n, nil
}
