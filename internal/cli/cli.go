package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/specialistvlad/buildgridgo/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// varsFlag collects repeatable -var name=value pairs.
type varsFlag map[string]string

func (v varsFlag) String() string {
	pairs := make([]string, 0, len(v))
	for k, val := range v {
		pairs = append(pairs, k+"="+val)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}

func (v varsFlag) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return errors.New("expected name=value")
	}
	v[strings.TrimSpace(name)] = value
	return nil
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("buildgrid", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
BuildGrid - A dependency-aware, parallel task scheduler.

Usage:
  buildgrid [options] [PLAN_PATH]

Arguments:
  PLAN_PATH
    Path to a single .hcl/.yaml plan file or a directory containing them.

Options:
`)
		flagSet.PrintDefaults()
	}

	vars := varsFlag{}
	planFlag := flagSet.String("plan", "", "Path to the plan file or directory.")
	pFlag := flagSet.String("p", "", "Path to the plan file or directory (shorthand).")
	parallelismFlag := flagSet.String("parallelism", "", "Maximum simultaneous tasks: a number, 'max', or empty for the platform default.")
	quietFlag := flagSet.Bool("quiet", false, "Suppress the task listing and start announcements.")
	changedOnlyFlag := flagSet.Bool("changed-projects-only", false, "Do not rebuild dependents of rebuilt projects unless their own inputs changed.")
	allowWarningsFlag := flagSet.Bool("allow-warnings", false, "Treat a run with warnings as successful.")
	flagSet.Var(vars, "var", "Set a plan variable as name=value. May be repeated.")
	healthPortFlag := flagSet.Int("healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
	timelineFlag := flagSet.String("timeline", "", "Write an execution timeline to this file.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "warn", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *planFlag != "" {
		path = *planFlag
	} else if *pFlag != "" {
		path = *pFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}
	slog.Debug("Plan path determined.", "path", path)

	if path == "" {
		slog.Debug("No plan path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		PlanPath:            path,
		Vars:                vars,
		Parallelism:         *parallelismFlag,
		QuietMode:           *quietFlag,
		ChangedProjectsOnly: *changedOnlyFlag,
		AllowWarnings:       *allowWarningsFlag,
		LogFormat:           logFormat,
		LogLevel:            logLevel,
		HealthcheckPort:     *healthPortFlag,
		TimelinePath:        *timelineFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
