// Package cli turns command-line arguments into an app.Config. It validates
// flag values and reports usage problems as an ExitError carrying the
// process exit code.
package cli
