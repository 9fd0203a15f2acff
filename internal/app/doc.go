// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the run lifecycle: load a plan, turn it into
// a task graph, schedule it and report. It is decoupled from any specific
// entrypoint like a CLI.
package app
