// Package report renders the end-of-run summary and the execution timeline.
package report

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/fatih/color"
	"github.com/specialistvlad/buildgridgo/internal/node"
	"github.com/specialistvlad/buildgridgo/internal/status"
)

// HeaderWidth fits "==[ ... ]===" rules in a classic 80 column terminal.
const HeaderWidth = 79

var (
	gray   = color.New(color.FgHiBlack).SprintFunc()
	white  = color.New(color.FgWhite).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
)

// section describes how one status group is printed.
type section struct {
	status   status.Status
	heading  func(...any) string
	preamble string // set for condensed sections
	short    string // sub-header label for detailed sections
}

// Ordered so the most interesting groups come last, next to the prompt.
var sections = []section{
	{status: status.Skipped, heading: green, preamble: "These projects were already up to date:"},
	{status: status.Success, heading: green, preamble: "These projects completed successfully:"},
	{status: status.SuccessWithWarning, heading: yellow, short: "WARNING"},
	{status: status.Blocked, heading: white, preamble: "These projects were blocked by dependencies that failed:"},
	{status: status.Failure, heading: red, short: "FAILURE"},
}

// WriteSummary prints every task grouped by terminal status. Tasks that are
// not terminal are reported as an error, since a finished run must not
// leave any behind.
func WriteSummary(w io.Writer, tasks []*node.Node) error {
	groups := make(map[status.Status][]*node.Node)
	for _, t := range tasks {
		st := t.Status()
		if !st.IsTerminal() {
			return fmt.Errorf("task %q finished the run in non-terminal status %s", t.Name, st)
		}
		groups[st] = append(groups[st], t)
	}

	var b strings.Builder
	b.WriteString("\n\n\n")
	for _, s := range sections {
		group := groups[s.status]
		if len(group) == 0 {
			continue
		}
		if s.preamble != "" {
			writeCondensed(&b, s, group)
		} else {
			writeDetailed(&b, s, group)
		}
	}
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// writeCondensed lists names sorted, with aligned times for tasks that
// actually ran a script.
//
//	==[ BLOCKED: 2 projects ]=====================================================
//
//	These projects were blocked by dependencies that failed:
//	  app
//	  docs
func writeCondensed(b *strings.Builder, s section, tasks []*node.Node) {
	tasks = slices.SortedFunc(slices.Values(tasks), func(x, y *node.Node) int {
		return cmp.Compare(x.Name, y.Name)
	})
	writeHeader(b, s, len(tasks))
	b.WriteString(s.preamble + "\n")

	longest := 0
	for _, t := range tasks {
		longest = max(longest, len(t.Name))
	}
	for _, t := range tasks {
		if timed(t) {
			fmt.Fprintf(b, "  %-*s    %s\n", longest, t.Name, t.Stopwatch.String())
		} else {
			fmt.Fprintf(b, "  %s\n", t.Name)
		}
	}
	b.WriteString("\n")
}

// writeDetailed prints a sub-header and the captured output for each task.
//
//	--[ WARNING: lib ]------------------------------------------[ 5.07 seconds ]--
func writeDetailed(b *strings.Builder, s section, tasks []*node.Node) {
	writeHeader(b, s, len(tasks))

	for _, t := range tasks {
		label := s.short + ": " + t.Name
		elapsed := t.Stopwatch.String()
		left := gray("--[") + " " + s.heading(label) + " "
		leftLen := 4 + len(label) + 1
		right := " " + white(elapsed) + " " + gray("]--")
		rightLen := 1 + len(elapsed) + 1 + 3
		middle := gray("]" + strings.Repeat("-", max(HeaderWidth-(leftLen+rightLen+2), 0)) + "[")
		b.WriteString(left + middle + right + "\n\n")

		if t.Output != nil {
			b.WriteString(t.Output.Report())
		}
		if t.Err != nil {
			b.WriteString(s.heading(t.Err.Error()) + "\n")
		}
		b.WriteString("\n")
	}
}

// writeHeader prints "==[ STATUS: N projects ]====" padded to HeaderWidth.
func writeHeader(b *strings.Builder, s section, count int) {
	text := fmt.Sprintf("%s: %d %s", s.status, count, plural(count, "project"))
	leftLen := 3 + 1 + len(text) + 1
	right := "]" + strings.Repeat("=", max(HeaderWidth-(leftLen+1), 0))
	b.WriteString(gray("==[") + " " + s.heading(text) + " " + gray(right) + "\n\n")
}

func timed(t *node.Node) bool {
	if t.Status() == status.Skipped || t.Stopwatch.StartTime().IsZero() {
		return false
	}
	return t.Builder == nil || !t.Builder.HadEmptyScript()
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
