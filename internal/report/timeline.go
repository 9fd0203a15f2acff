package report

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/specialistvlad/buildgridgo/internal/node"
	"github.com/specialistvlad/buildgridgo/internal/status"
)

// TimelineWidth is the total width of a timeline chart.
const TimelineWidth = 120

var timelineChars = map[status.Status]string{
	status.Success:            "#",
	status.SuccessWithWarning: "!",
	status.Failure:            "!",
	status.Skipped:            "%",
}

// WriteTimeline draws one bar per task that ran, scaled to the wall clock
// span of the run, followed by totals. It writes nothing if no task ran.
func WriteTimeline(w io.Writer, tasks []*node.Node, parallelism int) error {
	var ran []*node.Node
	for _, t := range tasks {
		if !t.Stopwatch.StartTime().IsZero() && !t.Stopwatch.EndTime().IsZero() {
			ran = append(ran, t)
		}
	}
	if len(ran) == 0 {
		return nil
	}
	slices.SortStableFunc(ran, func(a, b *node.Node) int {
		return a.Stopwatch.StartTime().Compare(b.Stopwatch.StartTime())
	})

	start := ran[0].Stopwatch.StartTime()
	end := start
	var totalWork, longest time.Duration
	maxName := 0
	for _, t := range ran {
		if e := t.Stopwatch.EndTime(); e.After(end) {
			end = e
		}
		d := t.Stopwatch.Duration()
		totalWork += d
		longest = max(longest, d)
		maxName = max(maxName, len(t.Name))
	}
	span := max(end.Sub(start), time.Nanosecond)

	maxDuration := len(fmt.Sprint(int(longest.Seconds() + 0.999)))
	graphWidth := max(TimelineWidth-maxName-maxDuration-4, 10)

	var b strings.Builder
	rule := strings.Repeat("=", TimelineWidth) + "\n"
	b.WriteString(rule)

	slots := make([]time.Time, max(parallelism, 1))
	for _, t := range ran {
		first := cell(t.Stopwatch.StartTime().Sub(start), span, graphWidth)
		last := cell(t.Stopwatch.EndTime().Sub(start), span, graphWidth)
		char, ok := timelineChars[t.Status()]
		if !ok {
			char = "?"
		}
		bar := strings.Repeat("-", first) + strings.Repeat(char, last-first+1) + strings.Repeat("-", graphWidth-last-1)
		fmt.Fprintf(&b, "%-*s %s %ds\n", maxName, t.Name, bar, int(t.Stopwatch.Duration().Seconds()))

		slots = assignSlot(slots, t.Stopwatch.StartTime(), t.Stopwatch.EndTime())
	}
	b.WriteString(rule)

	used := 0
	for _, s := range slots {
		if !s.IsZero() {
			used++
		}
	}

	legend := [2]string{"LEGEND:", "  [#] Success  [!] Failed/warnings  [%] Skipped"}
	totals := [3]string{
		fmt.Sprintf("Total Work: %8ds", int(totalWork.Seconds())),
		fmt.Sprintf("Wall Clock: %8ds", int(span.Seconds())),
		fmt.Sprintf("Parallelism Used: %9s", fmt.Sprintf("%d/%d", used, parallelism)),
	}
	fmt.Fprintf(&b, "%s%*s\n", legend[0], TimelineWidth-len(legend[0]), totals[0])
	fmt.Fprintf(&b, "%s%*s\n", legend[1], TimelineWidth-len(legend[1]), totals[1])
	fmt.Fprintf(&b, "%*s\n", TimelineWidth, totals[2])

	_, err := io.WriteString(w, b.String())
	return err
}

// cell maps an offset into the run onto a column in [0, width).
func cell(offset, span time.Duration, width int) int {
	c := int(int64(offset) * int64(width) / int64(span))
	return min(max(c, 0), width-1)
}

// assignSlot places a task on the first slot that is free at start. slots
// holds the end time of the last task on each slot, zero meaning unused.
// Clock skew can overlap more tasks than the limit, in which case a slot is
// added.
func assignSlot(slots []time.Time, start, end time.Time) []time.Time {
	for i, busyUntil := range slots {
		if busyUntil.IsZero() || !busyUntil.After(start) {
			slots[i] = end
			return slots
		}
	}
	return append(slots, end)
}
