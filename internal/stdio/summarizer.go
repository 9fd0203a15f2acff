// Package stdio captures the output a builder writes while it runs and
// condenses it for end-of-run summaries.
package stdio

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
)

const (
	// LeadingLines is the number of lines kept from the start of long output.
	LeadingLines = 10
	// TrailingLines is the number of lines kept from the end of long output.
	TrailingLines = 20
	// abridgeThreshold is the line count above which output is abridged.
	abridgeThreshold = LeadingLines + TrailingLines + 10
	// tailCapacity keeps enough trailing lines to print everything when the
	// total stays at or below the threshold.
	tailCapacity = abridgeThreshold - LeadingLines
)

// Summarizer is a concurrency-safe line collector for one task's stdout and
// stderr. Only the first LeadingLines and the last tailCapacity lines are
// retained, so memory stays bounded no matter how chatty the task is.
type Summarizer struct {
	mu          sync.Mutex
	partial     map[stream][]byte
	head        []string
	tail        []string
	total       int
	stderrLines int
	closed      bool
}

type stream int

const (
	streamStdout stream = iota
	streamStderr
)

// NewSummarizer returns an empty Summarizer.
func NewSummarizer() *Summarizer {
	return &Summarizer{partial: make(map[stream][]byte)}
}

// Stdout returns the writer for regular output.
func (s *Summarizer) Stdout() io.Writer { return streamWriter{s: s, kind: streamStdout} }

// Stderr returns the writer for diagnostic output.
func (s *Summarizer) Stderr() io.Writer { return streamWriter{s: s, kind: streamStderr} }

type streamWriter struct {
	s    *Summarizer
	kind stream
}

func (w streamWriter) Write(p []byte) (int, error) {
	return w.s.write(w.kind, p)
}

func (s *Summarizer) write(kind stream, p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, io.ErrClosedPipe
	}

	buf := append(s.partial[kind], p...)
	for {
		i := bytes.IndexByte(buf, '\n')
		if i < 0 {
			break
		}
		s.addLine(kind, string(buf[:i]))
		buf = buf[i+1:]
	}
	s.partial[kind] = append([]byte(nil), buf...)
	return len(p), nil
}

// addLine must be called with s.mu held.
func (s *Summarizer) addLine(kind stream, line string) {
	line = strings.TrimRight(line, "\r")
	s.total++
	if kind == streamStderr {
		s.stderrLines++
	}
	if len(s.head) < LeadingLines {
		s.head = append(s.head, line)
		return
	}
	s.tail = append(s.tail, line)
	if len(s.tail) > tailCapacity {
		s.tail = s.tail[1:]
	}
}

// Close flushes any unterminated lines. Writes after Close fail.
func (s *Summarizer) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	for _, kind := range []stream{streamStdout, streamStderr} {
		if rest := s.partial[kind]; len(rest) > 0 {
			s.addLine(kind, string(rest))
		}
		delete(s.partial, kind)
	}
	s.closed = true
}

// LineCount returns the total number of lines written so far.
func (s *Summarizer) LineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// StderrLineCount returns the number of lines written to Stderr.
func (s *Summarizer) StderrLineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stderrLines
}

// Report returns the retained output, abridged if it exceeded the threshold.
// Every line, including the last, is newline-terminated. An empty string
// means the task wrote nothing.
func (s *Summarizer) Report() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.total == 0 {
		return ""
	}

	var lines []string
	lines = append(lines, s.head...)
	if s.total > abridgeThreshold {
		lines = append(lines, omittedMarker(s.total-LeadingLines-TrailingLines))
		lines = append(lines, s.tail[len(s.tail)-TrailingLines:]...)
	} else {
		lines = append(lines, s.tail...)
	}
	return strings.Join(lines, "\n") + "\n"
}

// Abridge applies the summary policy to an arbitrary slice of lines: more
// than 40 lines are reduced to the first 10, an omission marker, and the
// last 20.
func Abridge(lines []string) []string {
	if len(lines) <= abridgeThreshold {
		return lines
	}
	out := make([]string, 0, LeadingLines+TrailingLines+1)
	out = append(out, lines[:LeadingLines]...)
	out = append(out, omittedMarker(len(lines)-LeadingLines-TrailingLines))
	out = append(out, lines[len(lines)-TrailingLines:]...)
	return out
}

func omittedMarker(n int) string {
	return fmt.Sprintf("  ==[ %d lines omitted ]==", n)
}
