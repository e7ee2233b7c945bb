// Package diag is the diagnostic sink (§7, §4.13): semantic, lowering,
// and internal errors are accumulated here rather than aborting the
// whole compilation the moment one function fails to lower.
package diag

import (
	"fmt"
	"sync"
)

// Diagnostic is one non-fatal compiler error.
type Diagnostic struct {
	Message     string
	Line        int
	Col         int
	IsTypeError bool
}

func (d Diagnostic) String() string {
	kind := "error"
	if d.IsTypeError {
		kind = "type error"
	}
	return fmt.Sprintf("%d:%d: %s: %s", d.Line, d.Col, kind, d.Message)
}

// Sink accumulates Diagnostics from a single sequential codegen pass.
// Not safe for concurrent use — see ParallelSink for C10's parallel
// per-function dispatch path.
type Sink struct {
	entries []Diagnostic
}

// NewSink returns an empty Sink.
func NewSink() *Sink { return &Sink{} }

// Report appends d without aborting the caller.
func (s *Sink) Report(d Diagnostic) { s.entries = append(s.entries, d) }

// HasTypeErrors reports whether any accumulated diagnostic is a type
// error, distinct from a lowering/internal failure.
func (s *Sink) HasTypeErrors() bool {
	for _, d := range s.entries {
		if d.IsTypeError {
			return true
		}
	}
	return false
}

// Len returns the number of accumulated diagnostics.
func (s *Sink) Len() int { return len(s.entries) }

// All returns every accumulated diagnostic, in report order.
func (s *Sink) All() []Diagnostic {
	out := make([]Diagnostic, len(s.entries))
	copy(out, s.entries)
	return out
}

// ParallelSink is the concurrency-safe counterpart to Sink, grounded on
// the teacher's util.Perror: one unbuffered channel, one listener
// goroutine, Append/Stop/Drain. C10's parallel per-function generation
// path uses this; the sequential path uses the plain Sink.
type ParallelSink struct {
	listen chan Diagnostic
	stop   chan struct{}
	done   chan struct{}

	mu      sync.Mutex
	entries []Diagnostic
}

// defaultParallelSinkBuffer mirrors the teacher's defaultBufferSize.
const defaultParallelSinkBuffer = 16

// NewParallelSink starts a ParallelSink's listener goroutine and returns
// it ready to accept concurrent Append calls.
func NewParallelSink() *ParallelSink {
	ps := &ParallelSink{
		listen: make(chan Diagnostic),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	ps.entries = make([]Diagnostic, 0, defaultParallelSinkBuffer)
	go ps.run()
	return ps
}

func (ps *ParallelSink) run() {
	defer close(ps.done)
	for {
		select {
		case d := <-ps.listen:
			ps.mu.Lock()
			ps.entries = append(ps.entries, d)
			ps.mu.Unlock()
		case <-ps.stop:
			return
		}
	}
}

// Append sends d to the listener goroutine. Safe to call from any
// worker goroutine concurrently.
func (ps *ParallelSink) Append(d Diagnostic) {
	ps.listen <- d
}

// Stop signals the listener goroutine to exit and waits for it to do so.
// Must be called exactly once, after every worker has finished
// appending.
func (ps *ParallelSink) Stop() {
	close(ps.stop)
	<-ps.done
}

// Drain returns every diagnostic collected so far. Safe to call after
// Stop, or — for a length check only — concurrently with workers still
// appending.
func (ps *ParallelSink) Drain() []Diagnostic {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	out := make([]Diagnostic, len(ps.entries))
	copy(out, ps.entries)
	return out
}

// Len reports the number of diagnostics collected so far.
func (ps *ParallelSink) Len() int {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return len(ps.entries)
}
