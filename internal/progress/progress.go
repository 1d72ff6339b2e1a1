// Package progress provides structured, observable progress reporting for
// long-running knowledge operations (learn, ask), so a caller can surface
// incremental feedback without coupling to the orchestrator's internals.
package progress

import (
	"fmt"
	"time"

	"github.com/ragbase-labs/ragbase/internal/logger"
)

// Phase identifies which stage of a flow an Event was emitted from.
type Phase string

const (
	PhaseDiscover Phase = "discover"
	PhaseParse    Phase = "parse"
	PhaseChunk    Phase = "chunk"
	PhaseEmbed    Phase = "embed"
	PhaseIndex    Phase = "index"
)

// Event is one progress update.
type Event struct {
	Phase      Phase
	Current    uint64
	Total      *uint64
	Percentage *float64
	Message    string
	Elapsed    time.Duration
}

// newEvent computes Percentage from Current/Total when Total is known.
func newEvent(phase Phase, current uint64, total *uint64, message string) Event {
	e := Event{Phase: phase, Current: current, Total: total, Message: message}
	if total != nil {
		pct := 0.0
		if *total > 0 {
			pct = (float64(current) / float64(*total)) * 100
		}
		e.Percentage = &pct
	}
	return e
}

// FormatSimple renders a human-facing progress line, e.g.
// "[embed] 5/10 (50%) - model=trigram".
func (e Event) FormatSimple() string {
	progressPart := fmt.Sprintf("%d", e.Current)
	if e.Total != nil {
		progressPart = fmt.Sprintf("%d/%d", e.Current, *e.Total)
	}
	pctPart := ""
	if e.Percentage != nil {
		pctPart = fmt.Sprintf(" (%.0f%%)", *e.Percentage)
	}
	return fmt.Sprintf("[%s] %s%s - %s", e.Phase, progressPart, pctPart, e.Message)
}

// Sink receives progress events. A nil Sink is never invoked; use Discard
// explicitly when a caller wants a reporter without a live sink.
type Sink func(Event)

// Discard is a Sink that drops every event.
func Discard(Event) {}

// Reporter emits Events through a Sink, stamping each with elapsed time
// since the reporter was created. Emission is synchronous and cheap enough
// for the hot path; callers on a tight loop should still throttle cadence
// themselves (see ThrottleEvery).
type Reporter struct {
	sink  Sink
	start time.Time
}

// New builds a Reporter backed by sink. A nil sink is treated as Discard.
func New(sink Sink) *Reporter {
	if sink == nil {
		sink = Discard
	}
	return &Reporter{sink: sink, start: time.Now()}
}

func (r *Reporter) emit(phase Phase, current uint64, total *uint64, message string) {
	e := newEvent(phase, current, total, message)
	e.Elapsed = time.Since(r.start)
	logger.Debug("progress phase=%s current=%d message=%s", e.Phase, e.Current, e.Message)
	r.sink(e)
}

func (r *Reporter) Discover(current uint64, total *uint64, path string) {
	r.emit(PhaseDiscover, current, total, "scanning "+path)
}

func (r *Reporter) Parse(current uint64, total *uint64, file string) {
	r.emit(PhaseParse, current, total, "reading "+file)
}

func (r *Reporter) Chunk(current uint64, total *uint64, chunksCreated int) {
	r.emit(PhaseChunk, current, total, fmt.Sprintf("%d chunks created", chunksCreated))
}

func (r *Reporter) Embed(current uint64, total *uint64, model string) {
	r.emit(PhaseEmbed, current, total, "model="+model)
}

func (r *Reporter) Index(current uint64, total *uint64) {
	r.emit(PhaseIndex, current, total, "writing to index")
}

// ThrottleEvery wraps a Sink so it only forwards every n-th call (plus the
// very first), per §4.6's "every 10 chunks or at batch boundaries" cadence.
func ThrottleEvery(n int, sink Sink) Sink {
	if n <= 1 || sink == nil {
		return sink
	}
	count := 0
	return func(e Event) {
		count++
		if count == 1 || count%n == 0 {
			sink(e)
		}
	}
}
