package orchestrator

import (
	"fmt"
	"sync"
)

// progressBuffer is how many events a slow subscriber can fall behind by.
const progressBuffer = 64

// stageCount is the number of pipeline stages, for "Stage N/M" headers.
const stageCount = int(StageDiagrams) + 1

// ProgressReporter fans pipeline progress out through a buffered channel.
// Emit never blocks: an event that finds the buffer full, or arrives after
// Close, is discarded and counted in Dropped.
type ProgressReporter struct {
	mu      sync.Mutex
	ch      chan ProgressEvent
	closed  bool
	dropped int
}

// NewProgressReporter creates a ProgressReporter with an empty buffer.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{ch: make(chan ProgressEvent, progressBuffer)}
}

// Emit queues event for the subscriber. Safe for concurrent use.
func (pr *ProgressReporter) Emit(event ProgressEvent) {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if pr.closed {
		pr.dropped++
		return
	}
	select {
	case pr.ch <- event:
	default:
		pr.dropped++
	}
}

// Dropped reports how many events were discarded so far.
func (pr *ProgressReporter) Dropped() int {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	return pr.dropped
}

// Subscribe returns the event channel. It is closed by Close.
func (pr *ProgressReporter) Subscribe() <-chan ProgressEvent {
	return pr.ch
}

// Close closes the event channel. Calling it again is a no-op.
func (pr *ProgressReporter) Close() {
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if !pr.closed {
		pr.closed = true
		close(pr.ch)
	}
}

// StageStarted reports whether event is the first one of its stage.
func StageStarted(event ProgressEvent) bool {
	return event.Status == ProgressWorking && event.Done == 0
}

// FormatProgress formats a ProgressEvent as a human-readable status line.
func FormatProgress(event ProgressEvent) string {
	switch event.Status {
	case ProgressPending:
		return fmt.Sprintf("  ○ %s (pending)", event.Stage)
	case ProgressWorking:
		if event.Total > 0 {
			return fmt.Sprintf("  ● %s %d/%d...", event.Stage, event.Done, event.Total)
		}
		return fmt.Sprintf("  ● %s...", event.Stage)
	case ProgressComplete:
		if event.Message != "" {
			return fmt.Sprintf("  ✓ %s complete (%s)", event.Stage, event.Message)
		}
		return fmt.Sprintf("  ✓ %s complete", event.Stage)
	case ProgressFailed:
		return fmt.Sprintf("  ✗ %s failed: %s", event.Stage, event.Message)
	default:
		return fmt.Sprintf("  ? %s (unknown status)", event.Stage)
	}
}

// FormatStageHeader formats the line printed when a stage starts, e.g.
// "[repo] Stage 3/5: parse".
func FormatStageHeader(repo string, stage Stage) string {
	return fmt.Sprintf("[%s] Stage %d/%d: %s", repo, int(stage)+1, stageCount, stage)
}
