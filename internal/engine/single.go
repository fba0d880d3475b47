package engine

import "github.com/codeswap/codeswap/internal/stream"

// Single folds single-mode chat events into one response unit. A fresh
// reducer is constructed per send, so no stale state from a previous turn
// survives into a new stream.
type Single struct {
	totals   *Totals
	prompt   string
	unit     unit
	finished bool
	notify   func()
}

// NewSingle creates a single-mode reducer. modelID is the fully-qualified
// provider/model id used for pricing; prompt is the user text, kept for
// fallback token estimation.
func NewSingle(totals *Totals, modelID, prompt string) *Single {
	return &Single{totals: totals, prompt: prompt, unit: newUnit(modelID)}
}

// SetNotify registers a callback invoked after every state change.
func (s *Single) SetNotify(fn func()) { s.notify = fn }

// Apply folds one event. Events arriving after the unit settled are ignored.
func (s *Single) Apply(ev stream.ChatEvent) {
	switch ev.Type {
	case stream.EventStart:
		s.unit.start()
	case stream.EventDelta:
		s.unit.appendText(ev.Text)
	case stream.EventDone, stream.EventComplete:
		s.unit.settleDone(ev, s.totals)
	case stream.EventError:
		s.unit.settleError(ev.Message)
	}
	s.changed()
}

// Finish runs the terminal accounting step. The orchestrator guarantees it
// is invoked exactly once per stream; repeated calls are no-ops.
func (s *Single) Finish(streamErr error) {
	if s.finished {
		return
	}
	s.finished = true
	s.unit.finish(s.prompt, streamErr, s.totals)
	s.changed()
}

// Snapshot returns a read-only copy of the current state.
func (s *Single) Snapshot() UnitSnapshot {
	return s.unit.snapshot()
}

func (s *Single) changed() {
	if s.notify != nil {
		s.notify()
	}
}
