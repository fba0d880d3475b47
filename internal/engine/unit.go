package engine

import (
	"strings"

	"github.com/codeswap/codeswap/internal/stream"
	"github.com/codeswap/codeswap/internal/usage"
)

// Status is the lifecycle of one tracked unit of work: the whole stream in
// single mode, one side in compare mode, the overall run in crew mode.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusStreaming Status = "streaming"
	StatusDone      Status = "done"
	StatusFailed    Status = "failed"
)

// Settled reports whether the unit reached a terminal state.
func (s Status) Settled() bool {
	return s == StatusDone || s == StatusFailed
}

// UnitSnapshot is the read-only view of one unit exposed to renderers.
type UnitSnapshot struct {
	Status Status
	Text   string
	Model  string
	Usage  *usage.Info
	Err    string
}

// unit is the per-unit state machine shared by the single and compare
// reducers: idle -> streaming -> settled, with at most one terminal event
// honored and everything after it ignored defensively.
type unit struct {
	status  Status
	model   string
	text    strings.Builder
	info    *usage.Info
	errMsg  string
	// failedByEvent marks a unit settled by a protocol-level error event.
	// Such units are never charged: the provider reported failure before
	// producing a billable completion.
	failedByEvent bool
}

func newUnit(model string) unit {
	return unit{status: StatusIdle, model: model}
}

func (u *unit) start() {
	if u.status == StatusIdle {
		u.status = StatusStreaming
	}
}

func (u *unit) appendText(text string) {
	if u.status.Settled() {
		return
	}
	u.start()
	u.text.WriteString(text)
}

// settleDone handles a done/complete event. Server usage, when present, is
// recorded and added to totals exactly once; otherwise the unit stays
// unaccounted so the post-stream fallback can estimate from accumulated text.
func (u *unit) settleDone(ev stream.ChatEvent, totals *Totals) {
	if u.status.Settled() {
		return
	}
	u.status = StatusDone
	if ev.Usage != nil {
		info := usage.FromServer(ev.Usage.PromptTokens, ev.Usage.CompletionTokens, u.model)
		u.info = &info
		totals.Add(info)
	}
}

// settleError handles a protocol error event. The error message replaces the
// displayed text only when nothing had streamed yet.
func (u *unit) settleError(message string) {
	if u.status.Settled() {
		return
	}
	u.status = StatusFailed
	u.failedByEvent = true
	u.errMsg = message
	if u.text.Len() == 0 {
		u.text.WriteString(message)
	}
}

// finish runs the exactly-once terminal accounting step after the transport
// closed. streamErr is non-nil when the transport or decoder failed. Units
// that already carry server usage, or that failed via a protocol error
// event, are left alone; anything else with accumulated text gets an
// estimated accounting pass, since that text consumed real provider tokens
// even if the stream died before usage was reported.
func (u *unit) finish(prompt string, streamErr error, totals *Totals) {
	if streamErr != nil && !u.status.Settled() {
		u.status = StatusFailed
		u.errMsg = streamErr.Error()
	}
	if !u.status.Settled() {
		u.status = StatusDone
	}

	if u.info != nil || u.failedByEvent {
		return
	}
	if u.text.Len() == 0 {
		// Nothing streamed: no usage record; show the error text instead.
		if u.errMsg != "" {
			u.text.WriteString(u.errMsg)
		}
		return
	}
	info := usage.Estimate(prompt, u.text.String(), u.model)
	u.info = &info
	totals.Add(info)
}

func (u *unit) snapshot() UnitSnapshot {
	snap := UnitSnapshot{
		Status: u.status,
		Text:   u.text.String(),
		Model:  u.model,
		Err:    u.errMsg,
	}
	if u.info != nil {
		info := *u.info
		snap.Usage = &info
	}
	return snap
}
