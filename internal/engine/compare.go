package engine

import "github.com/codeswap/codeswap/internal/stream"

// Compare runs the per-unit state machine twice, keyed by side. Both sides'
// events arrive interleaved on one transport stream; the reducer
// demultiplexes by the side tag. A delta/done/error event without a side is
// invalid in this mode and is dropped rather than misapplied to both sides.
type Compare struct {
	totals   *Totals
	prompt   string
	left     unit
	right    unit
	complete bool
	finished bool
	notify   func()
}

// CompareSnapshot is the renderer view of a compare stream. Done is true
// only once both sides settled, though partial results render before that.
type CompareSnapshot struct {
	Left  UnitSnapshot
	Right UnitSnapshot
	Done  bool
}

// NewCompare creates a compare-mode reducer with one pricing model per side.
func NewCompare(totals *Totals, leftModel, rightModel, prompt string) *Compare {
	return &Compare{
		totals: totals,
		prompt: prompt,
		left:   newUnit(leftModel),
		right:  newUnit(rightModel),
	}
}

// SetNotify registers a callback invoked after every state change.
func (c *Compare) SetNotify(fn func()) { c.notify = fn }

// Apply folds one event, routing by side.
func (c *Compare) Apply(ev stream.ChatEvent) {
	switch ev.Type {
	case stream.EventStart:
		c.left.start()
		c.right.start()
	case stream.EventDelta:
		if u := c.side(ev.Side); u != nil {
			u.appendText(ev.Text)
		}
	case stream.EventDone:
		if u := c.side(ev.Side); u != nil {
			u.settleDone(ev, c.totals)
		}
	case stream.EventComplete:
		if u := c.side(ev.Side); u != nil {
			u.settleDone(ev, c.totals)
		} else if ev.Side == "" {
			// Side-less complete is the whole-panel terminator the server
			// emits after both sides settled.
			c.complete = true
		}
	case stream.EventError:
		if u := c.side(ev.Side); u != nil {
			u.settleError(ev.Message)
		}
	}
	c.changed()
}

// Finish settles both sides, estimating usage for any side that streamed
// text but never received server usage.
func (c *Compare) Finish(streamErr error) {
	if c.finished {
		return
	}
	c.finished = true
	c.left.finish(c.prompt, streamErr, c.totals)
	c.right.finish(c.prompt, streamErr, c.totals)
	c.changed()
}

// Snapshot returns a read-only copy of both sides.
func (c *Compare) Snapshot() CompareSnapshot {
	return CompareSnapshot{
		Left:  c.left.snapshot(),
		Right: c.right.snapshot(),
		Done:  c.complete || (c.left.status.Settled() && c.right.status.Settled()),
	}
}

// CombinedCost sums both sides' resolved costs.
func (c *Compare) CombinedCost() float64 {
	var cost float64
	if c.left.info != nil {
		cost += c.left.info.Cost
	}
	if c.right.info != nil {
		cost += c.right.info.Cost
	}
	return cost
}

func (c *Compare) side(side string) *unit {
	switch side {
	case stream.SideLeft:
		return &c.left
	case stream.SideRight:
		return &c.right
	}
	return nil
}

func (c *Compare) changed() {
	if c.notify != nil {
		c.notify()
	}
}
