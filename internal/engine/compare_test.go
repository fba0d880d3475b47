package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/codeswap/codeswap/internal/stream"
	"github.com/codeswap/codeswap/internal/usage"
)

const gpt5 = "openai/gpt-5"

func TestCompareLeftOnlyEventsNeverTouchRight(t *testing.T) {
	red := NewCompare(&Totals{}, sonnet, gpt5, "q")

	red.Apply(stream.ChatEvent{Type: stream.EventStart})
	red.Apply(stream.ChatEvent{Type: stream.EventDelta, Side: stream.SideLeft, Text: "left says"})
	red.Apply(stream.ChatEvent{Type: stream.EventDone, Side: stream.SideLeft})

	snap := red.Snapshot()
	if snap.Left.Text != "left says" {
		t.Errorf("left text = %q", snap.Left.Text)
	}
	if snap.Right.Text != "" {
		t.Errorf("right state mutated by left events: %q", snap.Right.Text)
	}
	if snap.Right.Status.Settled() {
		t.Errorf("right settled by left terminal: %q", snap.Right.Status)
	}
	if snap.Done {
		t.Error("panel done with one side still streaming")
	}
}

func TestCompareSidelessEventsAreDropped(t *testing.T) {
	red := NewCompare(&Totals{}, sonnet, gpt5, "q")

	red.Apply(stream.ChatEvent{Type: stream.EventDelta, Text: "no side"})
	red.Apply(stream.ChatEvent{Type: stream.EventDone})
	red.Apply(stream.ChatEvent{Type: stream.EventError, Message: "no side"})

	snap := red.Snapshot()
	if snap.Left.Text != "" || snap.Right.Text != "" {
		t.Errorf("side-less delta misapplied: %+v", snap)
	}
	if snap.Left.Status.Settled() || snap.Right.Status.Settled() {
		t.Error("side-less terminal misapplied")
	}
}

func TestCompareSidesSettleIndependently(t *testing.T) {
	totals := &Totals{}
	red := NewCompare(totals, sonnet, gpt5, "prompt")

	red.Apply(stream.ChatEvent{Type: stream.EventDelta, Side: stream.SideLeft, Text: "L"})
	red.Apply(stream.ChatEvent{Type: stream.EventDelta, Side: stream.SideRight, Text: "R"})
	red.Apply(stream.ChatEvent{Type: stream.EventDone, Side: stream.SideLeft, Usage: &stream.Usage{PromptTokens: 10, CompletionTokens: 4}})
	red.Apply(stream.ChatEvent{Type: stream.EventError, Side: stream.SideRight, Message: "right exploded"})
	red.Apply(stream.ChatEvent{Type: stream.EventComplete})
	red.Finish(nil)

	snap := red.Snapshot()
	if snap.Left.Status != StatusDone {
		t.Errorf("left status = %q", snap.Left.Status)
	}
	if snap.Right.Status != StatusFailed {
		t.Errorf("right status = %q", snap.Right.Status)
	}
	if !snap.Done {
		t.Error("panel should be done once both sides settled")
	}
	if snap.Right.Text != "R" {
		t.Errorf("right text = %q, streamed text must survive", snap.Right.Text)
	}

	// Left was charged from server usage; the failed right side was not.
	wantCost := usage.Cost(10, 4, sonnet)
	if math.Abs(red.CombinedCost()-wantCost) > 1e-12 {
		t.Errorf("combined cost = %v, want %v", red.CombinedCost(), wantCost)
	}
	if math.Abs(totals.Cost-wantCost) > 1e-12 {
		t.Errorf("session cost = %v, want %v", totals.Cost, wantCost)
	}
}

func TestComparePerSidePricing(t *testing.T) {
	totals := &Totals{}
	red := NewCompare(totals, sonnet, gpt5, "prompt")

	red.Apply(stream.ChatEvent{Type: stream.EventDone, Side: stream.SideLeft, Usage: &stream.Usage{PromptTokens: 100, CompletionTokens: 50}})
	red.Apply(stream.ChatEvent{Type: stream.EventDone, Side: stream.SideRight, Usage: &stream.Usage{PromptTokens: 100, CompletionTokens: 50}})
	red.Finish(nil)

	snap := red.Snapshot()
	wantLeft := usage.Cost(100, 50, sonnet)
	wantRight := usage.Cost(100, 50, gpt5)
	if math.Abs(snap.Left.Usage.Cost-wantLeft) > 1e-12 {
		t.Errorf("left cost = %v, want %v", snap.Left.Usage.Cost, wantLeft)
	}
	if math.Abs(snap.Right.Usage.Cost-wantRight) > 1e-12 {
		t.Errorf("right cost = %v, want %v", snap.Right.Usage.Cost, wantRight)
	}
	if math.Abs(red.CombinedCost()-(wantLeft+wantRight)) > 1e-12 {
		t.Errorf("combined cost = %v", red.CombinedCost())
	}
}

func TestCompareFallbackEstimatesPerSide(t *testing.T) {
	totals := &Totals{}
	red := NewCompare(totals, sonnet, gpt5, "prompt")

	red.Apply(stream.ChatEvent{Type: stream.EventDelta, Side: stream.SideLeft, Text: "left partial"})
	red.Apply(stream.ChatEvent{Type: stream.EventDelta, Side: stream.SideRight, Text: "right partial"})
	red.Finish(errors.New("network reset"))

	snap := red.Snapshot()
	for side, unitSnap := range map[string]UnitSnapshot{"left": snap.Left, "right": snap.Right} {
		if unitSnap.Usage == nil {
			t.Fatalf("%s: expected estimated usage", side)
		}
		if !unitSnap.Usage.Estimated {
			t.Errorf("%s: usage should be estimated", side)
		}
	}
	if snap.Left.Usage.TokensOut != usage.EstimateTokens("left partial") {
		t.Errorf("left tokens out = %d", snap.Left.Usage.TokensOut)
	}
}
