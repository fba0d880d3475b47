package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/codeswap/codeswap/internal/stream"
	"github.com/codeswap/codeswap/internal/usage"
)

const sonnet = "anthropic/claude-sonnet-4.5"

func TestSingleHappyPath(t *testing.T) {
	totals := &Totals{}
	red := NewSingle(totals, sonnet, "question")

	red.Apply(stream.ChatEvent{Type: stream.EventStart})
	red.Apply(stream.ChatEvent{Type: stream.EventDelta, Text: "Hi"})
	red.Apply(stream.ChatEvent{Type: stream.EventDelta, Text: " there"})
	red.Apply(stream.ChatEvent{Type: stream.EventDone, Usage: &stream.Usage{PromptTokens: 10, CompletionTokens: 5}})
	red.Finish(nil)

	snap := red.Snapshot()
	if snap.Text != "Hi there" {
		t.Errorf("text = %q, want %q", snap.Text, "Hi there")
	}
	if snap.Status != StatusDone {
		t.Errorf("status = %q, want done", snap.Status)
	}
	if snap.Usage == nil {
		t.Fatal("expected usage")
	}
	if snap.Usage.Estimated {
		t.Error("server usage must not be estimated")
	}
	if snap.Usage.TokensIn != 10 || snap.Usage.TokensOut != 5 {
		t.Errorf("unexpected tokens: %+v", snap.Usage)
	}
	wantCost := usage.Cost(10, 5, sonnet)
	if math.Abs(snap.Usage.Cost-wantCost) > 1e-12 {
		t.Errorf("cost = %v, want %v", snap.Usage.Cost, wantCost)
	}
	if totals.TokensIn != 10 || totals.TokensOut != 5 {
		t.Errorf("totals not updated: %+v", totals)
	}
}

func TestSingleFinishDoesNotDoubleCount(t *testing.T) {
	totals := &Totals{}
	red := NewSingle(totals, sonnet, "question")

	red.Apply(stream.ChatEvent{Type: stream.EventDelta, Text: "answer"})
	red.Apply(stream.ChatEvent{Type: stream.EventDone, Usage: &stream.Usage{PromptTokens: 4, CompletionTokens: 2}})
	red.Finish(nil)
	red.Finish(nil)

	if totals.TokensIn != 4 || totals.TokensOut != 2 {
		t.Errorf("usage counted more than once: %+v", totals)
	}
	if red.Snapshot().Usage.Estimated {
		t.Error("fallback ran despite server usage")
	}
}

func TestSingleFallbackEstimationOnStreamFailure(t *testing.T) {
	totals := &Totals{}
	red := NewSingle(totals, sonnet, "Hi there")

	red.Apply(stream.ChatEvent{Type: stream.EventDelta, Text: "partial"})
	red.Finish(errors.New("connection reset"))

	snap := red.Snapshot()
	if snap.Text != "partial" {
		t.Errorf("accumulated text must be preserved, got %q", snap.Text)
	}
	if snap.Status != StatusFailed {
		t.Errorf("status = %q, want failed", snap.Status)
	}
	if snap.Usage == nil {
		t.Fatal("expected estimated usage")
	}
	if !snap.Usage.Estimated {
		t.Error("fallback usage must be flagged estimated")
	}
	if snap.Usage.TokensIn != usage.EstimateTokens("Hi there") {
		t.Errorf("prompt tokens = %d", snap.Usage.TokensIn)
	}
	if snap.Usage.TokensOut != usage.EstimateTokens("partial") {
		t.Errorf("response tokens = %d", snap.Usage.TokensOut)
	}
}

func TestSingleErrorEventBeforeTextReplacesDisplay(t *testing.T) {
	totals := &Totals{}
	red := NewSingle(totals, sonnet, "q")

	red.Apply(stream.ChatEvent{Type: stream.EventError, Message: "rate limited"})
	red.Finish(nil)

	snap := red.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("status = %q, want failed", snap.Status)
	}
	if snap.Text != "rate limited" {
		t.Errorf("text = %q, want error message", snap.Text)
	}
	if snap.Usage != nil {
		t.Error("a failed stream must not be charged")
	}
	if totals.Cost != 0 {
		t.Errorf("totals mutated: %+v", totals)
	}
}

func TestSingleErrorEventAfterTextPreservesText(t *testing.T) {
	red := NewSingle(&Totals{}, sonnet, "q")

	red.Apply(stream.ChatEvent{Type: stream.EventDelta, Text: "some output"})
	red.Apply(stream.ChatEvent{Type: stream.EventError, Message: "provider died"})
	red.Finish(nil)

	snap := red.Snapshot()
	if snap.Text != "some output" {
		t.Errorf("streamed text must survive the error, got %q", snap.Text)
	}
	if snap.Err != "provider died" {
		t.Errorf("err = %q", snap.Err)
	}
}

func TestSingleIgnoresEventsAfterTerminal(t *testing.T) {
	totals := &Totals{}
	red := NewSingle(totals, sonnet, "q")

	red.Apply(stream.ChatEvent{Type: stream.EventDelta, Text: "final"})
	red.Apply(stream.ChatEvent{Type: stream.EventDone, Usage: &stream.Usage{PromptTokens: 1, CompletionTokens: 1}})
	red.Apply(stream.ChatEvent{Type: stream.EventDelta, Text: " ghost"})
	red.Apply(stream.ChatEvent{Type: stream.EventDone, Usage: &stream.Usage{PromptTokens: 9, CompletionTokens: 9}})
	red.Finish(nil)

	snap := red.Snapshot()
	if snap.Text != "final" {
		t.Errorf("text mutated after terminal event: %q", snap.Text)
	}
	if totals.TokensIn != 1 {
		t.Errorf("usage counted twice: %+v", totals)
	}
}

func TestSingleNothingStreamedNoUsageRecord(t *testing.T) {
	totals := &Totals{}
	red := NewSingle(totals, sonnet, "q")
	red.Finish(errors.New("no body"))

	snap := red.Snapshot()
	if snap.Usage != nil {
		t.Error("no usage record expected when nothing accumulated")
	}
	if snap.Text != "no body" {
		t.Errorf("error text should be shown, got %q", snap.Text)
	}
}
