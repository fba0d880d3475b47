package engine

import (
	"errors"
	"math"
	"testing"

	"github.com/codeswap/codeswap/internal/stream"
)

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

func TestCrewScenario(t *testing.T) {
	totals := &Totals{}
	red := NewCrew(totals, 5.0)

	red.Apply(stream.CrewEvent{Type: stream.EventCrewStart, SessionID: "run1", Agents: []string{"planner"}})
	red.Apply(stream.CrewEvent{Type: stream.EventAgentStart, Agent: "planner", SubtaskID: "1", Model: "m1"})
	red.Apply(stream.CrewEvent{Type: stream.EventAgentDelta, Agent: "planner", SubtaskID: "1", Text: "step 1"})
	red.Apply(stream.CrewEvent{Type: stream.EventAgentDone, Agent: "planner", SubtaskID: "1", Cost: fptr(0.02), Tokens: iptr(40)})
	red.Apply(stream.CrewEvent{Type: stream.EventCrewDone, TotalCost: fptr(0.02)})
	red.Finish(nil)

	snap := red.Snapshot()
	if snap.Status != StatusDone {
		t.Errorf("status = %q", snap.Status)
	}
	planner, ok := snap.Agents["planner"]
	if !ok {
		t.Fatal("planner missing")
	}
	if planner.Status != AgentDone {
		t.Errorf("planner status = %q", planner.Status)
	}
	if planner.Text != "step 1" {
		t.Errorf("planner text = %q", planner.Text)
	}
	if planner.Model != "m1" {
		t.Errorf("planner model = %q", planner.Model)
	}
	if planner.Cost == nil || *planner.Cost != 0.02 {
		t.Errorf("planner cost = %v", planner.Cost)
	}
	if planner.Tokens == nil || *planner.Tokens != 40 {
		t.Errorf("planner tokens = %v", planner.Tokens)
	}
	if snap.TotalCost != 0.02 {
		t.Errorf("total cost = %v", snap.TotalCost)
	}
	if totals.CrewTotalCost != 0.02 {
		t.Errorf("session crew total = %v", totals.CrewTotalCost)
	}
}

func TestCrewDoneTotalCostIsAuthoritative(t *testing.T) {
	red := NewCrew(&Totals{}, 5.0)

	red.Apply(stream.CrewEvent{Type: stream.EventAgentDone, Agent: "a", Cost: fptr(0.10)})
	red.Apply(stream.CrewEvent{Type: stream.EventAgentDone, Agent: "b", Cost: fptr(0.10)})
	// Server reports a figure that differs from the local sum.
	red.Apply(stream.CrewEvent{Type: stream.EventCrewDone, TotalCost: fptr(0.15)})

	if got := red.Snapshot().TotalCost; got != 0.15 {
		t.Errorf("total = %v, want the crew_done figure 0.15 over the summed 0.20", got)
	}
}

func TestCrewAgentDoneFieldLevelMerge(t *testing.T) {
	red := NewCrew(&Totals{}, 5.0)

	red.Apply(stream.CrewEvent{Type: stream.EventAgentStart, Agent: "coder", Model: "m2"})
	red.Apply(stream.CrewEvent{Type: stream.EventAgentDone, Agent: "coder", Cost: fptr(5), Tokens: iptr(77)})
	// Same event again, this time without tokens: the known value stays.
	red.Apply(stream.CrewEvent{Type: stream.EventAgentDone, Agent: "coder", Cost: fptr(5)})

	agent := red.Snapshot().Agents["coder"]
	if agent.Tokens == nil || *agent.Tokens != 77 {
		t.Errorf("tokens reset by absent field: %v", agent.Tokens)
	}
	if agent.Cost == nil || *agent.Cost != 5 {
		t.Errorf("cost = %v", agent.Cost)
	}
	// Duplicated delivery must not double the derived sum either.
	if got := red.Snapshot().TotalCost; got != 5 {
		t.Errorf("total = %v, want 5", got)
	}
}

func TestCrewLazyAgentCreation(t *testing.T) {
	red := NewCrew(&Totals{}, 5.0)

	// Delta for an agent never announced by crew_start: text must not be lost.
	red.Apply(stream.CrewEvent{Type: stream.EventAgentDelta, Agent: "surprise", Text: "hello"})

	snap := red.Snapshot()
	agent, ok := snap.Agents["surprise"]
	if !ok {
		t.Fatal("unknown agent should be lazily created")
	}
	if agent.Text != "hello" {
		t.Errorf("text = %q", agent.Text)
	}
	if len(snap.Order) != 1 || snap.Order[0] != "surprise" {
		t.Errorf("order = %v", snap.Order)
	}
}

func TestCrewStartInitializesAgentsPending(t *testing.T) {
	red := NewCrew(&Totals{}, 5.0)
	red.Apply(stream.CrewEvent{Type: stream.EventCrewStart, Agents: []string{"a", "b"}})

	snap := red.Snapshot()
	for _, name := range []string{"a", "b"} {
		agent := snap.Agents[name]
		if agent.Status != AgentPending {
			t.Errorf("agent %s status = %q, want pending", name, agent.Status)
		}
		if agent.Text != "" {
			t.Errorf("agent %s text = %q, want empty", name, agent.Text)
		}
	}
}

func TestCrewSynthesisAppends(t *testing.T) {
	red := NewCrew(&Totals{}, 5.0)
	red.Apply(stream.CrewEvent{Type: stream.EventSynthesisDelta, Text: "first "})
	red.Apply(stream.CrewEvent{Type: stream.EventSynthesisDelta, Text: "second"})

	if got := red.Snapshot().Synthesis; got != "first second" {
		t.Errorf("synthesis = %q", got)
	}
}

func TestCrewErrorAbortsRunOnce(t *testing.T) {
	red := NewCrew(&Totals{}, 5.0)
	red.Apply(stream.CrewEvent{Type: stream.EventAgentStart, Agent: "a", Model: "m"})
	red.Apply(stream.CrewEvent{Type: stream.EventError, Message: "backend exploded"})
	// Late events after the abort are ignored.
	red.Apply(stream.CrewEvent{Type: stream.EventAgentDelta, Agent: "a", Text: "ghost"})
	red.Finish(nil)

	snap := red.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("status = %q", snap.Status)
	}
	if snap.Err != "backend exploded" {
		t.Errorf("err = %q", snap.Err)
	}
	if snap.Agents["a"].Text != "" {
		t.Error("events applied after stream-level error")
	}
	if snap.Agents["a"].Status != AgentFailed {
		t.Errorf("running agent should be failed after abort, got %q", snap.Agents["a"].Status)
	}
}

func TestCrewTransportFailureMarksRunningAgentsFailed(t *testing.T) {
	red := NewCrew(&Totals{}, 5.0)
	red.Apply(stream.CrewEvent{Type: stream.EventCrewStart, Agents: []string{"a", "b"}})
	red.Apply(stream.CrewEvent{Type: stream.EventAgentStart, Agent: "a", Model: "m"})
	red.Apply(stream.CrewEvent{Type: stream.EventAgentDelta, Agent: "a", Text: "partial work"})
	red.Finish(errors.New("connection reset"))

	snap := red.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("status = %q", snap.Status)
	}
	if snap.Agents["a"].Status != AgentFailed {
		t.Errorf("agent a = %q", snap.Agents["a"].Status)
	}
	if snap.Agents["a"].Text != "partial work" {
		t.Error("accumulated agent text must survive the failure")
	}
	if snap.Agents["b"].Status != AgentPending {
		t.Errorf("agent b = %q, pending agents stay pending", snap.Agents["b"].Status)
	}
}

func TestCrewBudgetExposedNotEnforced(t *testing.T) {
	totals := &Totals{}
	red := NewCrew(totals, 1.0)

	red.Apply(stream.CrewEvent{Type: stream.EventAgentDone, Agent: "a", Cost: fptr(2.5)})
	red.Apply(stream.CrewEvent{Type: stream.EventCrewDone, TotalCost: fptr(2.5)})

	snap := red.Snapshot()
	if snap.Budget != 1.0 {
		t.Errorf("budget = %v", snap.Budget)
	}
	if math.Abs(snap.TotalCost-2.5) > 1e-12 {
		t.Errorf("total = %v: the client displays overruns, it does not clamp them", snap.TotalCost)
	}
	if totals.CrewBudget != 1.0 {
		t.Errorf("session budget = %v", totals.CrewBudget)
	}
}
