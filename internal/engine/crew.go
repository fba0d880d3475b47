package engine

import (
	"strings"

	"github.com/codeswap/codeswap/internal/stream"
)

// AgentStatus is the lifecycle of one named crew agent.
type AgentStatus string

const (
	AgentPending AgentStatus = "pending"
	AgentRunning AgentStatus = "running"
	AgentDone    AgentStatus = "done"
	AgentFailed  AgentStatus = "failed"
)

// AgentSnapshot is the renderer view of one agent's accumulated output.
type AgentSnapshot struct {
	Name   string
	Status AgentStatus
	Text   string
	Model  string
	Cost   *float64
	Tokens *int
}

// CrewSnapshot is the renderer view of a crew run: agent name -> output,
// plus the synthesis buffer and run totals.
type CrewSnapshot struct {
	Status    Status
	SessionID string
	Order     []string
	Agents    map[string]AgentSnapshot
	Subtasks  []stream.PlanSubtask
	Synthesis string
	TotalCost float64
	Budget    float64
	Err       string
}

type agentOutput struct {
	status AgentStatus
	model  string
	text   strings.Builder
	cost   *float64
	tokens *int
}

// Crew folds crew-mode events. Agents are keyed by name; an agent mentioned
// before its crew_start entry arrives is created lazily in the pending
// default, so partial or duplicated crew_start delivery never loses text.
type Crew struct {
	totals    *Totals
	status    Status
	sessionID string
	order     []string
	agents    map[string]*agentOutput
	subtasks  []stream.PlanSubtask
	synthesis strings.Builder

	// reportedTotal is the authoritative figure from crew_done. Until it
	// arrives the run total is derived by summing per-agent costs, so
	// duplicated agent_done delivery cannot double-count.
	reportedTotal *float64
	budget        float64
	errMsg        string
	finished      bool
	notify        func()
}

// NewCrew creates a crew-mode reducer with the configured budget ceiling.
func NewCrew(totals *Totals, budget float64) *Crew {
	totals.CrewBudget = budget
	return &Crew{
		totals: totals,
		status: StatusIdle,
		agents: make(map[string]*agentOutput),
		budget: budget,
	}
}

// SetNotify registers a callback invoked after every state change.
func (c *Crew) SetNotify(fn func()) { c.notify = fn }

// Apply folds one crew event. Events after the run settled are ignored, and
// unknown agent names degrade to lazy creation, never a dropped event.
func (c *Crew) Apply(ev stream.CrewEvent) {
	if c.status.Settled() {
		return
	}
	switch ev.Type {
	case stream.EventCrewStart:
		c.status = StatusStreaming
		if ev.SessionID != "" {
			c.sessionID = ev.SessionID
		}
		for _, name := range ev.Agents {
			c.agent(name)
		}
	case stream.EventPlan:
		c.subtasks = ev.Subtasks
	case stream.EventAgentStart:
		if ev.Agent == "" {
			break
		}
		agent := c.agent(ev.Agent)
		agent.status = AgentRunning
		if ev.Model != "" {
			agent.model = ev.Model
		}
	case stream.EventAgentDelta:
		if ev.Agent == "" {
			break
		}
		c.agent(ev.Agent).text.WriteString(ev.Text)
	case stream.EventAgentDone:
		if ev.Agent == "" {
			break
		}
		agent := c.agent(ev.Agent)
		agent.status = AgentDone
		// Field-level merge: an absent cost or tokens field must not
		// overwrite a previously known value.
		if ev.Cost != nil {
			agent.cost = ev.Cost
		}
		if ev.Tokens != nil {
			agent.tokens = ev.Tokens
		}
	case stream.EventSynthesisDelta:
		c.synthesis.WriteString(ev.Text)
	case stream.EventCrewDone:
		if ev.TotalCost != nil {
			total := *ev.TotalCost
			c.reportedTotal = &total
		}
		c.totals.CrewTotalCost += c.total()
		c.status = StatusDone
	case stream.EventError:
		c.errMsg = ev.Message
		c.status = StatusFailed
	}
	c.changed()
}

// Finish settles the run after the transport closed. Agents still running
// when the stream died are marked failed; their accumulated text is kept.
func (c *Crew) Finish(streamErr error) {
	if c.finished {
		return
	}
	c.finished = true
	if !c.status.Settled() {
		if streamErr != nil {
			c.status = StatusFailed
			c.errMsg = streamErr.Error()
		} else {
			c.status = StatusDone
		}
		c.totals.CrewTotalCost += c.total()
	}
	if c.status == StatusFailed {
		for _, agent := range c.agents {
			if agent.status == AgentRunning {
				agent.status = AgentFailed
			}
		}
	}
	c.changed()
}

// Snapshot returns a read-only copy of the run state.
func (c *Crew) Snapshot() CrewSnapshot {
	snap := CrewSnapshot{
		Status:    c.status,
		SessionID: c.sessionID,
		Order:     append([]string(nil), c.order...),
		Agents:    make(map[string]AgentSnapshot, len(c.agents)),
		Subtasks:  append([]stream.PlanSubtask(nil), c.subtasks...),
		Synthesis: c.synthesis.String(),
		TotalCost: c.total(),
		Budget:    c.budget,
		Err:       c.errMsg,
	}
	for name, agent := range c.agents {
		a := AgentSnapshot{
			Name:   name,
			Status: agent.status,
			Text:   agent.text.String(),
			Model:  agent.model,
		}
		if agent.cost != nil {
			cost := *agent.cost
			a.Cost = &cost
		}
		if agent.tokens != nil {
			tokens := *agent.tokens
			a.Tokens = &tokens
		}
		snap.Agents[name] = a
	}
	return snap
}

// total prefers the server-reported crew_done figure over the local
// per-agent sum.
func (c *Crew) total() float64 {
	if c.reportedTotal != nil {
		return *c.reportedTotal
	}
	var sum float64
	for _, agent := range c.agents {
		if agent.cost != nil {
			sum += *agent.cost
		}
	}
	return sum
}

// agent returns the named agent, creating it pending and empty on first
// reference from any event.
func (c *Crew) agent(name string) *agentOutput {
	if existing, ok := c.agents[name]; ok {
		return existing
	}
	created := &agentOutput{status: AgentPending}
	c.agents[name] = created
	c.order = append(c.order, name)
	return created
}

func (c *Crew) changed() {
	if c.notify != nil {
		c.notify()
	}
}
