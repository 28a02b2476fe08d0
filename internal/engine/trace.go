package engine

import "time"

// EventType classifies reasoning trace events.
type EventType string

const (
	EventFactAdded        EventType = "fact_added"
	EventRuleFired        EventType = "rule_fired"
	EventTryingRule       EventType = "trying_rule"
	EventUserQuestioned   EventType = "user_questioned"
	EventGoalProvedByFact EventType = "goal_proved_by_fact"
	EventGoalProvedByRule EventType = "goal_proved_by_rule"
	EventGoalProvedByUser EventType = "goal_proved_by_user"
	EventGoalFailed       EventType = "goal_failed"
	EventMaxDepthReached  EventType = "max_depth_reached"
)

// Event is one immutable step in the reasoning trace. Fields are
// populated per type: rule events carry RuleID/Conditions/Conclusion/CF,
// question events carry Question/Answer, goal events carry Goal/Depth.
type Event struct {
	Type        EventType `json:"type"`
	Fact        Fact      `json:"fact,omitempty"`
	Goal        Fact      `json:"goal,omitempty"`
	RuleID      string    `json:"rule_id,omitempty"`
	Conditions  []Fact    `json:"conditions,omitempty"`
	Conclusion  Fact      `json:"conclusion,omitempty"`
	CF          float64   `json:"cf,omitempty"`
	Description string    `json:"description,omitempty"`
	Question    Fact      `json:"question,omitempty"`
	Answer      bool      `json:"answer,omitempty"`
	Depth       int       `json:"depth,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Trace is an append-only, strictly time-ordered event log scoped to one
// session. Events are immutable once appended. Both chainers write to
// it; explanation queries read it back.
type Trace struct {
	events []Event
}

// NewTrace returns an empty trace.
func NewTrace() *Trace {
	return &Trace{}
}

// Append records an event, stamping it if unstamped.
func (t *Trace) Append(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	t.events = append(t.events, e)
}

// Events returns a copy of the event log in append order.
func (t *Trace) Events() []Event {
	out := make([]Event, len(t.events))
	copy(out, t.events)
	return out
}

// Len returns the number of recorded events.
func (t *Trace) Len() int { return len(t.events) }

// FiredFor returns the rule-fired events that produced the given
// conclusion, in trace order. This backs HOW explanations.
func (t *Trace) FiredFor(conclusion Fact) []Event {
	var out []Event
	for _, e := range t.events {
		if e.Type == EventRuleFired && e.Conclusion == conclusion {
			out = append(out, e)
		}
	}
	return out
}

// ProofChain returns every event that mentions goal, either as the goal
// itself or among rule conditions, in trace order.
func (t *Trace) ProofChain(goal Fact) []Event {
	var out []Event
	for _, e := range t.events {
		if e.Goal == goal || e.Conclusion == goal {
			out = append(out, e)
			continue
		}
		for _, c := range e.Conditions {
			if c == goal {
				out = append(out, e)
				break
			}
		}
	}
	return out
}
