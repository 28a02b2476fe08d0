package engine

import "testing"

func TestTraceAppendOrder(t *testing.T) {
	tr := NewTrace()
	tr.Append(Event{Type: EventFactAdded, Fact: "a"})
	tr.Append(Event{Type: EventRuleFired, RuleID: "r1", Conclusion: "b", Conditions: []Fact{"a"}})
	tr.Append(Event{Type: EventRuleFired, RuleID: "r2", Conclusion: "c", Conditions: []Fact{"b"}})

	events := tr.Events()
	if len(events) != 3 {
		t.Fatalf("Len = %d, want 3", len(events))
	}
	if events[0].Type != EventFactAdded || events[2].RuleID != "r2" {
		t.Error("append order lost")
	}
	for _, e := range events {
		if e.Timestamp.IsZero() {
			t.Error("event not timestamped on append")
		}
	}
}

func TestTraceEventsReturnsCopy(t *testing.T) {
	tr := NewTrace()
	tr.Append(Event{Type: EventFactAdded, Fact: "a"})

	events := tr.Events()
	events[0].Fact = "mutated"

	if tr.Events()[0].Fact != "a" {
		t.Error("caller mutation leaked into the trace")
	}
}

func TestTraceFiredFor(t *testing.T) {
	tr := NewTrace()
	tr.Append(Event{Type: EventRuleFired, RuleID: "r1", Conclusion: "x"})
	tr.Append(Event{Type: EventRuleFired, RuleID: "r2", Conclusion: "y"})
	tr.Append(Event{Type: EventRuleFired, RuleID: "r3", Conclusion: "x"})

	fired := tr.FiredFor("x")
	if len(fired) != 2 || fired[0].RuleID != "r1" || fired[1].RuleID != "r3" {
		t.Errorf("FiredFor(x) = %v, want r1 then r3", fired)
	}
}

func TestTraceProofChain(t *testing.T) {
	tr := NewTrace()
	tr.Append(Event{Type: EventTryingRule, RuleID: "r1", Goal: "g", Conditions: []Fact{"c1"}})
	tr.Append(Event{Type: EventGoalProvedByFact, Goal: "c1"})
	tr.Append(Event{Type: EventGoalProvedByRule, RuleID: "r1", Goal: "g", CF: 0.7})
	tr.Append(Event{Type: EventFactAdded, Fact: "unrelated"})

	chain := tr.ProofChain("g")
	if len(chain) != 2 {
		t.Fatalf("ProofChain(g) has %d events, want 2", len(chain))
	}
	// c1 appears both as its own goal and inside r1's conditions.
	if len(tr.ProofChain("c1")) != 2 {
		t.Errorf("ProofChain(c1) = %v, want trying_rule and proved_by_fact", tr.ProofChain("c1"))
	}
}
