// Package engine implements the rule-based inference core: a
// forward-chaining fixpoint evaluator, a backward-chaining recursive
// prover, and the shared working memory and reasoning trace they operate
// on.
//
// The rule set is immutable once built and may be shared across
// concurrent sessions. All other state (working memory, proof state,
// trace) is owned by exactly one session and must not be shared.
package engine

import (
	"fmt"
	"sort"
)

// Fact is an opaque atom naming a symptom or an inferred condition.
// Equality is exact string match.
type Fact string

// Rule is a single production: if every antecedent holds, the consequent
// holds with the given certainty factor.
type Rule struct {
	ID          string
	If          []Fact  // antecedent conjunction, never empty
	Then        Fact    // single consequent
	CF          float64 // authoring-time certainty in [0, 1]
	Final       bool    // consequent is a terminal diagnosis
	Category    string
	Description string
	Source      string
}

// RuleSet is an immutable, validated collection of rules with a fixed
// deterministic evaluation order (ascending rule ID).
type RuleSet struct {
	rules        map[string]Rule
	order        []string
	byConsequent map[Fact][]string
}

// NewRuleSet validates rules and builds the evaluation indexes.
// Structural invariants checked here: unique non-empty IDs, non-empty
// antecedent sets, non-empty consequents, CF within [0, 1].
func NewRuleSet(rules []Rule) (*RuleSet, error) {
	rs := &RuleSet{
		rules:        make(map[string]Rule, len(rules)),
		byConsequent: make(map[Fact][]string),
	}
	for _, r := range rules {
		if r.ID == "" {
			return nil, fmt.Errorf("engine: rule with empty id")
		}
		if _, dup := rs.rules[r.ID]; dup {
			return nil, fmt.Errorf("engine: duplicate rule id %q", r.ID)
		}
		if len(r.If) == 0 {
			return nil, fmt.Errorf("engine: rule %s has no antecedents", r.ID)
		}
		if r.Then == "" {
			return nil, fmt.Errorf("engine: rule %s has no consequent", r.ID)
		}
		if r.CF < 0 || r.CF > 1 {
			return nil, fmt.Errorf("engine: rule %s CF %v outside [0, 1]", r.ID, r.CF)
		}
		rs.rules[r.ID] = r
		rs.order = append(rs.order, r.ID)
	}
	sort.Strings(rs.order)
	for _, id := range rs.order {
		r := rs.rules[id]
		rs.byConsequent[r.Then] = append(rs.byConsequent[r.Then], id)
	}
	return rs, nil
}

// EmptyRuleSet returns a rule set with no rules. Both chainers accept it
// and produce empty results; a missing or malformed repository degrades
// to this rather than failing the engine.
func EmptyRuleSet() *RuleSet {
	rs, _ := NewRuleSet(nil)
	return rs
}

// Len returns the number of rules.
func (rs *RuleSet) Len() int { return len(rs.order) }

// IDs returns all rule IDs in evaluation order.
func (rs *RuleSet) IDs() []string {
	out := make([]string, len(rs.order))
	copy(out, rs.order)
	return out
}

// Get returns the rule with the given ID.
func (rs *RuleSet) Get(id string) (Rule, bool) {
	r, ok := rs.rules[id]
	return r, ok
}

// All returns every rule in evaluation order.
func (rs *RuleSet) All() []Rule {
	out := make([]Rule, 0, len(rs.order))
	for _, id := range rs.order {
		out = append(out, rs.rules[id])
	}
	return out
}

// RulesFor returns the rules concluding goal, in evaluation order.
func (rs *RuleSet) RulesFor(goal Fact) []Rule {
	ids := rs.byConsequent[goal]
	out := make([]Rule, 0, len(ids))
	for _, id := range ids {
		out = append(out, rs.rules[id])
	}
	return out
}

// RulesUsing returns the rules that reference fact in their antecedents,
// in evaluation order. This backs WHY explanations: the system asks
// about a fact because these rules need it.
func (rs *RuleSet) RulesUsing(fact Fact) []Rule {
	var out []Rule
	for _, id := range rs.order {
		r := rs.rules[id]
		for _, c := range r.If {
			if c == fact {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// IsFinal reports whether fact is recognized as a terminal diagnosis:
// at least one rule concluding it carries the final tag.
func (rs *RuleSet) IsFinal(fact Fact) bool {
	for _, id := range rs.byConsequent[fact] {
		if rs.rules[id].Final {
			return true
		}
	}
	return false
}
