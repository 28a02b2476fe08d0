package engine

import "testing"

func TestNewRuleSetValidation(t *testing.T) {
	valid := Rule{ID: "r1", If: []Fact{"a"}, Then: "b", CF: 0.8}

	cases := []struct {
		name  string
		rules []Rule
	}{
		{"empty id", []Rule{{If: []Fact{"a"}, Then: "b", CF: 0.5}}},
		{"duplicate id", []Rule{valid, valid}},
		{"no antecedents", []Rule{{ID: "r1", Then: "b", CF: 0.5}}},
		{"no consequent", []Rule{{ID: "r1", If: []Fact{"a"}, CF: 0.5}}},
		{"cf below range", []Rule{{ID: "r1", If: []Fact{"a"}, Then: "b", CF: -0.1}}},
		{"cf above range", []Rule{{ID: "r1", If: []Fact{"a"}, Then: "b", CF: 1.1}}},
	}
	for _, tc := range cases {
		if _, err := NewRuleSet(tc.rules); err == nil {
			t.Errorf("NewRuleSet(%s) expected error", tc.name)
		}
	}

	rs, err := NewRuleSet([]Rule{valid})
	if err != nil {
		t.Fatalf("NewRuleSet(valid) error = %v", err)
	}
	if rs.Len() != 1 {
		t.Errorf("Len() = %d, want 1", rs.Len())
	}
}

func TestRuleSetOrder(t *testing.T) {
	rs, err := NewRuleSet([]Rule{
		{ID: "r3", If: []Fact{"a"}, Then: "x", CF: 0.5},
		{ID: "r1", If: []Fact{"a"}, Then: "y", CF: 0.5},
		{ID: "r2", If: []Fact{"a"}, Then: "z", CF: 0.5},
	})
	if err != nil {
		t.Fatalf("NewRuleSet() error = %v", err)
	}
	ids := rs.IDs()
	want := []string{"r1", "r2", "r3"}
	for i, id := range want {
		if ids[i] != id {
			t.Fatalf("IDs() = %v, want %v", ids, want)
		}
	}
}

func TestRuleSetRulesFor(t *testing.T) {
	rs, err := NewRuleSet([]Rule{
		{ID: "r1", If: []Fact{"a"}, Then: "goal", CF: 0.5},
		{ID: "r2", If: []Fact{"b"}, Then: "goal", CF: 0.7},
		{ID: "r3", If: []Fact{"c"}, Then: "other", CF: 0.9},
	})
	if err != nil {
		t.Fatalf("NewRuleSet() error = %v", err)
	}
	rules := rs.RulesFor("goal")
	if len(rules) != 2 || rules[0].ID != "r1" || rules[1].ID != "r2" {
		t.Errorf("RulesFor(goal) = %v, want [r1 r2]", rules)
	}
	if got := rs.RulesFor("missing"); len(got) != 0 {
		t.Errorf("RulesFor(missing) = %v, want empty", got)
	}
}

func TestRuleSetRulesUsing(t *testing.T) {
	rs, err := NewRuleSet([]Rule{
		{ID: "r1", If: []Fact{"sym_a", "sym_b"}, Then: "x", CF: 0.5},
		{ID: "r2", If: []Fact{"sym_b"}, Then: "y", CF: 0.5},
		{ID: "r3", If: []Fact{"sym_c"}, Then: "z", CF: 0.5},
	})
	if err != nil {
		t.Fatalf("NewRuleSet() error = %v", err)
	}
	using := rs.RulesUsing("sym_b")
	if len(using) != 2 || using[0].ID != "r1" || using[1].ID != "r2" {
		t.Errorf("RulesUsing(sym_b) = %v, want [r1 r2]", using)
	}
}

func TestRuleSetIsFinal(t *testing.T) {
	rs, err := NewRuleSet([]Rule{
		{ID: "r1", If: []Fact{"a"}, Then: "intermediate", CF: 0.5},
		{ID: "r2", If: []Fact{"intermediate"}, Then: "kerusakan_x", CF: 0.9, Final: true},
	})
	if err != nil {
		t.Fatalf("NewRuleSet() error = %v", err)
	}
	if rs.IsFinal("intermediate") {
		t.Error("IsFinal(intermediate) = true, want false")
	}
	if !rs.IsFinal("kerusakan_x") {
		t.Error("IsFinal(kerusakan_x) = false, want true")
	}
}

func TestEmptyRuleSet(t *testing.T) {
	rs := EmptyRuleSet()
	if rs.Len() != 0 {
		t.Errorf("EmptyRuleSet().Len() = %d, want 0", rs.Len())
	}
}

func TestWorkingMemoryDisjointSets(t *testing.T) {
	wm := NewWorkingMemory()
	wm.AddKnown("a")
	wm.AddInferred("b")

	if !wm.Has("a") || !wm.Has("b") {
		t.Error("Has() should see both known and inferred facts")
	}
	if wm.Has("c") {
		t.Error("Has(c) = true for absent fact")
	}
	if !wm.HasAll([]Fact{"a", "b"}) {
		t.Error("HasAll([a b]) = false")
	}
	if wm.HasAll([]Fact{"a", "c"}) {
		t.Error("HasAll([a c]) = true")
	}
	if got := wm.Known(); len(got) != 1 || got[0] != "a" {
		t.Errorf("Known() = %v, want [a]", got)
	}
	if got := wm.Inferred(); len(got) != 1 || got[0] != "b" {
		t.Errorf("Inferred() = %v, want [b]", got)
	}
}
