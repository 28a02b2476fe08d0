package engine

import (
	"sort"

	"go.uber.org/zap"
)

// Forward is the data-driven evaluator: it iterates the rule set to a
// fixpoint from the known facts. The rule set is read-only and may be
// shared; every Run builds its own session state.
type Forward struct {
	rules  *RuleSet
	logger *zap.Logger
}

// NewForward creates a forward-chaining evaluator over rules. The logger
// is caller-owned; pass nil for silent operation.
func NewForward(rules *RuleSet, logger *zap.Logger) *Forward {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Forward{rules: rules, logger: logger}
}

// Rules returns the rule set the evaluator runs over.
func (f *Forward) Rules() *RuleSet { return f.rules }

// Diagnosis is one ranked terminal conclusion.
type Diagnosis struct {
	Fact       Fact    `json:"diagnosis"`
	Confidence float64 `json:"confidence"` // accumulated CF, clamped to 1.0
	Percentage float64 `json:"percentage"`
}

// ForwardResult is the outcome of one forward-chaining session.
type ForwardResult struct {
	Iterations      int              `json:"iterations"`
	InitialFacts    []Fact           `json:"initial_facts"`
	InferredFacts   []Fact           `json:"inferred_facts"`
	FiredRules      []string         `json:"fired_rules"`
	DiagnosisScores map[Fact]float64 `json:"diagnosis_scores"`
	FinalDiagnoses  []Diagnosis      `json:"final_diagnoses"`
	Trace           *Trace           `json:"-"`
}

// Run executes forward chaining from knownFacts, performing at most
// maxIterations passes over the rule set. A rule fires when its
// antecedents are a subset of known ∪ inferred facts; firing adds the
// consequent to the inferred set and accumulates the rule CF onto the
// consequent's diagnosis score. Each rule fires at most once. The run
// stops early when a full pass adds no new fact.
//
// Reaching maxIterations without a fixpoint returns the partial result;
// it is a safety bound against cyclic rule graphs, not an error. Empty
// knownFacts is likewise a valid run with an empty diagnosis list.
func (f *Forward) Run(knownFacts []Fact, maxIterations int) *ForwardResult {
	memory := NewWorkingMemory()
	trace := NewTrace()
	fired := make(map[string]struct{})
	scores := make(map[Fact]float64)
	var firedOrder []string

	for _, fact := range knownFacts {
		memory.AddKnown(fact)
		trace.Append(Event{Type: EventFactAdded, Fact: fact})
	}
	f.logger.Debug("forward chaining started",
		zap.Int("known_facts", len(knownFacts)),
		zap.Int("rules", f.rules.Len()))

	iteration := 0
	for added := true; added && iteration < maxIterations; {
		added = false
		iteration++

		for _, rule := range f.rules.All() {
			if _, done := fired[rule.ID]; done {
				continue
			}
			if !memory.HasAll(rule.If) {
				continue
			}

			memory.AddInferred(rule.Then)
			fired[rule.ID] = struct{}{}
			firedOrder = append(firedOrder, rule.ID)
			scores[rule.Then] += rule.CF
			trace.Append(Event{
				Type:        EventRuleFired,
				RuleID:      rule.ID,
				Conditions:  rule.If,
				Conclusion:  rule.Then,
				CF:          rule.CF,
				Description: rule.Description,
			})
			added = true

			f.logger.Debug("rule fired",
				zap.String("rule", rule.ID),
				zap.String("conclusion", string(rule.Then)),
				zap.Float64("cf", rule.CF))
		}
	}

	result := &ForwardResult{
		Iterations:      iteration,
		InitialFacts:    memory.Known(),
		InferredFacts:   memory.Inferred(),
		FiredRules:      firedOrder,
		DiagnosisScores: scores,
		FinalDiagnoses:  f.rankFinal(scores),
		Trace:           trace,
	}
	f.logger.Info("forward chaining finished",
		zap.Int("iterations", iteration),
		zap.Int("fired", len(firedOrder)),
		zap.Int("diagnoses", len(result.FinalDiagnoses)))
	return result
}

// rankFinal filters the score map down to terminal diagnoses and orders
// them by descending confidence. Scores accumulate uncapped during the
// run; they are clamped to 1.0 only here, at the presentation boundary.
func (f *Forward) rankFinal(scores map[Fact]float64) []Diagnosis {
	diagnoses := make([]Diagnosis, 0, len(scores))
	for fact, score := range scores {
		if !f.rules.IsFinal(fact) {
			continue
		}
		diagnoses = append(diagnoses, Diagnosis{
			Fact:       fact,
			Confidence: min(score, 1.0),
			Percentage: min(score*100, 100),
		})
	}
	sort.Slice(diagnoses, func(i, j int) bool {
		if diagnoses[i].Confidence != diagnoses[j].Confidence {
			return diagnoses[i].Confidence > diagnoses[j].Confidence
		}
		return diagnoses[i].Fact < diagnoses[j].Fact
	})
	return diagnoses
}

// Why returns the rules that reference fact in their antecedents. It
// answers "why is this symptom worth asking about": because these rules
// need it to reach their conclusions.
func (f *Forward) Why(fact Fact) []Rule {
	return f.rules.RulesUsing(fact)
}

// ExplanationStep is one structured HOW-explanation record.
type ExplanationStep struct {
	RuleID      string  `json:"rule_id"`
	Conditions  []Fact  `json:"conditions"`
	Conclusion  Fact    `json:"conclusion"`
	CF          float64 `json:"cf"`
	Description string  `json:"description"`
}

// Explain reconstructs how the session reached diagnosis: every
// rule-fired event producing it, in firing order.
func (r *ForwardResult) Explain(diagnosis Fact) []ExplanationStep {
	var steps []ExplanationStep
	for _, e := range r.Trace.FiredFor(diagnosis) {
		steps = append(steps, ExplanationStep{
			RuleID:      e.RuleID,
			Conditions:  e.Conditions,
			Conclusion:  e.Conclusion,
			CF:          e.CF,
			Description: e.Description,
		})
	}
	return steps
}

// ReasoningChain returns the rule IDs that fired for diagnosis, in
// firing order.
func (r *ForwardResult) ReasoningChain(diagnosis Fact) []string {
	var chain []string
	for _, e := range r.Trace.FiredFor(diagnosis) {
		chain = append(chain, e.RuleID)
	}
	return chain
}

// ConfidenceBreakdown details which rules contributed to a diagnosis
// score and the clamped total.
type ConfidenceBreakdown struct {
	Diagnosis       Fact              `json:"diagnosis"`
	TotalConfidence float64           `json:"total_confidence"`
	Contributing    []ExplanationStep `json:"contributing_rules"`
}

// Breakdown returns the confidence breakdown for diagnosis.
func (r *ForwardResult) Breakdown(diagnosis Fact) ConfidenceBreakdown {
	steps := r.Explain(diagnosis)
	total := 0.0
	for _, s := range steps {
		total += s.CF
	}
	return ConfidenceBreakdown{
		Diagnosis:       diagnosis,
		TotalConfidence: min(total, 1.0),
		Contributing:    steps,
	}
}
