package engine

import (
	"sort"

	"go.uber.org/zap"
)

// Oracle answers a yes/no question about a fact the prover cannot derive
// from rules or working memory. The prover blocks on it with no timeout;
// callers needing cancellation must wrap the oracle themselves.
type Oracle func(question Fact) bool

// Prover is the goal-driven chainer: it attempts to prove goals
// recursively against the rule set and working memory, falling back to
// the question oracle for facts nothing concludes.
//
// A Prover is one session. Proved/failed/asked memoization persists
// across ProveGoal calls until Reset; failures are not retried even if
// later facts would change the outcome.
type Prover struct {
	rules    *RuleSet
	memory   *WorkingMemory
	trace    *Trace
	oracle   Oracle
	proved   map[Fact]struct{}
	failed   map[Fact]struct{}
	asked    map[Fact]struct{}
	maxDepth int
	logger   *zap.Logger
}

// NewProver creates a backward-chaining session over rules. maxDepth
// bounds recursion against cyclic rule graphs. The logger is
// caller-owned; pass nil for silent operation.
func NewProver(rules *RuleSet, oracle Oracle, maxDepth int, logger *zap.Logger) *Prover {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Prover{
		rules:    rules,
		oracle:   oracle,
		maxDepth: maxDepth,
		logger:   logger,
	}
	p.Reset()
	return p
}

// Reset clears working memory, the trace, and all memoization sets,
// starting a fresh session over the same rule set.
func (p *Prover) Reset() {
	p.memory = NewWorkingMemory()
	p.trace = NewTrace()
	p.proved = make(map[Fact]struct{})
	p.failed = make(map[Fact]struct{})
	p.asked = make(map[Fact]struct{})
}

// AddFacts seeds the working memory with facts already known.
func (p *Prover) AddFacts(facts ...Fact) {
	for _, f := range facts {
		p.memory.AddKnown(f)
		p.trace.Append(Event{Type: EventFactAdded, Fact: f})
	}
}

// Trace returns the session's reasoning trace.
func (p *Prover) Trace() *Trace { return p.trace }

// ProveGoal attempts to prove goal from depth zero.
func (p *Prover) ProveGoal(goal Fact) bool {
	return p.prove(goal, 0)
}

// prove is the recursive goal proof:
//
//  1. depth beyond maxDepth fails the attempt (cycle guard).
//  2. Memoized verdicts are returned without recomputation.
//  3. A goal already in working memory is proved.
//  4. A goal no rule concludes is delegated to the oracle, at most once
//     per distinct goal per session.
//  5. Otherwise matching rules are tried in evaluation order; the first
//     rule whose antecedents all prove wins. No exhaustive search.
//  6. A goal no rule could establish is memoized failed for the session.
func (p *Prover) prove(goal Fact, depth int) bool {
	if depth > p.maxDepth {
		p.trace.Append(Event{Type: EventMaxDepthReached, Goal: goal, Depth: depth})
		p.logger.Warn("max depth reached", zap.String("goal", string(goal)), zap.Int("depth", depth))
		return false
	}

	if _, ok := p.proved[goal]; ok {
		return true
	}
	if _, ok := p.failed[goal]; ok {
		return false
	}

	if p.memory.Has(goal) {
		p.proved[goal] = struct{}{}
		p.trace.Append(Event{Type: EventGoalProvedByFact, Goal: goal, Depth: depth})
		return true
	}

	matching := p.rules.RulesFor(goal)
	if len(matching) == 0 {
		if p.askUser(goal) {
			p.memory.AddKnown(goal)
			p.proved[goal] = struct{}{}
			p.trace.Append(Event{Type: EventGoalProvedByUser, Goal: goal, Depth: depth})
			return true
		}
		p.failed[goal] = struct{}{}
		p.trace.Append(Event{Type: EventGoalFailed, Goal: goal, Depth: depth})
		return false
	}

	for _, rule := range matching {
		p.trace.Append(Event{
			Type:       EventTryingRule,
			RuleID:     rule.ID,
			Goal:       goal,
			Conditions: rule.If,
			Depth:      depth,
		})

		allMet := true
		for _, condition := range rule.If {
			if !p.prove(condition, depth+1) {
				allMet = false
				break
			}
		}
		if allMet {
			p.proved[goal] = struct{}{}
			p.trace.Append(Event{
				Type:   EventGoalProvedByRule,
				RuleID: rule.ID,
				Goal:   goal,
				CF:     rule.CF,
				Depth:  depth,
			})
			p.logger.Debug("goal proved by rule",
				zap.String("goal", string(goal)),
				zap.String("rule", rule.ID))
			return true
		}
	}

	p.failed[goal] = struct{}{}
	p.trace.Append(Event{Type: EventGoalFailed, Goal: goal, Depth: depth})
	return false
}

// askUser consults the oracle about goal. Each distinct goal is asked at
// most once per session; a repeat reaches here only through a bug in the
// memoization above, and is answered false without re-prompting.
func (p *Prover) askUser(goal Fact) bool {
	if _, done := p.asked[goal]; done {
		return false
	}
	p.asked[goal] = struct{}{}

	if p.oracle == nil {
		return false
	}
	answer := p.oracle(goal)
	p.trace.Append(Event{Type: EventUserQuestioned, Question: goal, Answer: answer})
	return answer
}

// ProvedGoal is a proved goal with its conservative confidence.
type ProvedGoal struct {
	Goal       Fact    `json:"goal"`
	Confidence float64 `json:"confidence"`
}

// BackwardResult is the outcome of one backward-chaining run.
type BackwardResult struct {
	Goals          []Fact       `json:"goals"`
	Proved         []ProvedGoal `json:"proved_goals"`
	Failed         []Fact       `json:"failed_goals"`
	QuestionsAsked []Fact       `json:"questions_asked"`
	Trace          *Trace       `json:"-"`
}

// Run attempts to prove each goal in order and collects the results.
func (p *Prover) Run(goals []Fact) *BackwardResult {
	result := &BackwardResult{Goals: goals}
	for _, goal := range goals {
		if p.ProveGoal(goal) {
			result.Proved = append(result.Proved, ProvedGoal{
				Goal:       goal,
				Confidence: p.GoalConfidence(goal),
			})
		} else {
			result.Failed = append(result.Failed, goal)
		}
	}
	result.QuestionsAsked = p.QuestionsAsked()
	result.Trace = p.trace
	p.logger.Info("backward chaining finished",
		zap.Int("goals", len(goals)),
		zap.Int("proved", len(result.Proved)),
		zap.Int("failed", len(result.Failed)),
		zap.Int("questions", len(result.QuestionsAsked)))
	return result
}

// GoalConfidence returns the confidence for a proved goal: the minimum
// CF among the rules the trace records as concluding it. This is a
// deliberately conservative combinator, distinct from the additive
// forward-chaining scheme. Goals proved directly by fact or by the user
// carry confidence 1.0.
func (p *Prover) GoalConfidence(goal Fact) float64 {
	confidence := 1.0
	for _, e := range p.trace.Events() {
		if e.Type == EventGoalProvedByRule && e.Goal == goal && e.CF < confidence {
			confidence = e.CF
		}
	}
	return confidence
}

// ExplainGoal returns the trace events that led to goal being proved or
// failed, in trace order.
func (p *Prover) ExplainGoal(goal Fact) []Event {
	return p.trace.ProofChain(goal)
}

// QuestionsAsked returns the distinct goals the oracle was consulted
// about, sorted.
func (p *Prover) QuestionsAsked() []Fact {
	out := make([]Fact, 0, len(p.asked))
	for f := range p.asked {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Stats summarizes the session.
type Stats struct {
	GoalsAttempted int     `json:"total_goals_attempted"`
	Proved         int     `json:"proved_goals"`
	Failed         int     `json:"failed_goals"`
	QuestionsAsked int     `json:"questions_asked"`
	ReasoningSteps int     `json:"reasoning_steps"`
	SuccessRate    float64 `json:"success_rate"`
}

// Stats returns session statistics.
func (p *Prover) Stats() Stats {
	attempted := len(p.proved) + len(p.failed)
	rate := 0.0
	if attempted > 0 {
		rate = float64(len(p.proved)) / float64(attempted) * 100
	}
	return Stats{
		GoalsAttempted: attempted,
		Proved:         len(p.proved),
		Failed:         len(p.failed),
		QuestionsAsked: len(p.asked),
		ReasoningSteps: p.trace.Len(),
		SuccessRate:    rate,
	}
}
