package session

import (
	"strconv"

	"pakar/internal/engine"
)

// FromForward converts a forward chaining result into a persistable
// record.
func FromForward(res *engine.ForwardResult) *Record {
	rec := &Record{
		Mode:     ModeForward,
		Symptoms: res.InitialFacts,
		Events:   res.Trace.Events(),
		Stats: map[string]string{
			"iterations":     strconv.Itoa(res.Iterations),
			"rules_fired":    strconv.Itoa(len(res.FiredRules)),
			"facts_inferred": strconv.Itoa(len(res.InferredFacts)),
		},
	}
	for _, d := range res.FinalDiagnoses {
		rec.Results = append(rec.Results, ResultEntry{
			Fact:       d.Fact,
			Confidence: d.Confidence,
			Proved:     true,
		})
	}
	return rec
}

// FromBackward converts a backward chaining result into a persistable
// record.
func FromBackward(res *engine.BackwardResult, stats engine.Stats) *Record {
	rec := &Record{
		Mode:   ModeBackward,
		Goals:  res.Goals,
		Events: res.Trace.Events(),
		Stats: map[string]string{
			"goals_attempted": strconv.Itoa(stats.GoalsAttempted),
			"questions_asked": strconv.Itoa(stats.QuestionsAsked),
			"success_rate":    strconv.FormatFloat(stats.SuccessRate, 'f', 2, 64),
		},
	}
	for _, g := range res.Proved {
		rec.Results = append(rec.Results, ResultEntry{
			Fact:       g.Goal,
			Confidence: g.Confidence,
			Proved:     true,
		})
	}
	for _, g := range res.Failed {
		rec.Results = append(rec.Results, ResultEntry{Fact: g, Proved: false})
	}
	return rec
}
