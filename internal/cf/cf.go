// Package cf implements the Shortliffe-Buchanan certainty factor calculus
// used to rank competing diagnoses. A CF is a real number in [-1, 1]:
// positive values favor a hypothesis, negative values disfavor it.
//
// All functions are pure and stateless. Inputs are not range-checked;
// passing a rule CF outside [0, 1] or a combined CF outside [-1, 1] is a
// caller contract violation.
package cf

import (
	"fmt"
	"math"
	"strings"
)

// FromBeliefDisbelief derives a CF from a measure of belief and a measure
// of disbelief: CF(H,E) = MB(H,E) - MD(H,E).
func FromBeliefDisbelief(mb, md float64) float64 {
	return mb - md
}

// CombineSequential combines two certainty factors for the same hypothesis.
//
// The formula depends on the signs of the operands:
//
//	both >= 0:     cf1 + cf2*(1-cf1)
//	both < 0:      cf1 + cf2*(1+cf1)
//	mixed signs:   (cf1+cf2) / (1 - min(|cf1|,|cf2|))
//
// In the mixed-sign branch a denominator of exactly 0 yields 0. That
// convention is mathematically arbitrary but kept for compatibility with
// the original calculus.
//
// Combination is associative and commutative only within a fixed sign;
// mixed-sign folds are order-dependent, so callers must fix a
// left-to-right evaluation order for reproducibility.
func CombineSequential(cf1, cf2 float64) float64 {
	switch {
	case cf1 >= 0 && cf2 >= 0:
		return cf1 + cf2*(1-cf1)
	case cf1 < 0 && cf2 < 0:
		return cf1 + cf2*(1+cf1)
	default:
		denom := 1 - math.Min(math.Abs(cf1), math.Abs(cf2))
		if denom == 0 {
			return 0
		}
		return (cf1 + cf2) / denom
	}
}

// CombineParallel folds CombineSequential over cfs in input order.
// Used when several rules support the same conclusion. An empty input
// yields 0.
func CombineParallel(cfs []float64) float64 {
	if len(cfs) == 0 {
		return 0
	}
	result := cfs[0]
	for _, v := range cfs[1:] {
		result = CombineSequential(result, v)
	}
	return result
}

// ScaleByUserCertainty attenuates a rule CF by the user's certainty about
// the underlying evidence: CF(H,E) = CF(rule) * CF(user). Applied per
// piece of evidence before combination.
func ScaleByUserCertainty(ruleCF, userCF float64) float64 {
	return ruleCF * userCF
}

// HypothesisCF computes the final CF for a hypothesis supported by n
// evidence pairs: each rule CF is scaled by the matching user certainty,
// then all evidence CFs are combined in order. The two slices must have
// equal length.
func HypothesisCF(ruleCFs, userCFs []float64) (float64, error) {
	if len(ruleCFs) != len(userCFs) {
		return 0, fmt.Errorf("cf: evidence length mismatch: %d rule CFs vs %d user CFs", len(ruleCFs), len(userCFs))
	}
	evidence := make([]float64, len(ruleCFs))
	for i := range ruleCFs {
		evidence[i] = ScaleByUserCertainty(ruleCFs[i], userCFs[i])
	}
	return CombineParallel(evidence), nil
}

// Percentage maps a CF from the symmetric range [-1, 1] to [0, 100].
func Percentage(cf float64) float64 {
	return (cf + 1) / 2 * 100
}

// Interpretation is the categorical reading of a CF magnitude.
type Interpretation struct {
	Category    string
	Description string
}

// Interpretation thresholds, bucketed against |cf| in descending order.
var interpretations = []struct {
	min    float64
	result Interpretation
}{
	{0.9, Interpretation{"Sangat Yakin", "Diagnosis ini sangat mungkin benar"}},
	{0.7, Interpretation{"Yakin", "Diagnosis ini kemungkinan besar benar"}},
	{0.5, Interpretation{"Cukup Yakin", "Diagnosis ini cukup mungkin benar"}},
	{0.3, Interpretation{"Kurang Yakin", "Diagnosis ini mungkin benar"}},
	{0.1, Interpretation{"Tidak Yakin", "Diagnosis ini kurang mungkin benar"}},
}

// Interpret buckets |cf| into a categorical confidence label.
func Interpret(cf float64) Interpretation {
	abs := math.Abs(cf)
	for _, bucket := range interpretations {
		if abs >= bucket.min {
			return bucket.result
		}
	}
	return Interpretation{"Sangat Tidak Yakin", "Diagnosis ini sangat kecil kemungkinannya"}
}

// NormalizeScale maps a user input on a 1..scale rating to [0, 1].
func NormalizeScale(value, scale int) float64 {
	if scale <= 0 {
		return 0
	}
	return float64(value) / float64(scale)
}

// likertMapping converts the Likert labels offered in the questionnaire
// to user-certainty values.
var likertMapping = map[string]float64{
	"sangat_tidak_yakin": 0.0,
	"tidak_yakin":        0.2,
	"ragu_ragu":          0.4,
	"yakin":              0.6,
	"cukup_yakin":        0.8,
	"sangat_yakin":       1.0,
}

// LikertCF converts a Likert label to a user certainty. Unknown labels
// map to 0.5.
func LikertCF(label string) float64 {
	if v, ok := likertMapping[strings.ToLower(label)]; ok {
		return v
	}
	return 0.5
}

// EvidenceDetail is one row of a hypothesis calculation breakdown.
type EvidenceDetail struct {
	EvidenceID string
	RuleCF     float64
	UserCF     float64
	CombinedCF float64
}

// Breakdown is a structured record of how a hypothesis CF was computed.
type Breakdown struct {
	Hypothesis string
	FinalCF    float64
	Percentage float64
	Category   string
	Evidence   []EvidenceDetail
}

// Evidence pairs a rule CF with the user's certainty about it.
type Evidence struct {
	ID     string
	RuleCF float64
	UserCF float64
}

// CalculateBreakdown computes the final CF for a hypothesis and returns
// the per-evidence intermediate values alongside it.
func CalculateBreakdown(hypothesis string, evidence []Evidence) Breakdown {
	details := make([]EvidenceDetail, len(evidence))
	combined := make([]float64, len(evidence))
	for i, e := range evidence {
		id := e.ID
		if id == "" {
			id = fmt.Sprintf("E%d", i+1)
		}
		combined[i] = ScaleByUserCertainty(e.RuleCF, e.UserCF)
		details[i] = EvidenceDetail{
			EvidenceID: id,
			RuleCF:     e.RuleCF,
			UserCF:     e.UserCF,
			CombinedCF: combined[i],
		}
	}
	final := CombineParallel(combined)
	return Breakdown{
		Hypothesis: hypothesis,
		FinalCF:    final,
		Percentage: Percentage(final),
		Category:   Interpret(final).Category,
		Evidence:   details,
	}
}
