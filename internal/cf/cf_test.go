package cf

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestFromBeliefDisbelief(t *testing.T) {
	cases := []struct {
		mb, md, want float64
	}{
		{1.0, 0.0, 1.0},
		{0.0, 1.0, -1.0},
		{0.7, 0.2, 0.5},
		{0.5, 0.5, 0.0},
	}
	for _, tc := range cases {
		got := FromBeliefDisbelief(tc.mb, tc.md)
		if !almostEqual(got, tc.want) {
			t.Errorf("FromBeliefDisbelief(%v, %v) = %v, want %v", tc.mb, tc.md, got, tc.want)
		}
	}
}

func TestCombineSequentialBothPositive(t *testing.T) {
	// 0.8 + 0.6*(1-0.8) = 0.92
	got := CombineSequential(0.8, 0.6)
	if !almostEqual(got, 0.92) {
		t.Errorf("CombineSequential(0.8, 0.6) = %v, want 0.92", got)
	}
}

func TestCombineSequentialBothNegative(t *testing.T) {
	// -0.8 + -0.6*(1-0.8) = -0.92
	got := CombineSequential(-0.8, -0.6)
	if !almostEqual(got, -0.92) {
		t.Errorf("CombineSequential(-0.8, -0.6) = %v, want -0.92", got)
	}
}

func TestCombineSequentialMixedSign(t *testing.T) {
	// (0.6 - 0.3) / (1 - 0.3) = 0.3/0.7
	got := CombineSequential(0.6, -0.3)
	want := 0.3 / 0.7
	if !almostEqual(got, want) {
		t.Errorf("CombineSequential(0.6, -0.3) = %v, want %v", got, want)
	}
}

func TestCombineSequentialMixedSignZeroDenominator(t *testing.T) {
	// min(|1|, |-1|) = 1, denominator 0; defined as 0.
	got := CombineSequential(1.0, -1.0)
	if got != 0 {
		t.Errorf("CombineSequential(1, -1) = %v, want 0", got)
	}
}

func TestCombineSequentialIdentity(t *testing.T) {
	for _, v := range []float64{0, 0.1, 0.5, 0.88, 1.0} {
		if got := CombineSequential(v, 0); !almostEqual(got, v) {
			t.Errorf("CombineSequential(%v, 0) = %v, want %v", v, got, v)
		}
	}
}

func TestCombineSequentialCommutativeSameSign(t *testing.T) {
	pairs := [][2]float64{{0.3, 0.7}, {0.88, 0.12}, {-0.4, -0.9}}
	for _, p := range pairs {
		ab := CombineSequential(p[0], p[1])
		ba := CombineSequential(p[1], p[0])
		if !almostEqual(ab, ba) {
			t.Errorf("CombineSequential not commutative for %v: %v vs %v", p, ab, ba)
		}
	}
}

func TestCombineParallel(t *testing.T) {
	if got := CombineParallel(nil); got != 0 {
		t.Errorf("CombineParallel(nil) = %v, want 0", got)
	}
	if got := CombineParallel([]float64{0.42}); !almostEqual(got, 0.42) {
		t.Errorf("CombineParallel single = %v, want 0.42", got)
	}
	// Left fold: ((0.6 ⊕ 0.7) ⊕ 0.5) = (0.88 ⊕ 0.5) = 0.94
	got := CombineParallel([]float64{0.6, 0.7, 0.5})
	if !almostEqual(got, 0.94) {
		t.Errorf("CombineParallel([0.6 0.7 0.5]) = %v, want 0.94", got)
	}
}

func TestScaleByUserCertainty(t *testing.T) {
	if got := ScaleByUserCertainty(0.8, 1.0); !almostEqual(got, 0.8) {
		t.Errorf("ScaleByUserCertainty(0.8, 1.0) = %v, want 0.8", got)
	}
	if got := ScaleByUserCertainty(0.8, 0.5); !almostEqual(got, 0.4) {
		t.Errorf("ScaleByUserCertainty(0.8, 0.5) = %v, want 0.4", got)
	}
}

func TestHypothesisCF(t *testing.T) {
	// E1 = 0.7*1.0 = 0.7, E2 = 0.8*0.9 = 0.72
	// 0.7 + 0.72*(1-0.7) = 0.916
	got, err := HypothesisCF([]float64{0.7, 0.8}, []float64{1.0, 0.9})
	if err != nil {
		t.Fatalf("HypothesisCF() error = %v", err)
	}
	if !almostEqual(got, 0.916) {
		t.Errorf("HypothesisCF = %v, want 0.916", got)
	}
}

func TestHypothesisCFLengthMismatch(t *testing.T) {
	if _, err := HypothesisCF([]float64{0.7, 0.8}, []float64{1.0}); err == nil {
		t.Fatal("HypothesisCF() expected error for mismatched lengths")
	}
}

func TestPercentage(t *testing.T) {
	cases := []struct{ cf, want float64 }{
		{-1, 0},
		{0, 50},
		{1, 100},
		{0.5, 75},
	}
	for _, tc := range cases {
		if got := Percentage(tc.cf); !almostEqual(got, tc.want) {
			t.Errorf("Percentage(%v) = %v, want %v", tc.cf, got, tc.want)
		}
	}
}

func TestInterpret(t *testing.T) {
	cases := []struct {
		cf   float64
		want string
	}{
		{0.95, "Sangat Yakin"},
		{0.9, "Sangat Yakin"},
		{0.75, "Yakin"},
		{0.5, "Cukup Yakin"},
		{0.35, "Kurang Yakin"},
		{0.15, "Tidak Yakin"},
		{0.05, "Sangat Tidak Yakin"},
		{-0.95, "Sangat Yakin"}, // interpretation uses |cf|
	}
	for _, tc := range cases {
		if got := Interpret(tc.cf).Category; got != tc.want {
			t.Errorf("Interpret(%v) = %q, want %q", tc.cf, got, tc.want)
		}
	}
}

func TestNormalizeScale(t *testing.T) {
	if got := NormalizeScale(4, 5); !almostEqual(got, 0.8) {
		t.Errorf("NormalizeScale(4, 5) = %v, want 0.8", got)
	}
	if got := NormalizeScale(3, 0); got != 0 {
		t.Errorf("NormalizeScale(3, 0) = %v, want 0", got)
	}
}

func TestLikertCF(t *testing.T) {
	if got := LikertCF("sangat_yakin"); !almostEqual(got, 1.0) {
		t.Errorf("LikertCF(sangat_yakin) = %v, want 1.0", got)
	}
	if got := LikertCF("Ragu_Ragu"); !almostEqual(got, 0.4) {
		t.Errorf("LikertCF(Ragu_Ragu) = %v, want 0.4", got)
	}
	if got := LikertCF("unknown_label"); !almostEqual(got, 0.5) {
		t.Errorf("LikertCF(unknown) = %v, want 0.5", got)
	}
}

func TestCalculateBreakdown(t *testing.T) {
	evidence := []Evidence{
		{ID: "E1", RuleCF: 0.7, UserCF: 1.0},
		{RuleCF: 0.8, UserCF: 0.9},
	}
	b := CalculateBreakdown("kerusakan_digitizer", evidence)

	if len(b.Evidence) != 2 {
		t.Fatalf("expected 2 evidence details, got %d", len(b.Evidence))
	}
	if b.Evidence[1].EvidenceID != "E2" {
		t.Errorf("missing evidence id defaulted to %q, want E2", b.Evidence[1].EvidenceID)
	}
	if !almostEqual(b.Evidence[1].CombinedCF, 0.72) {
		t.Errorf("E2 combined = %v, want 0.72", b.Evidence[1].CombinedCF)
	}
	if !almostEqual(b.FinalCF, 0.916) {
		t.Errorf("FinalCF = %v, want 0.916", b.FinalCF)
	}
	if b.Category != "Sangat Yakin" {
		t.Errorf("Category = %q, want Sangat Yakin", b.Category)
	}
}
