package main

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pakar/internal/engine"
)

// evalCmd replays the built-in regression scenarios against the loaded
// knowledge base. Editing rules can silently change established
// diagnoses; this catches it.
var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run the built-in regression scenarios",
	RunE:  runEval,
}

// evalScenario is one expected diagnosis outcome. Forward scenarios
// feed symptoms and check the top-ranked diagnosis; backward scenarios
// prove the goal with the listed facts pre-answered yes.
type evalScenario struct {
	name       string
	backward   bool
	symptoms   []engine.Fact
	goal       engine.Fact
	expect     engine.Fact
	confidence float64
}

var evalScenarios = []evalScenario{
	{
		name:       "digitizer fault from touch symptoms",
		symptoms:   []engine.Fact{"touchscreen_tidak_respons", "layar_tampil_normal"},
		expect:     "kerusakan_touchscreen_digitizer",
		confidence: 0.88,
	},
	{
		name:       "battery degradation",
		symptoms:   []engine.Fact{"baterai_cepat_habis", "hp_terasa_panas"},
		expect:     "degradasi_baterai",
		confidence: 0.82,
	},
	{
		name:       "full storage through intermediate conclusion",
		symptoms:   []engine.Fact{"hp_lambat", "memori_penuh"},
		expect:     "masalah_storage_penuh",
		confidence: 0.8,
	},
	{
		name:       "malware chain",
		symptoms:   []engine.Fact{"hp_lambat", "muncul_iklan_berlebihan", "kuota_cepat_habis"},
		expect:     "infeksi_malware",
		confidence: 0.85,
	},
	{
		name:       "swollen battery",
		symptoms:   []engine.Fact{"baterai_kembung"},
		expect:     "kerusakan_baterai_fisik",
		confidence: 0.95,
	},
	{
		name:       "prove digitizer fault backwards",
		backward:   true,
		symptoms:   []engine.Fact{"touchscreen_tidak_respons", "layar_tampil_normal"},
		goal:       "kerusakan_touchscreen_digitizer",
		expect:     "kerusakan_touchscreen_digitizer",
		confidence: 0.88,
	},
	{
		name:       "prove liquid damage backwards",
		backward:   true,
		symptoms:   []engine.Fact{"hp_terkena_air"},
		goal:       "kerusakan_akibat_cairan",
		expect:     "kerusakan_akibat_cairan",
		confidence: 0.9,
	},
}

type evalOutcome struct {
	scenario string
	err      error
}

func runEval(cmd *cobra.Command, args []string) error {
	rules, _, err := loadRules()
	if err != nil {
		return err
	}

	var (
		mu       sync.Mutex
		outcomes []evalOutcome
	)

	// Each scenario gets its own engine instance; session state is never
	// shared, so they can run concurrently.
	g, _ := errgroup.WithContext(cmd.Context())
	g.SetLimit(4)
	for _, sc := range evalScenarios {
		g.Go(func() error {
			err := runScenario(rules, sc)
			mu.Lock()
			outcomes = append(outcomes, evalOutcome{scenario: sc.name, err: err})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].scenario < outcomes[j].scenario })

	failed := 0
	for _, o := range outcomes {
		if o.err != nil {
			failed++
			fmt.Printf("FAIL  %s: %v\n", o.scenario, o.err)
		} else {
			fmt.Printf("ok    %s\n", o.scenario)
		}
	}
	fmt.Printf("\n%d scenarios, %d failed\n", len(outcomes), failed)

	if failed > 0 {
		logger.Warn("regression scenarios failed", zap.Int("failed", failed))
		return fmt.Errorf("%d of %d scenarios failed", failed, len(outcomes))
	}
	return nil
}

func runScenario(rules *engine.RuleSet, sc evalScenario) error {
	if sc.backward {
		known := make(map[engine.Fact]bool, len(sc.symptoms))
		for _, s := range sc.symptoms {
			known[s] = true
		}
		prover := engine.NewProver(rules, func(q engine.Fact) bool { return known[q] }, cfg.Inference.MaxDepth, nil)
		if !prover.ProveGoal(sc.goal) {
			return fmt.Errorf("goal %s not proved", sc.goal)
		}
		got := prover.GoalConfidence(sc.goal)
		if math.Abs(got-sc.confidence) > 1e-9 {
			return fmt.Errorf("goal %s confidence %.2f, want %.2f", sc.goal, got, sc.confidence)
		}
		return nil
	}

	fc := engine.NewForward(rules, nil)
	result := fc.Run(sc.symptoms, cfg.Inference.MaxIterations)
	if len(result.FinalDiagnoses) == 0 {
		return fmt.Errorf("no diagnosis, want %s", sc.expect)
	}
	top := result.FinalDiagnoses[0]
	if top.Fact != sc.expect {
		return fmt.Errorf("top diagnosis %s, want %s", top.Fact, sc.expect)
	}
	if math.Abs(top.Confidence-sc.confidence) > 1e-9 {
		return fmt.Errorf("diagnosis %s confidence %.2f, want %.2f", top.Fact, top.Confidence, sc.confidence)
	}
	return nil
}
