package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pakar/internal/cf"
	"pakar/internal/engine"
	"pakar/internal/session"
)

var (
	consultJSON   bool
	consultTrace  bool
	consultNoSave bool
	consultAssume []string
)

// consultCmd runs backward chaining toward suspected faults.
var consultCmd = &cobra.Command{
	Use:   "consult [goal]...",
	Short: "Verify suspected faults interactively (backward chaining)",
	Long: `Attempts to prove each suspected fault, working backwards through
the rules. Facts the rules cannot derive are turned into yes/no
questions.

  pakar consult kerusakan_touchscreen_digitizer

Use --assume to pre-seed facts and skip their questions:

  pakar consult kerusakan_lcd --assume layar_tidak_menyala`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConsult,
}

func init() {
	consultCmd.Flags().BoolVar(&consultJSON, "json", false, "Emit the full result as JSON")
	consultCmd.Flags().BoolVar(&consultTrace, "trace", false, "Print the reasoning trace")
	consultCmd.Flags().BoolVar(&consultNoSave, "no-save", false, "Do not persist this session")
	consultCmd.Flags().StringSliceVar(&consultAssume, "assume", nil, "Facts taken as true without asking")
}

// stdinOracle prompts on stdout and reads a yes/no answer. Anything
// other than an explicit yes counts as no.
func stdinOracle(in *bufio.Reader) engine.Oracle {
	return func(question engine.Fact) bool {
		fmt.Printf("Apakah benar: %s? [y/n] ", question)
		line, err := in.ReadString('\n')
		if err != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "ya", "yes":
			return true
		}
		return false
	}
}

func runConsult(cmd *cobra.Command, args []string) error {
	goals := make([]engine.Fact, len(args))
	for i, a := range args {
		goals[i] = engine.Fact(a)
	}

	rules, meta, err := loadRules()
	if err != nil {
		return err
	}
	logger.Debug("knowledge base ready",
		zap.String("domain", meta.Domain),
		zap.Int("rules", rules.Len()))

	prover := engine.NewProver(rules, stdinOracle(bufio.NewReader(os.Stdin)), cfg.Inference.MaxDepth, logger)
	for _, f := range consultAssume {
		prover.AddFacts(engine.Fact(f))
	}

	result := prover.Run(goals)
	stats := prover.Stats()

	if !consultNoSave {
		if err := saveSession(session.FromBackward(result, stats)); err != nil {
			logger.Warn("session not persisted", zap.Error(err))
		}
	}

	if consultJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			*engine.BackwardResult
			Stats engine.Stats `json:"stats"`
		}{result, stats})
	}

	printBackwardResult(result, stats)

	if consultTrace {
		printTrace(result.Trace)
	}
	return nil
}

func printBackwardResult(result *engine.BackwardResult, stats engine.Stats) {
	fmt.Println()
	for _, g := range result.Proved {
		interp := cf.Interpret(g.Confidence)
		fmt.Printf("PROVED  %s  %.0f%% (%s)\n", g.Goal, cf.Percentage(g.Confidence), interp.Category)
	}
	for _, g := range result.Failed {
		fmt.Printf("FAILED  %s\n", g)
	}
	fmt.Printf("\nGoals: %d  Proved: %d  Questions: %d  Success rate: %.0f%%\n",
		stats.GoalsAttempted, stats.Proved, stats.QuestionsAsked, stats.SuccessRate)
}
