package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pakar/internal/cf"
	"pakar/internal/engine"
	"pakar/internal/kb"
	"pakar/internal/session"
)

var (
	diagnoseJSON    bool
	diagnoseTrace   bool
	diagnoseNoSave  bool
	diagnoseExplain string
)

// diagnoseCmd runs forward chaining over the reported symptoms.
var diagnoseCmd = &cobra.Command{
	Use:   "diagnose [symptom]...",
	Short: "Diagnose faults from observed symptoms (forward chaining)",
	Long: `Derives every reachable conclusion from the reported symptoms and
ranks the terminal diagnoses by accumulated confidence.

Symptoms are lowercase identifiers from the knowledge base, e.g.:

  pakar diagnose touchscreen_tidak_respons layar_tampil_normal`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDiagnose,
}

func init() {
	diagnoseCmd.Flags().BoolVar(&diagnoseJSON, "json", false, "Emit the full result as JSON")
	diagnoseCmd.Flags().BoolVar(&diagnoseTrace, "trace", false, "Print the reasoning trace")
	diagnoseCmd.Flags().BoolVar(&diagnoseNoSave, "no-save", false, "Do not persist this session")
	diagnoseCmd.Flags().StringVar(&diagnoseExplain, "explain", "", "Explain how the given fact was derived")
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	symptoms := make([]engine.Fact, len(args))
	for i, a := range args {
		symptoms[i] = engine.Fact(a)
	}
	if err := kb.ValidateSymptoms(symptoms); err != nil {
		return err
	}

	rules, meta, err := loadRules()
	if err != nil {
		return err
	}
	logger.Debug("knowledge base ready",
		zap.String("domain", meta.Domain),
		zap.Int("rules", rules.Len()))

	fc := engine.NewForward(rules, logger)
	result := fc.Run(symptoms, cfg.Inference.MaxIterations)

	if !diagnoseNoSave {
		if err := saveSession(session.FromForward(result)); err != nil {
			logger.Warn("session not persisted", zap.Error(err))
		}
	}

	if diagnoseJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printForwardResult(result)

	if diagnoseExplain != "" {
		printExplanation(result, engine.Fact(diagnoseExplain))
	}
	if diagnoseTrace {
		printTrace(result.Trace)
	}
	return nil
}

func printForwardResult(result *engine.ForwardResult) {
	fmt.Printf("Iterations: %d  Rules fired: %d  Facts inferred: %d\n\n",
		result.Iterations, len(result.FiredRules), len(result.InferredFacts))

	if len(result.FinalDiagnoses) == 0 {
		fmt.Println("No diagnosis could be derived from the given symptoms.")
		return
	}

	fmt.Println("Diagnoses:")
	for i, d := range result.FinalDiagnoses {
		interp := cf.Interpret(d.Confidence)
		marker := ""
		if d.Confidence < cfg.Inference.MinConfidence {
			marker = "  [low confidence]"
		}
		fmt.Printf("  %d. %s  %.0f%% (%s)%s\n",
			i+1, d.Fact, d.Percentage, interp.Category, marker)
	}
}

func printExplanation(result *engine.ForwardResult, fact engine.Fact) {
	steps := result.Explain(fact)
	if len(steps) == 0 {
		fmt.Printf("\n%s was not derived in this session.\n", fact)
		return
	}
	fmt.Printf("\nHow %s was derived:\n", fact)
	for _, s := range steps {
		fmt.Printf("  rule %s: IF %v THEN %s (cf %.2f)\n", s.RuleID, s.Conditions, s.Conclusion, s.CF)
	}
}

func printTrace(trace *engine.Trace) {
	fmt.Println("\nReasoning trace:")
	for i, e := range trace.Events() {
		switch e.Type {
		case engine.EventFactAdded:
			fmt.Printf("  %3d. fact %s\n", i+1, e.Fact)
		case engine.EventRuleFired:
			fmt.Printf("  %3d. rule %s fired: %v => %s (cf %.2f)\n", i+1, e.RuleID, e.Conditions, e.Conclusion, e.CF)
		case engine.EventUserQuestioned:
			fmt.Printf("  %3d. asked %s: %v\n", i+1, e.Question, e.Answer)
		default:
			fmt.Printf("  %3d. %s %s%s\n", i+1, e.Type, e.Goal, e.Fact)
		}
	}
}

// saveSession opens the configured store just long enough to persist
// one record.
func saveSession(rec *session.Record) error {
	store, err := session.NewStore(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Save(rec); err != nil {
		return err
	}
	logger.Info("session saved", zap.String("id", rec.ID))
	return nil
}
