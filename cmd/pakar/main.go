package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pakar/internal/config"
	"pakar/internal/engine"
	"pakar/internal/kb"
)

var (
	// Global flags
	verbose    bool
	configPath string
	rulesPath  string
	dbPath     string

	// Loaded in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "pakar",
	Short: "pakar - rule-based smartphone fault diagnosis",
	Long: `pakar is a rule-based expert system for diagnosing smartphone faults.

It supports two reasoning strategies over the same knowledge base:
  - forward chaining (diagnose): derive every reachable conclusion from
    the reported symptoms
  - backward chaining (consult): prove specific suspected faults,
    asking targeted yes/no questions along the way

Every run leaves a full reasoning trace that can be inspected and is
persisted as a session for later review.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if rulesPath != "" {
			cfg.Rules.Path = rulesPath
		}
		if dbPath != "" {
			cfg.Storage.DatabasePath = dbPath
		}

		logger, err = buildLogger(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func buildLogger(lc config.LoggingConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if lc.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zcfg.Build()
}

// loadRules resolves the rule set: a configured file path, or the
// embedded knowledge base when none is set.
func loadRules() (*engine.RuleSet, kb.Metadata, error) {
	if cfg.Rules.Path != "" {
		return kb.LoadWithDefault(cfg.Rules.Path, cfg.Inference.DefaultCF)
	}
	return kb.Default()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "pakar.yaml", "Configuration file")
	rootCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "Rule file (default: embedded knowledge base)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Session database path")

	rootCmd.AddCommand(diagnoseCmd)
	rootCmd.AddCommand(consultCmd)
	rootCmd.AddCommand(kbCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(evalCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
