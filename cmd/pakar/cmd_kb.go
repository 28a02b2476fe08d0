package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pakar/internal/engine"
	"pakar/internal/kb"
)

// kbCmd groups knowledge base inspection commands.
var kbCmd = &cobra.Command{
	Use:   "kb",
	Short: "Inspect and validate the knowledge base",
}

var kbListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all rules",
	RunE:  kbList,
}

var kbValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a rule file without loading it into the engine",
	Args:  cobra.MaximumNArgs(1),
	RunE:  kbValidate,
}

var kbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show knowledge base statistics",
	RunE:  kbStats,
}

var kbWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the rule file and re-validate on every change",
	Long: `Watches the configured rule file and reports validation results as
it changes. Useful while editing the knowledge base. Requires --rules
or a configured rule path; the embedded knowledge base cannot change.`,
	RunE: kbWatch,
}

func init() {
	kbCmd.AddCommand(kbListCmd)
	kbCmd.AddCommand(kbValidateCmd)
	kbCmd.AddCommand(kbStatsCmd)
	kbCmd.AddCommand(kbWatchCmd)
}

func kbList(cmd *cobra.Command, args []string) error {
	rules, meta, err := loadRules()
	if err != nil {
		return err
	}
	if meta.Domain != "" {
		fmt.Printf("Domain: %s  Version: %s\n\n", meta.Domain, meta.Version)
	}
	for _, id := range rules.IDs() {
		r, _ := rules.Get(id)
		kind := ""
		if r.Final {
			kind = "  [final]"
		}
		fmt.Printf("%-5s IF %v THEN %s (cf %.2f)%s\n", r.ID, r.If, r.Then, r.CF, kind)
	}
	return nil
}

func kbValidate(cmd *cobra.Command, args []string) error {
	path := cfg.Rules.Path
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return fmt.Errorf("no rule file given; pass a path or set --rules")
	}

	rules, meta, err := kb.Load(path)
	if err != nil {
		return err
	}
	fmt.Printf("%s: OK (%d rules, domain %q)\n", path, rules.Len(), meta.Domain)
	return nil
}

func kbStats(cmd *cobra.Command, args []string) error {
	rules, meta, err := loadRules()
	if err != nil {
		return err
	}

	finals := 0
	categories := make(map[string]int)
	antecedents := make(map[engine.Fact]struct{})
	for _, id := range rules.IDs() {
		r, _ := rules.Get(id)
		if r.Final {
			finals++
		}
		if r.Category != "" {
			categories[r.Category]++
		}
		for _, c := range r.If {
			antecedents[c] = struct{}{}
		}
	}

	fmt.Printf("Domain:            %s\n", meta.Domain)
	fmt.Printf("Version:           %s\n", meta.Version)
	fmt.Printf("Rules:             %d\n", rules.Len())
	fmt.Printf("Final diagnoses:   %d\n", finals)
	fmt.Printf("Distinct symptoms: %d\n", len(antecedents))

	if len(categories) > 0 {
		names := make([]string, 0, len(categories))
		for c := range categories {
			names = append(names, c)
		}
		sort.Strings(names)
		fmt.Println("Categories:")
		for _, c := range names {
			fmt.Printf("  %-14s %d\n", c, categories[c])
		}
	}
	return nil
}

func kbWatch(cmd *cobra.Command, args []string) error {
	if cfg.Rules.Path == "" {
		return fmt.Errorf("no rule file configured; pass --rules")
	}

	w, err := kb.NewWatcher(cfg.Rules.Path, func(rs *engine.RuleSet, meta kb.Metadata, err error) {
		if err != nil {
			fmt.Printf("INVALID: %v\n", err)
			return
		}
		fmt.Printf("OK: %d rules (domain %q)\n", rs.Len(), meta.Domain)
	}, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Printf("Watching %s (ctrl-c to stop)\n", cfg.Rules.Path)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	stats := w.Stats()
	logger.Info("watch finished",
		zap.Int("changes", stats.Changes),
		zap.Int("reloads", stats.Reloads),
		zap.Int("failures", stats.Failures))
	return nil
}
