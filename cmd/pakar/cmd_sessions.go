package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pakar/internal/session"
)

var (
	sessionsLimit int
	sessionsJSON  bool
)

// sessionsCmd groups session history commands.
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Browse past diagnosis sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent sessions, newest first",
	RunE:  sessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show one session including its reasoning trace",
	Args:  cobra.ExactArgs(1),
	RunE:  sessionsShow,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE:  sessionsDelete,
}

func init() {
	sessionsListCmd.Flags().IntVar(&sessionsLimit, "limit", 20, "Maximum sessions to list")
	sessionsShowCmd.Flags().BoolVar(&sessionsJSON, "json", false, "Emit the session as JSON")

	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}

func openStore() (*session.Store, error) {
	return session.NewStore(cfg.Storage.DatabasePath)
}

func sessionsList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.List(sessionsLimit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No sessions recorded.")
		return nil
	}

	for _, rec := range records {
		top := "-"
		for _, r := range rec.Results {
			if r.Proved {
				top = string(r.Fact)
				break
			}
		}
		fmt.Printf("%s  %s  %-8s  %s\n",
			rec.ID, rec.StartedAt.Format("2006-01-02 15:04"), rec.Mode, top)
	}
	return nil
}

func sessionsShow(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Get(args[0])
	if err != nil {
		return err
	}

	if sessionsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	}

	fmt.Printf("Session:  %s\n", rec.ID)
	fmt.Printf("Mode:     %s\n", rec.Mode)
	fmt.Printf("Started:  %s\n", rec.StartedAt.Format("2006-01-02 15:04:05"))
	if len(rec.Symptoms) > 0 {
		fmt.Printf("Symptoms: %v\n", rec.Symptoms)
	}
	if len(rec.Goals) > 0 {
		fmt.Printf("Goals:    %v\n", rec.Goals)
	}

	fmt.Println("\nResults:")
	for _, r := range rec.Results {
		if r.Proved {
			fmt.Printf("  %s (%.2f)\n", r.Fact, r.Confidence)
		} else {
			fmt.Printf("  %s (not established)\n", r.Fact)
		}
	}

	if len(rec.Events) > 0 {
		fmt.Printf("\nTrace (%d events):\n", len(rec.Events))
		for i, e := range rec.Events {
			fmt.Printf("  %3d. %-20s", i+1, e.Type)
			if e.RuleID != "" {
				fmt.Printf(" rule=%s", e.RuleID)
			}
			if e.Fact != "" {
				fmt.Printf(" fact=%s", e.Fact)
			}
			if e.Goal != "" {
				fmt.Printf(" goal=%s", e.Goal)
			}
			if e.Conclusion != "" {
				fmt.Printf(" => %s (cf %.2f)", e.Conclusion, e.CF)
			}
			fmt.Println()
		}
	}
	return nil
}

func sessionsDelete(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted %s\n", args[0])
	return nil
}
