package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect and prune the staging audit history",
	Long: `Audit works on the SQLite audit database given by --audit-db or
ONCOSTAGE_AUDIT_DB_PATH. Records hold the staging verdict, the features it was
based on and a SHA-256 of the report text, never the text itself.`,
}

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recent audit records",
	Args:  cobra.NoArgs,
	RunE:  runAuditList,
}

var auditShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one audit record",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuditShow,
}

var auditPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete audit records older than the retention period",
	Args:  cobra.NoArgs,
	RunE:  runAuditPrune,
}

func init() {
	auditListCmd.Flags().Int("limit", 20, "maximum number of records to list")
	auditPruneCmd.Flags().Int("older-than-days", 0, "retention in days (default from audit.retention_days)")

	auditCmd.AddCommand(auditListCmd, auditShowCmd, auditPruneCmd)
	rootCmd.AddCommand(auditCmd)
}

func runAuditList(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	if limit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", limit)
	}

	store, err := openAuditStore()
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.ListRecent(cmd.Context(), limit)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), outputFormat(), records)
}

func runAuditShow(cmd *cobra.Command, args []string) error {
	if _, err := uuid.Parse(args[0]); err != nil {
		return fmt.Errorf("invalid audit id %q: %w", args[0], err)
	}

	store, err := openAuditStore()
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.Get(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), outputFormat(), rec)
}

func runAuditPrune(cmd *cobra.Command, args []string) error {
	days, _ := cmd.Flags().GetInt("older-than-days")
	if days == 0 {
		days = viper.GetInt("audit.retention_days")
	}
	if days <= 0 {
		return fmt.Errorf("retention must be a positive number of days, got %d", days)
	}

	store, err := openAuditStore()
	if err != nil {
		return err
	}
	defer store.Close()

	cutoff := time.Now().AddDate(0, 0, -days)
	removed, err := store.PruneBefore(cmd.Context(), cutoff)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Pruned %d audit record(s) older than %s\n", removed, cutoff.UTC().Format(time.RFC3339))
	return nil
}
