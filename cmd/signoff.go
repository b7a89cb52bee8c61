package cmd

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"stagegate/internal/bootstrap"
	"stagegate/internal/bootstrap/logging"
	"stagegate/internal/errs"
	signoffuc "stagegate/internal/usecase/signoff"
)

var signoffCmd = &cobra.Command{
	Use:   "signoff",
	Short: "Sign-off ledger commands",
}

var signoffApproveCmd = &cobra.Command{
	Use:   "approve",
	Short: "Append an approval for an entity",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		input := signoffuc.ApproveInput{}
		input.TenantID, _ = cmd.Flags().GetUint64("tenant")
		input.ProgramID, _ = cmd.Flags().GetUint64("program")
		input.EntityType, _ = cmd.Flags().GetString("entity-type")
		input.EntityID, _ = cmd.Flags().GetString("entity-id")
		input.ApproverID, _ = cmd.Flags().GetString("approver")
		input.Comment, _ = cmd.Flags().GetString("comment")
		input.IsOverride, _ = cmd.Flags().GetBool("override")
		input.OverrideReason, _ = cmd.Flags().GetString("override-reason")
		// CLI callers act as themselves; the self-approval guard still applies.
		input.Caller.RequestorID, _ = cmd.Flags().GetString("actor")

		record, err := svcs.Signoff.Approve(ctx, input)
		if err != nil {
			return errs.Wrap(err, "approve entity")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "record %d: %s %s/%s by %s\n",
			record.RecordID, record.Action, record.EntityType, record.EntityID, record.ApproverNameSnapshot)
		return nil
	}),
}

var signoffRevokeCmd = &cobra.Command{
	Use:   "revoke",
	Short: "Revoke the current approval for an entity",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		input := signoffuc.RevokeInput{}
		input.TenantID, _ = cmd.Flags().GetUint64("tenant")
		input.ProgramID, _ = cmd.Flags().GetUint64("program")
		input.EntityType, _ = cmd.Flags().GetString("entity-type")
		input.EntityID, _ = cmd.Flags().GetString("entity-id")
		input.RevokerID, _ = cmd.Flags().GetString("actor")
		input.Reason, _ = cmd.Flags().GetString("reason")
		input.Caller.RequestorID = input.RevokerID

		record, err := svcs.Signoff.Revoke(ctx, input)
		if err != nil {
			return errs.Wrap(err, "revoke entity")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "record %d: revoked %s/%s (%s)\n",
			record.RecordID, record.EntityType, record.EntityID, record.Comment)
		return nil
	}),
}

var signoffPendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List entities awaiting sign-off in a program",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		tenantID, _ := cmd.Flags().GetUint64("tenant")
		programID, _ := cmd.Flags().GetUint64("program")
		entityType, _ := cmd.Flags().GetString("entity-type")

		items, err := svcs.Signoff.GetPending(ctx, tenantID, programID, entityType)
		if err != nil {
			return errs.Wrap(err, "list pending sign-offs")
		}

		if len(items) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "nothing pending")
			return nil
		}
		for _, item := range items {
			fmt.Fprintf(cmd.OutOrStdout(), "%s/%s last=%s by=%s at=%s\n",
				item.EntityType, item.EntityID, item.LastAction, item.LastActorNameSnapshot, item.LastChangedAt)
		}
		return nil
	}),
}

var signoffSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Summarize sign-off state per entity type in a program",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		tenantID, _ := cmd.Flags().GetUint64("tenant")
		programID, _ := cmd.Flags().GetUint64("program")

		summary, err := svcs.Signoff.GetSummary(ctx, tenantID, programID)
		if err != nil {
			return errs.Wrap(err, "summarize sign-offs")
		}

		entityTypes := make([]string, 0, len(summary))
		for entityType := range summary {
			entityTypes = append(entityTypes, entityType)
		}
		sort.Strings(entityTypes)

		for _, entityType := range entityTypes {
			tally := summary[entityType]
			fmt.Fprintf(cmd.OutOrStdout(), "%s: total=%d approved=%d revoked=%d override=%d\n",
				entityType, tally.Total, tally.Approved, tally.Revoked, tally.Override)
		}
		return nil
	}),
}

func addSignoffScopeFlags(cmd *cobra.Command) {
	cmd.Flags().Uint64("tenant", 0, "Tenant id")
	cmd.Flags().Uint64("program", 0, "Program id")
	_ = cmd.MarkFlagRequired("tenant")
	_ = cmd.MarkFlagRequired("program")
}

func init() {
	rootCmd.AddCommand(signoffCmd)
	signoffCmd.AddCommand(signoffApproveCmd)
	signoffCmd.AddCommand(signoffRevokeCmd)
	signoffCmd.AddCommand(signoffPendingCmd)
	signoffCmd.AddCommand(signoffSummaryCmd)

	addSignoffScopeFlags(signoffApproveCmd)
	signoffApproveCmd.Flags().String("entity-type", "", "Entity type (workshop|process_level|...)")
	signoffApproveCmd.Flags().String("entity-id", "", "Entity id")
	signoffApproveCmd.Flags().String("approver", "", "Approver id")
	signoffApproveCmd.Flags().String("actor", "", "Requesting actor id (for the self-approval guard)")
	signoffApproveCmd.Flags().String("comment", "", "Optional comment")
	signoffApproveCmd.Flags().Bool("override", false, "Override the self-approval guard")
	signoffApproveCmd.Flags().String("override-reason", "", "Reason required with --override")
	_ = signoffApproveCmd.MarkFlagRequired("entity-type")
	_ = signoffApproveCmd.MarkFlagRequired("entity-id")
	_ = signoffApproveCmd.MarkFlagRequired("approver")

	addSignoffScopeFlags(signoffRevokeCmd)
	signoffRevokeCmd.Flags().String("entity-type", "", "Entity type (workshop|process_level|...)")
	signoffRevokeCmd.Flags().String("entity-id", "", "Entity id")
	signoffRevokeCmd.Flags().String("actor", "", "Revoking actor id")
	signoffRevokeCmd.Flags().String("reason", "", "Revocation reason (required)")
	_ = signoffRevokeCmd.MarkFlagRequired("entity-type")
	_ = signoffRevokeCmd.MarkFlagRequired("entity-id")
	_ = signoffRevokeCmd.MarkFlagRequired("reason")

	addSignoffScopeFlags(signoffPendingCmd)
	signoffPendingCmd.Flags().String("entity-type", "", "Optional entity type filter")

	addSignoffScopeFlags(signoffSummaryCmd)
}
