package cmd

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"stagegate/internal/bootstrap"
	"stagegate/internal/bootstrap/logging"
	"stagegate/internal/errs"
	"stagegate/internal/usecase/signoffconsole"
)

var consoleSignoffCmd = &cobra.Command{
	Use:   "signoff",
	Short: "Start the pending sign-offs console",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		tenantID, _ := cmd.Flags().GetUint64("tenant")
		programID, _ := cmd.Flags().GetUint64("program")
		entityType, _ := cmd.Flags().GetString("entity-type")
		refreshInterval, _ := cmd.Flags().GetDuration("refresh-interval")

		model := signoffconsole.NewPendingModel(ctx, svcs.Signoff, signoffconsole.PendingOptions{
			TenantID:        tenantID,
			ProgramID:       programID,
			EntityType:      entityType,
			RefreshInterval: refreshInterval,
		})

		program := tea.NewProgram(model, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run signoff console")
		}
		return nil
	}),
}

func init() {
	consoleCmd.AddCommand(consoleSignoffCmd)

	consoleSignoffCmd.Flags().Uint64("tenant", 0, "Tenant id")
	consoleSignoffCmd.Flags().Uint64("program", 0, "Program id")
	consoleSignoffCmd.Flags().String("entity-type", "", "Optional entity type filter")
	consoleSignoffCmd.Flags().Duration("refresh-interval", 5*time.Second, "Auto refresh interval")
	_ = consoleSignoffCmd.MarkFlagRequired("tenant")
	_ = consoleSignoffCmd.MarkFlagRequired("program")
}
