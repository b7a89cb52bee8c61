package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"stagegate/internal/bootstrap"
	"stagegate/internal/bootstrap/logging"
	"stagegate/internal/errs"
	gateuc "stagegate/internal/usecase/gate"
)

var gateCmd = &cobra.Command{
	Use:   "gate",
	Short: "Gate criteria evaluation commands",
}

var gateEvaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Run a gate evaluation for an entity",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		programID, _ := cmd.Flags().GetUint64("program")
		gateType, _ := cmd.Flags().GetString("gate-type")
		entityType, _ := cmd.Flags().GetString("entity-type")
		entityID, _ := cmd.Flags().GetString("entity-id")
		evaluatedBy, _ := cmd.Flags().GetString("actor")
		customPairs, _ := cmd.Flags().GetStringToString("custom")

		customValues, err := parseCustomValues(customPairs)
		if err != nil {
			return err
		}

		result, err := svcs.Gate.Evaluate(ctx, gateuc.EvaluateInput{
			ProgramID:    programID,
			GateType:     gateType,
			EntityType:   entityType,
			EntityID:     entityID,
			EvaluatedBy:  evaluatedBy,
			CustomValues: customValues,
		})
		if err != nil {
			return errs.Wrap(err, "evaluate gate")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s\n", result.Summary)
		for _, item := range result.Results {
			verdict := "FAIL"
			if item.IsPassed {
				verdict = "PASS"
			}
			marker := ""
			if item.IsBlocking {
				marker = " [blocking]"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s %s %s -> %s%s\n",
				item.Name, item.Actual, item.Operator, item.Threshold, verdict, marker)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "can_proceed=%t run_id=%s\n", result.CanProceed, result.RunID)
		return nil
	}),
}

var gateScorecardCmd = &cobra.Command{
	Use:   "scorecard",
	Short: "Show the latest evaluation state per criterion for an entity",
	RunE: withApp(func(cmd *cobra.Command, _ *bootstrap.App, svcs services) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		entityType, _ := cmd.Flags().GetString("entity-type")
		entityID, _ := cmd.Flags().GetString("entity-id")
		asJSON, _ := cmd.Flags().GetBool("json")

		card, err := svcs.Gate.GetScorecard(ctx, entityType, entityID)
		if err != nil {
			return errs.Wrap(err, "get scorecard")
		}

		if asJSON {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return errs.Wrap(encoder.Encode(card), "encode scorecard")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s/%s status=%s can_proceed=%t\n", card.EntityType, card.EntityID, card.Status, card.CanProceed)
		for _, item := range card.Results {
			verdict := "FAIL"
			if item.IsPassed {
				verdict = "PASS"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s %s %s -> %s\n", item.Name, item.Actual, item.Operator, item.Threshold, verdict)
		}
		return nil
	}),
}

func parseCustomValues(pairs map[string]string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	values := make(map[string]float64, len(pairs))
	for name, raw := range pairs {
		var value float64
		if _, err := fmt.Sscanf(strings.TrimSpace(raw), "%g", &value); err != nil {
			return nil, errs.Wrapf(err, "parse custom value %q=%q", name, raw)
		}
		values[name] = value
	}
	return values, nil
}

func init() {
	rootCmd.AddCommand(gateCmd)
	gateCmd.AddCommand(gateEvaluateCmd)
	gateCmd.AddCommand(gateScorecardCmd)

	gateEvaluateCmd.Flags().Uint64("program", 0, "Program id")
	gateEvaluateCmd.Flags().String("gate-type", "", "Gate type (cycle_exit|plan_exit|release_gate)")
	gateEvaluateCmd.Flags().String("entity-type", "", "Entity type (test_cycle|test_plan|release)")
	gateEvaluateCmd.Flags().String("entity-id", "", "Entity id")
	gateEvaluateCmd.Flags().String("actor", "", "Actor recorded as evaluated_by (empty for automatic)")
	gateEvaluateCmd.Flags().StringToString("custom", nil, "Custom criterion values, name=value")
	_ = gateEvaluateCmd.MarkFlagRequired("program")
	_ = gateEvaluateCmd.MarkFlagRequired("gate-type")
	_ = gateEvaluateCmd.MarkFlagRequired("entity-type")
	_ = gateEvaluateCmd.MarkFlagRequired("entity-id")

	gateScorecardCmd.Flags().String("entity-type", "", "Entity type (test_cycle|test_plan|release)")
	gateScorecardCmd.Flags().String("entity-id", "", "Entity id")
	gateScorecardCmd.Flags().Bool("json", false, "Emit the scorecard as JSON")
	_ = gateScorecardCmd.MarkFlagRequired("entity-type")
	_ = gateScorecardCmd.MarkFlagRequired("entity-id")
}
