package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hodaifayahia/clinic-scheduling/pkg/core/model"
	"github.com/hodaifayahia/clinic-scheduling/pkg/core/services"
)

// CheckConflictsCmd creates the checkConflicts command
func CheckConflictsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkConflicts <resource_id> <date> <start> <end>",
		Short: "Check a proposed roster shift for overlaps",
		Long:  "List every active roster shift of the resource that overlaps the proposed interval. An end time at or before the start denotes an overnight shift",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			resourceID := args[0]
			date, err := time.Parse("2006-01-02", args[1])
			if err != nil {
				return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
			}
			start, err := model.ParseTimeOfDay(args[2])
			if err != nil {
				return fmt.Errorf("invalid start time: %w", err)
			}
			end, err := model.ParseTimeOfDay(args[3])
			if err != nil {
				return fmt.Errorf("invalid end time: %w", err)
			}

			excludeID, _ := cmd.Flags().GetString("exclude")

			app.Logger.Debug("checkConflicts command",
				zap.String("resource_id", resourceID),
				zap.String("date", args[1]))

			conflicts, err := services.CheckShiftConflicts(
				app.Ctx, app.Store, app.Logger, resourceID, date, start, end, excludeID)
			if err != nil {
				return fmt.Errorf("conflict check failed: %w", err)
			}

			if len(conflicts) == 0 {
				fmt.Printf("\n✓ No conflicts: %s %s–%s is free for %s\n\n",
					args[1], start, end, resourceID)
				return nil
			}

			fmt.Printf("\n❌ %d conflicting shift(s):\n\n", len(conflicts))
			for _, shift := range conflicts {
				overnight := ""
				if shift.Window.SpansMidnight {
					overnight = " (overnight)"
				}
				fmt.Printf("  • %s  %s–%s%s  [%s]\n",
					shift.PlanningDate.Format("2006-01-02"),
					shift.Window.Start, shift.Window.End, overnight, shift.ID)
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().String("exclude", "", "Shift ID to ignore (when updating an existing shift)")

	return cmd
}
