package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hodaifayahia/clinic-scheduling/pkg/core/services"
)

// FindAvailabilityCmd creates the findAvailability command
func FindAvailabilityCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "findAvailability <resource_id> <start_date>",
		Short: "Find the next bookable date for a resource",
		Long:  "Walk the calendar from start_date and return the first date with at least one free slot, honoring month flags, exclusions and override rules",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resourceID := args[0]
			startDate, err := time.Parse("2006-01-02", args[1])
			if err != nil {
				return fmt.Errorf("start_date must be YYYY-MM-DD: %w", err)
			}

			rangeDays, _ := cmd.Flags().GetInt("range")
			includeSlots, _ := cmd.Flags().GetBool("slots")

			app.Logger.Debug("findAvailability command",
				zap.String("resource_id", resourceID),
				zap.Int("range", rangeDays))

			result, err := services.FindNextAvailability(
				app.Ctx,
				app.Store,
				app.Cache,
				app.Cfg,
				app.Logger,
				resourceID,
				startDate,
				services.FindNextOptions{
					RangeDays:    rangeDays,
					IncludeSlots: includeSlots,
				},
			)
			if err != nil {
				return fmt.Errorf("availability search failed: %w", err)
			}

			if result == nil {
				fmt.Printf("\nNo availability found for %s", resourceID)
				if rangeDays > 0 {
					fmt.Printf(" within ±%d days of %s\n\n", rangeDays, startDate.Format("2006-01-02"))
				} else {
					fmt.Printf(" before the end of the year\n\n")
				}
				return nil
			}

			fmt.Printf("\n✓ Next availability for %s\n\n", resourceID)
			fmt.Printf("Date:   %s (%s)\n", result.Date.Format("2006-01-02"), result.Date.Weekday())
			fmt.Printf("Period: %s\n", result.Period)
			if includeSlots {
				fmt.Printf("Free slots (%d):\n", len(result.Slots))
				for _, slot := range result.Slots {
					fmt.Printf("  • %s\n", slot)
				}
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().Int("range", 0, "Search start_date±N days instead of walking to year end")
	cmd.Flags().Bool("slots", false, "Also list the free slots of the winning date")

	return cmd
}
