package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hodaifayahia/clinic-scheduling/pkg/core/services"
)

// SuggestShiftCmd creates the suggestShift command
func SuggestShiftCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "suggestShift <date>",
		Short: "Suggest start/end times for a new roster shift",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := time.Parse("2006-01-02", args[0])
			if err != nil {
				return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
			}

			suggestion, err := services.SuggestNextShift(app.Ctx, app.Store, app.Logger, date)
			if err != nil {
				return fmt.Errorf("suggestion failed: %w", err)
			}

			fmt.Printf("\n✓ Suggested shift\n\n")
			fmt.Printf("Date:  %s", suggestion.SuggestedDate.Format("2006-01-02"))
			if suggestion.NextDay {
				fmt.Printf(" (requested day is saturated; rolled to next day)")
			}
			fmt.Println()
			fmt.Printf("Start: %s\n", suggestion.Start)
			fmt.Printf("End:   %s", suggestion.End)
			if suggestion.IsOvernight {
				fmt.Printf(" (next day)")
			}
			fmt.Printf("\n\n")

			return nil
		},
	}
}
