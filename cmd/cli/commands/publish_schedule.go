package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hodaifayahia/clinic-scheduling/pkg/clients/sheetsclient"
	"github.com/hodaifayahia/clinic-scheduling/pkg/core/services"
)

// PublishScheduleCmd creates the publishSchedule command
func PublishScheduleCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publishSchedule [week_start]",
		Short: "Publish a week of free-slot availability to the schedule sheet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			weekStart := nextMonday(time.Now())
			if len(args) == 1 {
				parsed, err := time.Parse("2006-01-02", args[0])
				if err != nil {
					return fmt.Errorf("week_start must be YYYY-MM-DD: %w", err)
				}
				weekStart = parsed
			}

			var sheets services.SheetsWriter
			if !dryRun {
				if app.OAuthCfg == nil {
					return fmt.Errorf("no oauth client configuration found; run with --dry-run or add oauthClient.json")
				}
				if app.Cfg.ScheduleSheetID == "" || app.Cfg.ScheduleTab == "" {
					return fmt.Errorf("scheduleSheetID and scheduleTab must be configured")
				}
				client, err := sheetsclient.NewClient(app.Ctx, app.OAuthCfg)
				if err != nil {
					return fmt.Errorf("failed to create sheets client: %w", err)
				}
				sheets = client
			}

			app.Logger.Debug("publishSchedule command",
				zap.String("week_start", weekStart.Format("2006-01-02")),
				zap.Bool("dry_run", dryRun))

			published, err := services.PublishSchedule(
				app.Ctx, app.Store, sheets, app.Cfg, app.Logger, weekStart, time.Time{})
			if err != nil {
				return fmt.Errorf("publish failed: %w", err)
			}

			fmt.Printf("\n✓ Schedule for week of %s (%d rows)\n\n",
				published.WeekStart.Format("2006-01-02"), len(published.Rows))
			for _, row := range published.Rows {
				slots := row.FreeSlots
				if slots == "" {
					slots = "—"
				}
				fmt.Printf("  %-16s %-12s %-10s %s\n", row.Date, row.ResourceID, row.Period, slots)
			}
			fmt.Println()
			if dryRun {
				fmt.Println("💡 This was a dry run. Use without --dry-run to write the sheet.")
			}

			return nil
		},
	}

	cmd.Flags().Bool("dry-run", false, "Build the payload without writing to Google Sheets")

	return cmd
}

// nextMonday returns the Monday after the given date.
func nextMonday(from time.Time) time.Time {
	normalized := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	days := (int(time.Monday) - int(normalized.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return normalized.AddDate(0, 0, days)
}
