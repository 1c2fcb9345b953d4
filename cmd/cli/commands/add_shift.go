package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hodaifayahia/clinic-scheduling/pkg/core/model"
	"github.com/hodaifayahia/clinic-scheduling/pkg/core/services"
)

// AddShiftCmd creates the addShift command
func AddShiftCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "addShift <resource_id> <date> <start> <end>",
		Short: "Add a roster shift after checking for overlaps",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			shiftType, _ := cmd.Flags().GetString("type")

			shift, err := services.CreateRosterShift(app.Ctx, app.Store, app.Logger, services.NewRosterShift{
				ResourceID: args[0],
				Date:       args[1],
				Start:      args[2],
				End:        args[3],
				ShiftType:  shiftType,
			})
			if err != nil {
				var conflictErr *model.ConflictError
				if errors.As(err, &conflictErr) {
					fmt.Printf("\n❌ Shift rejected: %v\n\n", conflictErr)
					for _, existing := range conflictErr.Conflicts {
						fmt.Printf("  • %s  %s–%s  [%s]\n",
							existing.PlanningDate.Format("2006-01-02"),
							existing.Window.Start, existing.Window.End, existing.ID)
					}
					fmt.Println()
					return err
				}
				return fmt.Errorf("failed to add shift: %w", err)
			}

			fmt.Printf("\n✓ Shift added: %s on %s, %s–%s",
				shift.ResourceID, shift.PlanningDate.Format("2006-01-02"),
				shift.Window.Start, shift.Window.End)
			if shift.Window.SpansMidnight {
				fmt.Printf(" (overnight)")
			}
			fmt.Printf("\n\n")

			return nil
		},
	}

	cmd.Flags().String("type", "duty", "Shift type label")

	return cmd
}
