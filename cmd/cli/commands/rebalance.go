package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hodaifayahia/clinic-scheduling/pkg/core/model"
	"github.com/hodaifayahia/clinic-scheduling/pkg/core/services"
	"github.com/hodaifayahia/clinic-scheduling/pkg/db"
)

// ruleFile is the YAML shape of a replacement shift template.
type ruleFile struct {
	Recurring []ruleFileEntry `yaml:"recurring"`
	Overrides []ruleFileEntry `yaml:"overrides"`
}

type ruleFileEntry struct {
	Weekday  string `yaml:"weekday,omitempty"` // recurring rules
	Date     string `yaml:"date,omitempty"`    // override rules
	Period   string `yaml:"period"`
	Start    string `yaml:"start"`
	End      string `yaml:"end"`
	Step     int    `yaml:"step,omitempty"`     // fixed-interval minutes
	Patients int    `yaml:"patients,omitempty"` // patient-count capacity
}

// RebalanceCmd creates the rebalance command
func RebalanceCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebalance <resource_id>",
		Short: "Replace a resource's shift template and re-flow its bookings",
		Long:  "Replace the resource's shift rules with the template in --rules and reassign every affected date's appointments onto the new slot grid, in booking order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resourceID := args[0]
			rulesPath, _ := cmd.Flags().GetString("rules")
			fromResource, _ := cmd.Flags().GetString("duplicate-from")

			if (rulesPath == "") == (fromResource == "") {
				return fmt.Errorf("exactly one of --rules or --duplicate-from is required")
			}

			var replacement db.RuleReplacement
			if fromResource != "" {
				app.Logger.Info("Duplicating shift template",
					zap.String("from", fromResource),
					zap.String("to", resourceID))
				if err := app.Store.DuplicateRules(app.Ctx, fromResource, resourceID); err != nil {
					return fmt.Errorf("failed to duplicate rules: %w", err)
				}
				// Rebalance against the template as it now stands for the
				// target resource.
				var err error
				replacement, err = loadReplacementFromStore(app, resourceID)
				if err != nil {
					return err
				}
			} else {
				var err error
				replacement, err = loadReplacementFromFile(rulesPath)
				if err != nil {
					return err
				}
				app.Logger.Info("Replacing shift template",
					zap.String("resource_id", resourceID),
					zap.Int("recurring", len(replacement.Recurring)),
					zap.Int("overrides", len(replacement.Overrides)))
				if err := app.Store.ReplaceRules(app.Ctx, resourceID, replacement); err != nil {
					return fmt.Errorf("failed to replace rules: %w", err)
				}
			}

			now := time.Now()
			app.Cache.InvalidateResourceWindow(resourceID, now, 0)

			affected, err := services.AffectedDates(app.Ctx, app.Store, app.Logger, resourceID, replacement, now)
			if err != nil {
				return fmt.Errorf("failed to compute affected dates: %w", err)
			}

			result, err := services.RebalanceAppointments(
				app.Ctx,
				app.Store,
				app.Cache,
				app.Logger,
				resourceID,
				replacement,
				affected,
				app.Cfg.OverflowStepMinutes,
			)
			if err != nil {
				return fmt.Errorf("rebalance failed: %w", err)
			}

			fmt.Printf("\n✓ Rebalance finished for %s\n\n", resourceID)
			fmt.Printf("Affected dates: %d\n", len(affected))
			fmt.Printf("Rebalanced:     %d (moved %d appointments)\n", len(result.Rebalanced), result.Moved)
			if len(result.Skipped) > 0 {
				fmt.Printf("\n⚠️  Skipped dates (new rules generate no slots, bookings untouched):\n")
				for _, date := range result.Skipped {
					fmt.Printf("  • %s\n", date.Format("2006-01-02"))
				}
			}
			if len(result.Failures) > 0 {
				fmt.Printf("\n❌ Failed dates (rolled back):\n")
				for _, failure := range result.Failures {
					fmt.Printf("  • %s: %v\n", failure.Date.Format("2006-01-02"), failure.Err)
				}
			}
			fmt.Println()

			return nil
		},
	}

	cmd.Flags().String("rules", "", "Path to a YAML shift template replacing the resource's rules")
	cmd.Flags().String("duplicate-from", "", "Copy another resource's weekly template instead of reading --rules")

	return cmd
}

func loadReplacementFromFile(path string) (db.RuleReplacement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return db.RuleReplacement{}, fmt.Errorf("failed to read rules file: %w", err)
	}

	var file ruleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return db.RuleReplacement{}, fmt.Errorf("failed to parse rules file: %w", err)
	}

	var replacement db.RuleReplacement
	for i, entry := range file.Recurring {
		weekday, err := parseWeekday(entry.Weekday)
		if err != nil {
			return db.RuleReplacement{}, fmt.Errorf("recurring[%d]: %w", i, err)
		}
		shift, err := entryShift(entry)
		if err != nil {
			return db.RuleReplacement{}, fmt.Errorf("recurring[%d]: %w", i, err)
		}
		replacement.Recurring = append(replacement.Recurring, model.RecurringShiftRule{
			Weekday:  weekday,
			Shift:    shift,
			IsActive: true,
		})
	}
	for i, entry := range file.Overrides {
		date, err := time.Parse("2006-01-02", entry.Date)
		if err != nil {
			return db.RuleReplacement{}, fmt.Errorf("overrides[%d]: date must be YYYY-MM-DD: %w", i, err)
		}
		shift, err := entryShift(entry)
		if err != nil {
			return db.RuleReplacement{}, fmt.Errorf("overrides[%d]: %w", i, err)
		}
		replacement.Overrides = append(replacement.Overrides, model.DateOverrideRule{
			Date:     date,
			Shift:    shift,
			IsActive: true,
		})
	}

	return replacement, nil
}

func entryShift(entry ruleFileEntry) (model.ShiftDef, error) {
	start, err := model.ParseTimeOfDay(entry.Start)
	if err != nil {
		return model.ShiftDef{}, err
	}
	end, err := model.ParseTimeOfDay(entry.End)
	if err != nil {
		return model.ShiftDef{}, err
	}

	var capacity model.CapacityMode
	switch {
	case entry.Step > 0 && entry.Patients > 0:
		return model.ShiftDef{}, fmt.Errorf("step and patients are mutually exclusive")
	case entry.Step > 0:
		capacity = model.FixedInterval(entry.Step)
	case entry.Patients > 0:
		capacity = model.PatientCount(entry.Patients)
	default:
		return model.ShiftDef{}, fmt.Errorf("one of step or patients is required")
	}

	shift := model.ShiftDef{
		Period:   model.ShiftPeriod(entry.Period),
		Start:    start,
		End:      end,
		Capacity: capacity,
	}
	if err := shift.Validate(); err != nil {
		return model.ShiftDef{}, err
	}
	return shift, nil
}

func parseWeekday(name string) (time.Weekday, error) {
	weekdays := map[string]time.Weekday{
		"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
		"wednesday": time.Wednesday, "thursday": time.Thursday,
		"friday": time.Friday, "saturday": time.Saturday,
	}
	if weekday, ok := weekdays[name]; ok {
		return weekday, nil
	}
	return 0, fmt.Errorf("unknown weekday %q", name)
}

// loadReplacementFromStore rebuilds the replacement view from the resource's
// stored rules after a duplication.
func loadReplacementFromStore(app *AppContext, resourceID string) (db.RuleReplacement, error) {
	var replacement db.RuleReplacement
	for weekday := time.Sunday; weekday <= time.Saturday; weekday++ {
		rules, err := app.Store.GetRecurringRules(app.Ctx, resourceID, weekday)
		if err != nil {
			return db.RuleReplacement{}, fmt.Errorf("failed to load rules for %s: %w", weekday, err)
		}
		replacement.Recurring = append(replacement.Recurring, rules...)
	}
	return replacement, nil
}
