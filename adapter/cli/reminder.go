package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pmstoolbox/deskbell/internal/reminders/application/commands"
	"github.com/pmstoolbox/deskbell/internal/reminders/application/queries"
)

// NewReminderCommand creates the reminder management command group.
func NewReminderCommand(provider AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminder",
		Short: "Manage reminders",
	}
	cmd.AddCommand(newReminderAddCommand(provider))
	cmd.AddCommand(newReminderListCommand(provider))
	cmd.AddCommand(newReminderRemoveCommand(provider))
	return cmd
}

func newReminderAddCommand(provider AppProvider) *cobra.Command {
	var (
		at    string
		daily bool
	)

	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a reminder",
		Example: `  deskbell reminder add "wake-up call room 204" --at 2026-09-01T07:00:00Z
  deskbell reminder add "shift handover" --at 15:00 --daily`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(provider, func(cmd *cobra.Command, args []string, app *App) error {
			fireAt, err := parseReminderTime(at)
			if err != nil {
				return err
			}

			kind := "once"
			if daily {
				kind = "daily"
			}

			result, err := app.CreateReminder.Handle(cmd.Context(), commands.CreateReminderCommand{
				Text: args[0],
				At:   fireAt,
				Kind: kind,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Created %s reminder %s at %s\n", kind, result.Reminder.ID, result.Reminder.Time)
			return nil
		}),
	}

	cmd.Flags().StringVar(&at, "at", "", "fire time, RFC 3339 or HH:MM (today, or tomorrow if past)")
	cmd.Flags().BoolVar(&daily, "daily", false, "repeat every day at the same time")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

// parseReminderTime accepts a full RFC 3339 timestamp or a bare HH:MM,
// which resolves to the next occurrence of that time of day.
func parseReminderTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	clock, err := time.Parse("15:04", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: use RFC 3339 or HH:MM", value)
	}
	now := time.Now()
	at := time.Date(now.Year(), now.Month(), now.Day(), clock.Hour(), clock.Minute(), 0, 0, now.Location())
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at, nil
}

func newReminderListCommand(provider AppProvider) *cobra.Command {
	var today bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reminders",
		RunE: withApp(provider, func(cmd *cobra.Command, args []string, app *App) error {
			reminders := app.ListReminders.Handle(cmd.Context(), queries.ListRemindersQuery{TodayOnly: today})
			if len(reminders) == 0 {
				fmt.Println("No reminders.")
				return nil
			}
			for _, r := range reminders {
				fmt.Printf("%s  %-5s  %-25s  %s\n", r.ID, r.Kind, r.Time, r.Text)
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&today, "today", false, "only today's agenda, sorted by time of day")
	return cmd
}

func newReminderRemoveCommand(provider AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a reminder",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(provider, func(cmd *cobra.Command, args []string, app *App) error {
			if err := app.DeleteReminder.Handle(cmd.Context(), commands.DeleteReminderCommand{ID: args[0]}); err != nil {
				return err
			}
			fmt.Printf("Removed reminder %s\n", args[0])
			return nil
		}),
	}
}
