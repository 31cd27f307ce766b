package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pmstoolbox/deskbell/internal/reminders/application/commands"
	"github.com/pmstoolbox/deskbell/internal/reminders/domain"
)

// NewSettingsCommand creates the settings management command group.
func NewSettingsCommand(provider AppProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Manage daemon settings",
	}
	cmd.AddCommand(newSettingsShowCommand(provider))
	cmd.AddCommand(newSettingsDndCommand(provider))
	cmd.AddCommand(newSettingsAnnounceCommand(provider))
	cmd.AddCommand(newSettingsClockCommand(provider))
	return cmd
}

func newSettingsShowCommand(provider AppProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		RunE: withApp(provider, func(cmd *cobra.Command, args []string, app *App) error {
			s := app.GetSettings.Handle(cmd.Context())

			fmt.Println("Do not disturb:")
			fmt.Printf("  when locked:      %v\n", s.Dnd.WhenLocked)
			fmt.Printf("  when audio plays: %v\n", s.Dnd.WhenAudiblePlaying)
			fmt.Printf("  when fullscreen:  %v\n", s.Dnd.WhenFullscreen)
			fmt.Println("Time announcement:")
			fmt.Printf("  enabled:          %v\n", s.Announcement.Enabled)
			fmt.Printf("  interval:         %d min\n", s.Announcement.Interval())
			fmt.Printf("  voice:            %v\n", s.Announcement.Voice)
			fmt.Printf("  notification:     %v\n", s.Announcement.SystemNotify)
			fmt.Printf("Clock: hour12=%v\n", s.ClockHour12)
			fmt.Printf("Reminders: %d\n", len(s.Reminders))
			return nil
		}),
	}
}

func newSettingsDndCommand(provider AppProvider) *cobra.Command {
	var locked, audible, fullscreen bool

	cmd := &cobra.Command{
		Use:   "dnd",
		Short: "Set do-not-disturb preferences",
		RunE: withApp(provider, func(cmd *cobra.Command, args []string, app *App) error {
			prefs := domain.DndPreferences{
				WhenLocked:         locked,
				WhenAudiblePlaying: audible,
				WhenFullscreen:     fullscreen,
			}
			if err := app.UpdateDnd.Handle(cmd.Context(), commands.UpdateDndCommand{Preferences: prefs}); err != nil {
				return err
			}
			fmt.Println("Do-not-disturb preferences updated.")
			return nil
		}),
	}

	cmd.Flags().BoolVar(&locked, "when-locked", true, "suppress output while the desktop is locked")
	cmd.Flags().BoolVar(&audible, "when-audible", true, "suppress output while audio is playing")
	cmd.Flags().BoolVar(&fullscreen, "when-fullscreen", true, "suppress output while a window is fullscreen")
	return cmd
}

func newSettingsAnnounceCommand(provider AppProvider) *cobra.Command {
	var (
		enabled  bool
		interval int
		voice    bool
		notify   bool
	)

	cmd := &cobra.Command{
		Use:   "announce",
		Short: "Configure the periodic time announcement",
		RunE: withApp(provider, func(cmd *cobra.Command, args []string, app *App) error {
			settings := domain.AnnouncementSettings{
				Enabled:         enabled,
				IntervalMinutes: interval,
				Voice:           voice,
				SystemNotify:    notify,
			}
			if err := app.UpdateAnnouncement.Handle(cmd.Context(), commands.UpdateAnnouncementCommand{Settings: settings}); err != nil {
				return err
			}
			fmt.Println("Announcement settings updated.")
			return nil
		}),
	}

	cmd.Flags().BoolVar(&enabled, "enabled", false, "announce the time periodically")
	cmd.Flags().IntVar(&interval, "interval", 60, "minutes between announcements")
	cmd.Flags().BoolVar(&voice, "voice", true, "speak the announcement")
	cmd.Flags().BoolVar(&notify, "notify", false, "also show a system notification")
	return cmd
}

func newSettingsClockCommand(provider AppProvider) *cobra.Command {
	var hour12 bool

	cmd := &cobra.Command{
		Use:   "clock",
		Short: "Set the announced clock format",
		RunE: withApp(provider, func(cmd *cobra.Command, args []string, app *App) error {
			if err := app.UpdateClockFormat.Handle(cmd.Context(), commands.UpdateClockFormatCommand{Hour12: hour12}); err != nil {
				return err
			}
			fmt.Println("Clock format updated.")
			return nil
		}),
	}

	cmd.Flags().BoolVar(&hour12, "hour12", false, "announce in 12-hour format")
	return cmd
}
