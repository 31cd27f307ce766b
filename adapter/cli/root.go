// Package cli implements the deskbell command line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pmstoolbox/deskbell/pkg/observability"
)

var (
	verbose bool
	logger  *slog.Logger
)

type startedAtKey struct{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "deskbell",
	Short: "Deskbell - front desk reminder daemon",
	Long: `Deskbell keeps a front desk on schedule: one-shot and daily
reminders with voice and notification output, periodic time
announcements, and do-not-disturb aware delivery.

Run "deskbell serve" to start the daemon; the other commands manage
reminders and settings in the shared store.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		ctx := observability.WithCorrelationID(cmd.Context(), "")
		ctx = observability.WithOperation(ctx, cmd.CommandPath())
		ctx = context.WithValue(ctx, startedAtKey{}, time.Now())
		cmd.SetContext(ctx)
		// The correlation ID rides in the context; the log handler adds it.
		logger.DebugContext(ctx, "command start", "command", cmd.CommandPath())
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger == nil {
			logger = slog.Default()
		}
		ctx := cmd.Context()
		startedAt, ok := ctx.Value(startedAtKey{}).(time.Time)
		if !ok {
			return
		}
		logger.DebugContext(ctx, "command end",
			observability.OperationKey, observability.OperationFromContext(ctx),
			observability.DurationKey, time.Since(startedAt).Milliseconds(),
		)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// AddCommand adds a command to the root command.
func AddCommand(cmd *cobra.Command) {
	rootCmd.AddCommand(cmd)
}

// SetLogger sets the CLI logger.
func SetLogger(l *slog.Logger) {
	logger = l
}
