// Command tpogctl runs TPOG maintenance tasks against the same database and
// upstream configuration as the server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
)

var (
	timeout time.Duration
	actor   string
)

var rootCmd = &cobra.Command{
	Use:           "tpogctl",
	Short:         "TPOG payroll maintenance",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")
	rootCmd.PersistentFlags().StringVar(&actor, "as", "tpogctl", "Username recorded on writes")

	userCreateCmd.Flags().String("name", "", "Display name")
	userCreateCmd.Flags().String("role", "viewer", "admin, dispatcher or viewer")
	computeCmd.Flags().String("driver", "", "Only this driver id")
	lockCmd.Flags().String("driver", "", "Only this driver id")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(hashPINCmd)
	rootCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(computeCmd)
	rootCmd.AddCommand(lockCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
