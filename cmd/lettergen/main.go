package main

import (
	"context"
	"fmt"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
)

var rootCmd = &cobra.Command{
	Use:   "lettergen",
	Short: "Generate case notices",
	Long: `Generates notices to banks, intermediary platforms and telecom providers for cybercrime cases.

Settings come from LETTERGEN_* environment variables or a .env file in the working directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("user", "u", "", "officer username (default $LETTERGEN_USER)")
	flags.String("password", "", "officer password (default $LETTERGEN_PASSWORD, otherwise read from stdin)")

	rootCmd.AddGroup(casesGroup, officersGroup, lettersGroup)
	rootCmd.AddCommand(loginCmd, casesCmd, officersCmd, bankCmd, interCmd, tspCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "lettergen:", err)
		os.Exit(1)
	}
}
