package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "calshare",
		Short: "Serves calendars to holders of share-link secrets",
		Long: `calshare publishes a principal's calendar as an iCalendar feed to anyone
holding a share-link secret, and manages principals and their links.

Configuration is read from CALSHARE_* environment variables.`,
		Version:      version,
		SilenceUsage: true,
	}
	root.SetVersionTemplate(`{{printf "calshare version %s\n" .Version}}`)
	root.PersistentFlags().String("dsn", "", "SQLite DSN, overrides CALSHARE_SQLITE_DSN")

	root.AddCommand(newServeCmd())
	root.AddCommand(newPrincipalCmd())
	root.AddCommand(newLinkCmd())
	return root
}
