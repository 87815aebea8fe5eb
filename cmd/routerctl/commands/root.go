// Package commands implements the routerctl CLI commands.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// client is the management API client, initialized in PersistentPreRunE.
	client *mgmtClient

	// outputFormat controls the output format for all commands (table or json).
	outputFormat string

	// serverAddr is the routerd mgmt API address (host:port).
	serverAddr string
)

// rootCmd is the top-level cobra command for routerctl.
var rootCmd = &cobra.Command{
	Use:   "routerctl",
	Short: "CLI client for the routerd management API",
	Long:  "routerctl queries the routerd daemon's read-only management API for interfaces, routes, and the ARP cache.",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		client = newMgmtClient(serverAddr)
		return nil
	},
	// Silence cobra's built-in usage/error printing so we control it.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverAddr, "addr", "localhost:8080",
		"routerd mgmt API address (host:port)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table",
		"output format: table, json")

	rootCmd.AddCommand(interfacesCmd())
	rootCmd.AddCommand(routesCmd())
	rootCmd.AddCommand(arpCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(versionCmd())
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
