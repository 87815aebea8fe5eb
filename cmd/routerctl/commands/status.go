package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report routerd's health and uptime",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			h, err := client.healthz()
			if err != nil {
				return fmt.Errorf("check status: %w", err)
			}
			fmt.Printf("status: %s\nuptime: %s\n", h.Status, h.Uptime)
			return nil
		},
	}
}
