package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func arpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "arp",
		Short: "List the router's live ARP cache",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			entries, err := client.arpEntries()
			if err != nil {
				return fmt.Errorf("list arp cache: %w", err)
			}
			out, err := formatARP(entries, outputFormat)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
}
