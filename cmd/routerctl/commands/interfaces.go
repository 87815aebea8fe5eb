package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func interfacesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "interfaces",
		Aliases: []string{"ifaces", "if"},
		Short:   "List the router's configured interfaces",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ifaces, err := client.interfaces()
			if err != nil {
				return fmt.Errorf("list interfaces: %w", err)
			}
			out, err := formatInterfaces(ifaces, outputFormat)
			if err != nil {
				return err
			}
			fmt.Println(out)
			return nil
		},
	}
}
