package app

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"
)

func listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the registered template names and locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := loadManifest(cmd)
			if err != nil {
				return err
			}
			for _, name := range slices.Sorted(maps.Keys(m.Templates)) {
				if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, m.Templates[name]); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
