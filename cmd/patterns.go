package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/coreman2200/radioshack-strip/pattern"
)

func newPatternsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "patterns",
		Short: "List the built-in patterns",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, n := range pattern.Names() {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
		},
	}
}
