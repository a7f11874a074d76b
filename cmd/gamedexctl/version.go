package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/gamedex/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of gamedexctl",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "gamedexctl %s\n", version.String())
		},
	}
}
