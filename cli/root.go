package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root command for the waggle CLI.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "waggle",
		Short: "Waggle match server",
		Long:  "Detects mutual likes between dogs, records matches and notifies both owners.",
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewReplayCommand())

	return cmd
}
