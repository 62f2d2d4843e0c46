// Package commands implements the parsid terminal client.
package commands

import (
	"github.com/spf13/cobra"
)

func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree. Tests drive it with SetArgs/SetIn.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "parsid",
		Short:         "Mint anonymous, coercion-resistant pars.id identities",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(mintCmd(), checkHandleCmd())
	return root
}
