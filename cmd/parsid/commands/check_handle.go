package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"parsid/internal/identity/models"
	"parsid/internal/network"
)

func checkHandleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check-handle [handle]",
		Short: "Check whether a handle is well formed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			handle := network.NormalizeHandle(args[0])
			check := models.ValidateHandle(handle)
			if !check.Valid {
				return fmt.Errorf("invalid handle %q: %s", args[0], check.Reason)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "valid: %s\n", network.QualifyHandle(handle))
			return nil
		},
	}
}
