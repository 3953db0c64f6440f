package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smallbiznis/appleid-token/internal/http/presenter"
)

var revokeCmd = &cobra.Command{
	Use:     "revoke <refresh-token>",
	Short:   "Revoke a refresh token",
	Example: `  appleidctl revoke r.abc... -b release`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tc, err := loadToolchain()
		if err != nil {
			return err
		}

		if err := tc.tokens.Revoke(cmd.Context(), args[0], buildConfiguration); err != nil {
			return fmt.Errorf("error revoking token: %w", err)
		}
		return printJSON(cmd.OutOrStdout(), presenter.Envelope{Status: true, Message: "Token revoked successfully"})
	},
}
