package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/smallbiznis/appleid-token/internal/domain/apple"
)

var mintRaw bool

var mintCmd = &cobra.Command{
	Use:   "mint",
	Short: "Mint a client secret (ES256 client assertion) for manual Apple calls",
	Long: `Signs a fresh client assertion exactly as the service does before each Apple call.
The token is valid for two minutes.`,
	Example: `  appleidctl mint -b release --raw`,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := apple.ParseBuildConfiguration(buildConfiguration)
		if err != nil {
			return err
		}
		tc, err := loadToolchain()
		if err != nil {
			return err
		}

		assertion, err := tc.signer.Mint(cmd.Context(), b)
		if err != nil {
			return fmt.Errorf("minting failed: %w", err)
		}

		if mintRaw {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), assertion.Token)
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"client_secret": assertion.Token,
			"kid":           assertion.KeyID,
			"sub":           assertion.Subject,
			"iat":           assertion.IssuedAt.Format(time.RFC3339),
			"exp":           assertion.ExpiresAt.Format(time.RFC3339),
		})
	},
}

func init() {
	mintCmd.Flags().BoolVar(&mintRaw, "raw", false, "Print only the signed token")
}
