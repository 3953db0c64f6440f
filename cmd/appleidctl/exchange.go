package main

import (
	"github.com/spf13/cobra"

	"github.com/smallbiznis/appleid-token/internal/http/presenter"
)

var exchangeCmd = &cobra.Command{
	Use:     "exchange <authorization-code>",
	Short:   "Exchange an authorization code for a refresh token",
	Example: `  appleidctl exchange c1a2b3... -b debug`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tc, err := loadToolchain()
		if err != nil {
			return err
		}

		result, err := tc.tokens.ExchangeCode(cmd.Context(), args[0], buildConfiguration)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), presenter.Envelope{Status: true, Message: "Success", Data: result})
	},
}
