package main

import (
	"github.com/spf13/cobra"

	"github.com/smallbiznis/appleid-token/internal/domain/apple"
)

type configView struct {
	BuildConfiguration string `json:"build_configuration"`
	Issuer             string `json:"issuer"`
	Subject            string `json:"subject"`
	ClientID           string `json:"client_id"`
	KeyID              string `json:"key_id"`
}

var configsCmd = &cobra.Command{
	Use:   "configs",
	Short: "Show the resolved client identity of every build configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		tc, err := loadToolchain()
		if err != nil {
			return err
		}

		var views []configView
		for _, b := range apple.BuildConfigurations() {
			cfg, err := tc.providers.Lookup(b)
			if err != nil {
				return err
			}
			views = append(views, configView{
				BuildConfiguration: b.String(),
				Issuer:             cfg.Issuer,
				Subject:            cfg.Subject,
				ClientID:           cfg.EffectiveClientID(),
				KeyID:              cfg.KeyID,
			})
		}
		return printJSON(cmd.OutOrStdout(), views)
	},
}
