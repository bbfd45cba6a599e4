package main

import (
	"encoding/json"

	"github.com/goliatone/go-vendorgate/core"
	"github.com/goliatone/go-vendorgate/credentials"
	"github.com/goliatone/go-vendorgate/datacenter"
	"github.com/goliatone/go-vendorgate/oauth"
	"github.com/spf13/cobra"
)

func newTokenCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "OAuth token maintenance",
	}
	cmd.AddCommand(newTokenRefreshCmd(c))
	return cmd
}

// newTokenRefreshCmd exchanges the configured refresh token for a new access
// token. It needs no database.
func newTokenRefreshCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the configured refresh token for an access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			store := credentials.NewStore(cfg)
			refreshToken, err := store.RefreshToken()
			if err != nil {
				return err
			}
			clientID, clientSecret, err := store.ClientCredentials(core.VendorAccounts)
			if err != nil {
				return err
			}

			manager, err := oauth.NewManager(oauth.ManagerConfig{
				Router:     datacenter.NewRouter(),
				HTTPClient: c.httpClient,
				Timeout:    cfg.HTTP.RequestTimeout,
				Logger:     core.ResolveLogger("oauth", c.provider, c.logger),
			})
			if err != nil {
				return err
			}
			result, err := manager.RefreshAccessToken(cmd.Context(), oauth.RefreshGrant{
				RefreshToken: refreshToken,
				ClientID:     clientID,
				ClientSecret: clientSecret,
				Datacenter:   store.Datacenter(),
			})
			if err != nil {
				return err
			}

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(result)
		},
	}
}
