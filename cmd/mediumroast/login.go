package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Acquire a credential with the configured strategy",
		Long: `login acquires a credential using auth.type from the config: the device flow
opens a browser and waits for approval, pat reads a token file, and pem mints a
GitHub App installation token. The credential is described but never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cred, err := a.acquire(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in: %s\n", cred)
			return nil
		},
	}
}
