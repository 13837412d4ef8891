package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIdentityCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "identity", Short: "manage this peer's signing keypair"}
	cmd.AddCommand(newIdentityShowCmd())
	return cmd
}

func newIdentityShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "print this peer's NodeId, generating a keypair on first run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			signer, err := loadOrCreateSigner(dataDir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), signer.NodeId().String())
			return nil
		},
	}
}
