package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "project", Short: "manage the local project identity COBs are scoped to"}
	cmd.AddCommand(newProjectInitCmd())
	cmd.AddCommand(newProjectShowCmd())
	return cmd
}

func newProjectInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init <name>",
		Short: "derive a ResourceId for name and authorize this peer as its sole delegate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			signer, err := loadOrCreateSigner(dataDir)
			if err != nil {
				return err
			}
			p, err := initProject(dataDir, args[0], signer.NodeId())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "resource %s (%s)\n", p.Resource, p.Name)
			return nil
		},
	}
}

func newProjectShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "print the active project's ResourceId and delegate set",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := loadProject(dataDir)
			if err != nil {
				return fmt.Errorf("no project initialized in %s: run `project init <name>` first", dataDir)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "name:     %s\n", p.Name)
			fmt.Fprintf(out, "resource: %s\n", p.Resource)
			for _, d := range p.Delegates {
				fmt.Fprintf(out, "delegate: %s\n", d)
			}
			return nil
		},
	}
}
