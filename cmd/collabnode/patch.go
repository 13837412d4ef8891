package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"collabnode/cob/patch"
)

func newPatchCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "patch", Short: "create and evolve patch collaborative objects"}
	cmd.AddCommand(newPatchOpenCmd())
	cmd.AddCommand(newPatchUpdateCmd())
	cmd.AddCommand(newPatchReviewCmd())
	cmd.AddCommand(newPatchMergeCmd())
	cmd.AddCommand(newPatchArchiveCmd())
	cmd.AddCommand(newPatchGetCmd())
	cmd.AddCommand(newPatchListCmd())
	return cmd
}

func newPatchOpenCmd() *cobra.Command {
	var title, description, base, head string
	cmd := &cobra.Command{
		Use:   "open",
		Short: "propose a new patch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, signer, save, err := openStore(dataDir, patch.Projector)
			if err != nil {
				return err
			}
			obj, err := store.Create("open patch: "+title, patch.NewOpenOp(title, description, base, head), signer)
			if err != nil {
				return err
			}
			if err := save(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), obj.ID.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "patch title")
	cmd.Flags().StringVar(&description, "description", "", "patch description")
	cmd.Flags().StringVar(&base, "base", "", "base revision")
	cmd.Flags().StringVar(&head, "head", "", "head revision")
	cmd.MarkFlagRequired("title")
	cmd.MarkFlagRequired("head")
	return cmd
}

func newPatchUpdateCmd() *cobra.Command {
	var head string
	cmd := &cobra.Command{
		Use:   "update <object-id>",
		Short: "move a patch's head to a new revision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return patchUpdate(cmd, args[0], "update head", patch.NewUpdateOp(head))
		},
	}
	cmd.Flags().StringVar(&head, "head", "", "new head revision")
	cmd.MarkFlagRequired("head")
	return cmd
}

func newPatchReviewCmd() *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "review <object-id>",
		Short: "append a review comment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return patchUpdate(cmd, args[0], "review", patch.NewReviewOp(text))
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "review body")
	cmd.MarkFlagRequired("text")
	return cmd
}

func newPatchMergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <object-id>",
		Short: "mark a patch merged",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return patchUpdate(cmd, args[0], "merge", patch.NewMergeOp())
		},
	}
}

func newPatchArchiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive <object-id>",
		Short: "mark a patch archived",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return patchUpdate(cmd, args[0], "archive", patch.NewArchiveOp())
		},
	}
}

func patchUpdate(cmd *cobra.Command, idStr, message string, contents [][]byte) error {
	store, _, signer, save, err := openStore(dataDir, patch.Projector)
	if err != nil {
		return err
	}
	id, err := parseObjectID(idStr)
	if err != nil {
		return fmt.Errorf("invalid object id: %w", err)
	}
	obj, err := store.Update(id, message, contents, signer)
	if err != nil {
		return err
	}
	if err := save(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (tips=%d)\n", obj.ID.String(), len(obj.Tips))
	return nil
}

func newPatchGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <object-id>",
		Short: "print a patch's current projected state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, _, _, err := openStore(dataDir, patch.Projector)
			if err != nil {
				return err
			}
			id, err := parseObjectID(args[0])
			if err != nil {
				return fmt.Errorf("invalid object id: %w", err)
			}
			p, ok, err := store.Get(id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no such patch: %s", args[0])
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "title:       %s\n", p.Title)
			fmt.Fprintf(out, "description: %s\n", p.Description)
			fmt.Fprintf(out, "base..head:  %s..%s\n", p.Base, p.Head)
			fmt.Fprintf(out, "status:      %v\n", p.Status())
			for _, r := range p.Reviews {
				fmt.Fprintf(out, "review by %s: %s\n", r.Author.String(), r.Body)
			}
			return nil
		},
	}
}

func newPatchListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list every known patch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, _, _, err := openStore(dataDir, patch.Projector)
			if err != nil {
				return err
			}
			list, err := store.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, l := range list {
				fmt.Fprintf(out, "%s\t%s\t%v\n", l.ID.String(), l.Object.Title, l.Object.Status())
			}
			return nil
		},
	}
}
