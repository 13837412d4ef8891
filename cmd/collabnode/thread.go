package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"collabnode/cob/thread"
)

func newThreadCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "thread", Short: "create and append to thread collaborative objects"}
	cmd.AddCommand(newThreadOpenCmd())
	cmd.AddCommand(newThreadCommentCmd())
	cmd.AddCommand(newThreadGetCmd())
	cmd.AddCommand(newThreadListCmd())
	return cmd
}

func newThreadOpenCmd() *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "open",
		Short: "start a new thread with an initial comment",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, signer, save, err := openStore(dataDir, thread.Projector)
			if err != nil {
				return err
			}
			obj, err := store.Create("open thread", thread.NewCommentOp(text), signer)
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
	cmd.Flags().StringVar(&text, "text", "", "initial comment")
	cmd.MarkFlagRequired("text")
	return cmd
}

func newThreadCommentCmd() *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "comment <object-id>",
		Short: "append a comment to a thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, signer, save, err := openStore(dataDir, thread.Projector)
			if err != nil {
				return err
			}
			id, err := parseObjectID(args[0])
			if err != nil {
				return fmt.Errorf("invalid object id: %w", err)
			}
			obj, err := store.Update(id, "comment", thread.NewCommentOp(text), signer)
			if err != nil {
				return err
			}
			if err := save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (tips=%d)\n", obj.ID.String(), len(obj.Tips))
			return nil
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "comment body")
	cmd.MarkFlagRequired("text")
	return cmd
}

func newThreadGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <object-id>",
		Short: "print a thread's comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, _, _, err := openStore(dataDir, thread.Projector)
			if err != nil {
				return err
			}
			id, err := parseObjectID(args[0])
			if err != nil {
				return fmt.Errorf("invalid object id: %w", err)
			}
			th, ok, err := store.Get(id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no such thread: %s", args[0])
			}
			out := cmd.OutOrStdout()
			for _, c := range th.Comments {
				fmt.Fprintf(out, "%s: %s\n", c.Author.String(), c.Body)
			}
			return nil
		},
	}
}

func newThreadListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list every known thread",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, _, _, err := openStore(dataDir, thread.Projector)
			if err != nil {
				return err
			}
			list, err := store.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, l := range list {
				fmt.Fprintf(out, "%s\t%d comments\n", l.ID.String(), len(l.Object.Comments))
			}
			return nil
		},
	}
}
