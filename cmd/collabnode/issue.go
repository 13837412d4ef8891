package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"collabnode/cob/issue"
)

func newIssueCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "issue", Short: "create and evolve issue collaborative objects"}
	cmd.AddCommand(newIssueOpenCmd())
	cmd.AddCommand(newIssueCommentCmd())
	cmd.AddCommand(newIssueCloseCmd())
	cmd.AddCommand(newIssueReopenCmd())
	cmd.AddCommand(newIssueGetCmd())
	cmd.AddCommand(newIssueListCmd())
	return cmd
}

func newIssueOpenCmd() *cobra.Command {
	var title, body string
	cmd := &cobra.Command{
		Use:   "open",
		Short: "open a new issue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, signer, save, err := openStore(dataDir, issue.Projector)
			if err != nil {
				return err
			}
			obj, err := store.Create("open issue: "+title, issue.NewOpenOp(title, body), signer)
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
	cmd.Flags().StringVar(&title, "title", "", "issue title")
	cmd.Flags().StringVar(&body, "body", "", "issue body")
	cmd.MarkFlagRequired("title")
	return cmd
}

func newIssueCommentCmd() *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "comment <object-id>",
		Short: "append a comment to an issue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return issueUpdate(cmd, args[0], "comment", issue.NewCommentOp(text))
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "comment body")
	cmd.MarkFlagRequired("text")
	return cmd
}

func newIssueCloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close <object-id>",
		Short: "mark an issue closed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return issueUpdate(cmd, args[0], "close", issue.NewCloseOp())
		},
	}
}

func newIssueReopenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reopen <object-id>",
		Short: "mark a closed issue open again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return issueUpdate(cmd, args[0], "reopen", issue.NewReopenOp())
		},
	}
}

func issueUpdate(cmd *cobra.Command, idStr, message string, contents [][]byte) error {
	store, _, signer, save, err := openStore(dataDir, issue.Projector)
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

func newIssueGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <object-id>",
		Short: "print an issue's current projected state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, _, _, err := openStore(dataDir, issue.Projector)
			if err != nil {
				return err
			}
			id, err := parseObjectID(args[0])
			if err != nil {
				return fmt.Errorf("invalid object id: %w", err)
			}
			iss, ok, err := store.Get(id)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no such issue: %s", args[0])
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "title:  %s\n", iss.Title)
			fmt.Fprintf(out, "body:   %s\n", iss.Body)
			fmt.Fprintf(out, "status: %v\n", iss.Status())
			for _, c := range iss.Comments {
				fmt.Fprintf(out, "comment by %s: %s\n", c.Author.String(), c.Body)
			}
			return nil
		},
	}
}

func newIssueListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list every known issue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, _, _, err := openStore(dataDir, issue.Projector)
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
