package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/baiirun/kanban/internal/model"
)

func newTagCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tag",
		Aliases: []string{"tags"},
		Short:   "Manage tags",
	}
	cmd.AddCommand(newTagAddCmd(a))
	cmd.AddCommand(newTagListCmd(a))
	cmd.AddCommand(newTagShowCmd(a))
	cmd.AddCommand(newTagRenameCmd(a))
	cmd.AddCommand(newTagDeleteCmd(a))
	return cmd
}

func newTagAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name>",
		Short: "Register a tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, id, err := a.board.Tags.Create(args[0])
			if err != nil {
				return err
			}
			if resp == model.Conflict {
				return fmt.Errorf("tag %q already exists (id %d)", args[0], id)
			}
			if err := responseError(resp, "tag"); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created tag %d\n", id)
			return nil
		},
	}
}

func newTagListCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			tags, err := a.board.Tags.Read()
			if err != nil {
				return err
			}
			if asJSON {
				out := make([]TagJSON, 0, len(tags))
				for _, t := range tags {
					out = append(out, TagJSON{ID: t.ID, Name: t.Name})
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}
			if len(tags) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tags")
				return nil
			}
			for _, t := range tags {
				fmt.Fprintf(cmd.OutOrStdout(), "%4d  %s\n", t.ID, t.Name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newTagShowCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id|name>",
		Short: "Show a tag by ID or name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var tag model.Tag
			var found bool
			var err error
			if id, perr := strconv.ParseInt(args[0], 10, 64); perr == nil {
				tag, found, err = a.board.Tags.Find(id)
			} else {
				tag, found, err = a.board.Tags.FindByName(args[0])
			}
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("tag %q not found", args[0])
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), TagJSON{ID: tag.ID, Name: tag.Name})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d  %s\n", tag.ID, tag.Name)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newTagRenameCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a tag",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			resp, err := a.board.Tags.Update(id, args[1])
			if err != nil {
				return err
			}
			if err := responseError(resp, fmt.Sprintf("tag %d", id)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed tag %d to %q\n", id, args[1])
			return nil
		},
	}
}

func newTagDeleteCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a tag",
		Long: `Delete a tag. Deletion requires --force and is refused while any
Active work item carries the tag. Other items have the tag detached.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			resp, err := a.board.Tags.Delete(id, force)
			if err != nil {
				return err
			}
			if resp == model.Conflict && !force {
				return fmt.Errorf("tag %d: use --force to delete", id)
			}
			if resp == model.Conflict {
				return fmt.Errorf("tag %d is in use by an Active work item", id)
			}
			if err := responseError(resp, fmt.Sprintf("tag %d", id)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted tag %d\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "detach from work items and delete")
	return cmd
}
