package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/baiirun/kanban/internal/model"
)

func newItemCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "item",
		Aliases: []string{"items"},
		Short:   "Manage work items",
	}
	cmd.AddCommand(newItemAddCmd(a))
	cmd.AddCommand(newItemListCmd(a))
	cmd.AddCommand(newItemShowCmd(a))
	cmd.AddCommand(newItemUpdateCmd(a))
	cmd.AddCommand(newItemDeleteCmd(a))
	return cmd
}

func newItemAddCmd(a *app) *cobra.Command {
	var (
		description string
		assign      int64
		tags        []string
	)
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a work item in state New",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := model.WorkItemCreate{Title: args[0], Tags: tags}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}
			if cmd.Flags().Changed("assign") {
				in.AssignedUserID = &assign
			}

			resp, id, err := a.board.WorkItems.Create(in)
			if err != nil {
				return err
			}
			if err := responseError(resp, "work item"); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created work item %d\n", id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "work item description")
	cmd.Flags().Int64Var(&assign, "assign", 0, "assignee user ID")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "tag name (repeatable)")
	return cmd
}

func newItemListCmd(a *app) *cobra.Command {
	var (
		state   string
		tag     string
		user    int64
		removed bool
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work items (Removed items are hidden unless --removed)",
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := 0
			for _, name := range []string{"state", "tag", "user", "removed"} {
				if cmd.Flags().Changed(name) {
					filters++
				}
			}
			if filters > 1 {
				return errors.New("only one of --state, --tag, --user or --removed may be given")
			}

			var items []model.WorkItemSummary
			var err error
			switch {
			case cmd.Flags().Changed("state"):
				s, perr := model.ParseState(state)
				if perr != nil {
					return perr
				}
				items, err = a.board.WorkItems.ReadByState(s)
			case cmd.Flags().Changed("tag"):
				var found bool
				items, found, err = a.board.WorkItems.ReadByTag(tag)
				if err == nil && !found {
					return fmt.Errorf("tag %q not found", tag)
				}
			case cmd.Flags().Changed("user"):
				var found bool
				items, found, err = a.board.WorkItems.ReadByUser(user)
				if err == nil && !found {
					return fmt.Errorf("user %d not found", user)
				}
			case removed:
				items, err = a.board.WorkItems.ReadRemoved()
			default:
				items, err = a.board.WorkItems.Read()
			}
			if err != nil {
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), toWorkItemJSON(items))
			}
			printWorkItems(cmd.OutOrStdout(), items)
			return nil
		},
	}
	cmd.Flags().StringVarP(&state, "state", "s", "", "only items in this state")
	cmd.Flags().StringVarP(&tag, "tag", "t", "", "only items with this tag")
	cmd.Flags().Int64VarP(&user, "user", "u", 0, "only items assigned to this user ID")
	cmd.Flags().BoolVar(&removed, "removed", false, "only Removed items")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newItemShowCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show work item details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			d, found, err := a.board.WorkItems.Find(id)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("work item %d not found", id)
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), toWorkItemDetailJSON(d))
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "#%d %s\n", d.ID, d.Title)
			fmt.Fprintf(w, "State:    %s (since %s)\n", d.State, d.StateUpdatedAt.Format("2006-01-02 15:04"))
			fmt.Fprintf(w, "Created:  %s\n", d.CreatedAt.Format("2006-01-02 15:04"))
			if d.AssignedTo != nil {
				fmt.Fprintf(w, "Assignee: %s\n", *d.AssignedTo)
			}
			if len(d.Tags) > 0 {
				fmt.Fprintf(w, "Tags:     %v\n", d.Tags)
			}
			if d.Description != "" {
				fmt.Fprintf(w, "\n%s\n", d.Description)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newItemUpdateCmd(a *app) *cobra.Command {
	var (
		title       string
		description string
		assign      int64
		tags        []string
		clearTags   bool
		state       string
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a work item",
		Long: `Update a work item. Unset flags keep the stored values.
--tag replaces the whole tag set; --clear-tags removes every tag.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			in := model.WorkItemPatch{ID: id}
			if cmd.Flags().Changed("title") {
				in.Title = &title
			}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}
			if cmd.Flags().Changed("assign") {
				in.AssignedUserID = &assign
			}
			if cmd.Flags().Changed("tag") {
				in.Tags = &tags
			}
			if clearTags {
				in.Tags = &[]string{}
			}
			if cmd.Flags().Changed("state") {
				s, err := model.ParseState(state)
				if err != nil {
					return err
				}
				in.State = &s
			}

			resp, err := a.board.WorkItems.Patch(in)
			if err != nil {
				return err
			}
			if err := responseError(resp, fmt.Sprintf("work item %d", id)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated work item %d\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().Int64Var(&assign, "assign", 0, "assignee user ID")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "replacement tag set (repeatable)")
	cmd.Flags().BoolVar(&clearTags, "clear-tags", false, "remove every tag")
	cmd.Flags().StringVarP(&state, "state", "s", "", "new state (New, Active, Resolved, Closed, Removed)")
	return cmd
}

func newItemDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a work item (New items are removed, Active items move to Removed)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			resp, err := a.board.WorkItems.Delete(id)
			if err != nil {
				return err
			}
			if err := responseError(resp, fmt.Sprintf("work item %d", id)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted work item %d\n", id)
			return nil
		},
	}
}
