package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/baiirun/kanban/internal/model"
)

func newUserCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "user",
		Aliases: []string{"users"},
		Short:   "Manage users",
	}
	cmd.AddCommand(newUserAddCmd(a))
	cmd.AddCommand(newUserListCmd(a))
	cmd.AddCommand(newUserShowCmd(a))
	cmd.AddCommand(newUserUpdateCmd(a))
	cmd.AddCommand(newUserDeleteCmd(a))
	return cmd
}

func newUserAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <email>",
		Short: "Register a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, id, err := a.board.Users.Create(args[0], args[1])
			if err != nil {
				return err
			}
			if resp == model.Conflict {
				return fmt.Errorf("email %q already registered (id %d)", args[1], id)
			}
			if err := responseError(resp, "user"); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %d\n", id)
			return nil
		},
	}
}

func newUserListCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			users, err := a.board.Users.Read()
			if err != nil {
				return err
			}
			if asJSON {
				out := make([]UserJSON, 0, len(users))
				for _, u := range users {
					out = append(out, UserJSON{ID: u.ID, Name: u.Name, Email: u.Email})
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}
			if len(users) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No users")
				return nil
			}
			for _, u := range users {
				fmt.Fprintf(cmd.OutOrStdout(), "%4d  %-20s %s\n", u.ID, u.Name, u.Email)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newUserShowCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			u, found, err := a.board.Users.Find(id)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("user %d not found", id)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), UserJSON{ID: u.ID, Name: u.Name, Email: u.Email})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d  %s <%s>\n", u.ID, u.Name, u.Email)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newUserUpdateCmd(a *app) *cobra.Command {
	var name, email string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a user's name or email",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("name") && !cmd.Flags().Changed("email") {
				return errors.New("nothing to update: pass --name or --email")
			}
			current, found, err := a.board.Users.Find(id)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("user %d not found", id)
			}
			if !cmd.Flags().Changed("name") {
				name = current.Name
			}
			if !cmd.Flags().Changed("email") {
				email = current.Email
			}

			resp, err := a.board.Users.Update(id, name, email)
			if err != nil {
				return err
			}
			if err := responseError(resp, fmt.Sprintf("user %d", id)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated user %d\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new display name")
	cmd.Flags().StringVar(&email, "email", "", "new email")
	return cmd
}

func newUserDeleteCmd(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Long: `Delete a user. Deletion requires --force and is refused while the
user is assigned to an Active work item. Other items are unassigned.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			resp, err := a.board.Users.Delete(id, force)
			if err != nil {
				return err
			}
			if resp == model.Conflict && !force {
				return fmt.Errorf("user %d: use --force to delete", id)
			}
			if resp == model.Conflict {
				return fmt.Errorf("user %d is assigned to an Active work item", id)
			}
			if err := responseError(resp, fmt.Sprintf("user %d", id)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %d\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "unassign from work items and delete")
	return cmd
}
